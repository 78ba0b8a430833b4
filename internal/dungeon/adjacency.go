package dungeon

import "github.com/zyedidia/generic/mapset"

// Orientation is the axis a door or hidden wall spans. It is perpendicular
// to the connection it sits on.
type Orientation uint8

const (
	// OrientAlongX spans the X axis; it closes a north-south connection.
	OrientAlongX Orientation = iota
	// OrientAlongY spans the Y axis; it closes an east-west connection.
	OrientAlongY
)

// String returns the string representation of an Orientation
func (o Orientation) String() string {
	if o == OrientAlongY {
		return "along_y"
	}
	return "along_x"
}

// Rotation returns the yaw in degrees a scene builder applies to a panel
// modelled along the X axis.
func (o Orientation) Rotation() float64 {
	if o == OrientAlongY {
		return 90
	}
	return 0
}

// Placement is a door or hidden wall on the boundary between two tiles.
type Placement struct {
	X, Y        float64
	Orientation Orientation
	Edge        EdgeKey
}

func newPlacement(e EdgeKey) Placement {
	x, y := e.Midpoint()
	o := OrientAlongX
	if e.Horizontal() {
		o = OrientAlongY
	}
	return Placement{X: x, Y: y, Orientation: o, Edge: e}
}

// edgeAction is the outcome of classifying one tile edge.
type edgeAction uint8

const (
	keepWall edgeAction = iota
	removeWall
	placeDoor
	placeHiddenWall
)

// Adjacency is the result of resolving every tile edge.
type Adjacency struct {
	Doors       []Placement
	HiddenWalls []Placement
	// Removed counts tile sides whose wall was taken down.
	Removed int
}

// neighborCounts returns how many corridor and room tiles touch p, plus the
// directions of the room neighbors.
func neighborCounts(idx *TileIndex, p Point) (corridors int, rooms []Direction) {
	for _, d := range AllDirections {
		n, ok := idx.Neighbor(p, d)
		if !ok {
			continue
		}
		switch n.Kind {
		case CellCorridor:
			corridors++
		case CellRoom:
			rooms = append(rooms, d)
		}
	}
	return corridors, rooms
}

// classifyCorridor decides what a room-corridor boundary becomes, judged from
// the corridor tile.
func classifyCorridor(idx *TileIndex, corridor Point) edgeAction {
	corridors, rooms := neighborCounts(idx, corridor)
	switch {
	case corridors == 1 && len(rooms) >= 1:
		return placeDoor
	case corridors == 0 && len(rooms) == 2:
		ax, ay := rooms[0].Delta()
		bx, by := rooms[1].Delta()
		if ax+bx == 0 && ay+by == 0 {
			return placeHiddenWall
		}
	}
	return keepWall
}

// classifyEdge decides what happens to the wall of t facing d.
func classifyEdge(idx *TileIndex, t Tile, d Direction) edgeAction {
	n, ok := idx.Neighbor(t.Point, d)
	if !ok {
		return keepWall
	}
	if n.Kind == t.Kind {
		return removeWall
	}
	corridor := t.Point
	if n.Kind == CellCorridor {
		corridor = n.Point
	}
	return classifyCorridor(idx, corridor)
}

// ResolveAdjacency classifies the four edges of every tile, takes down walls
// and emits door and hidden-wall placements. A boundary seen from both of its
// tiles produces at most one placement.
func ResolveAdjacency(idx *TileIndex) Adjacency {
	var out Adjacency
	emitted := mapset.New[EdgeKey]()

	for _, t := range idx.Tiles() {
		for _, d := range AllDirections {
			action := classifyEdge(idx, t, d)
			if action == keepWall {
				continue
			}
			idx.removeWall(t.Point, d)
			out.Removed++
			if action == removeWall {
				continue
			}

			key := NewEdgeKey(t.Point, t.Point.Add(d))
			if emitted.Has(key) {
				continue
			}
			emitted.Put(key)
			if action == placeDoor {
				out.Doors = append(out.Doors, newPlacement(key))
			} else {
				out.HiddenWalls = append(out.HiddenWalls, newPlacement(key))
			}
		}
	}
	return out
}
