package dungeon

// Cell is the carved state of one grid position.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellRoom
	CellCorridor
)

// String returns the string representation of a Cell
func (c Cell) String() string {
	switch c {
	case CellEmpty:
		return "empty"
	case CellRoom:
		return "room"
	case CellCorridor:
		return "corridor"
	default:
		return "unknown"
	}
}

// Grid is the authoritative cell-state buffer, stored row-major.
type Grid struct {
	Width, Height int
	cells         []Cell
}

// NewGrid creates an all-empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make([]Cell, width*height),
	}
}

// InBounds reports whether (x, y) is within the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the cell at (x, y), or CellEmpty when out of bounds.
func (g *Grid) At(x, y int) Cell {
	if !g.InBounds(x, y) {
		return CellEmpty
	}
	return g.cells[y*g.Width+x]
}

// Set overwrites the cell at (x, y). Out-of-bounds writes are ignored.
func (g *Grid) Set(x, y int, c Cell) {
	if g.InBounds(x, y) {
		g.cells[y*g.Width+x] = c
	}
}

// Carve writes c only if (x, y) is in bounds and still empty, so rooms are
// never downgraded to corridor. It reports whether the cell was written.
func (g *Grid) Carve(x, y int, c Cell) bool {
	if !g.InBounds(x, y) || g.cells[y*g.Width+x] != CellEmpty {
		return false
	}
	g.cells[y*g.Width+x] = c
	return true
}

// Count returns how many cells hold c.
func (g *Grid) Count(c Cell) int {
	n := 0
	for _, v := range g.cells {
		if v == c {
			n++
		}
	}
	return n
}

// Cells returns a copy of the row-major buffer.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Tile is a carved cell handed to the scene builder.
type Tile struct {
	Point
	Kind Cell
	// Walls reports, per Direction, whether the wall on that side stands.
	Walls [4]bool
}

// TileIndex maps grid positions to placed tiles. It is built once after
// carving and only read afterward, except for wall state which the adjacency
// pass fills in.
type TileIndex struct {
	tiles []Tile
	byPos map[Point]int
}

// BuildTileIndex records one tile per carved cell in row-major order. Every
// wall starts standing.
func BuildTileIndex(g *Grid) *TileIndex {
	idx := &TileIndex{byPos: make(map[Point]int)}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y)
			if c == CellEmpty {
				continue
			}
			p := Point{X: x, Y: y}
			idx.byPos[p] = len(idx.tiles)
			idx.tiles = append(idx.tiles, Tile{Point: p, Kind: c, Walls: [4]bool{true, true, true, true}})
		}
	}
	return idx
}

// Len returns the number of tiles.
func (idx *TileIndex) Len() int {
	return len(idx.tiles)
}

// Tiles returns the tiles in placement order.
func (idx *TileIndex) Tiles() []Tile {
	return idx.tiles
}

// Lookup returns the tile at p.
func (idx *TileIndex) Lookup(p Point) (Tile, bool) {
	i, ok := idx.byPos[p]
	if !ok {
		return Tile{}, false
	}
	return idx.tiles[i], true
}

// Neighbor returns the tile next to p in direction d.
func (idx *TileIndex) Neighbor(p Point, d Direction) (Tile, bool) {
	return idx.Lookup(p.Add(d))
}

func (idx *TileIndex) removeWall(p Point, d Direction) {
	if i, ok := idx.byPos[p]; ok {
		idx.tiles[i].Walls[d] = false
	}
}
