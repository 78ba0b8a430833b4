package dungeon

import (
	"strings"

	"github.com/lawnchairsociety/dungeongen/internal/logger"
	"github.com/lawnchairsociety/dungeongen/internal/rng"
)

// Side is one step of a node path: which child was taken.
type Side uint8

const (
	SideLeft Side = iota
	SideRight
)

// Path is the sequence of left/right choices from the root to a node.
type Path []Side

// String renders the path as "L"/"R" letters. The root is "".
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p {
		if s == SideLeft {
			b.WriteByte('L')
		} else {
			b.WriteByte('R')
		}
	}
	return b.String()
}

// NoNode marks an absent child or parent index.
const NoNode = -1

// Node is one BSP region. Nodes live in Tree.Nodes and refer to each other by
// index.
type Node struct {
	Region
	Left, Right int
	Parent      int
	Path        Path
	// Room is set only on leaves that carved a room.
	Room *Region
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == NoNode && n.Right == NoNode
}

// Tree is an arena-backed BSP tree. Node 0 is the root.
type Tree struct {
	Nodes []Node
}

func newTree(root Region) *Tree {
	return &Tree{Nodes: []Node{{Region: root, Left: NoNode, Right: NoNode, Parent: NoNode}}}
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return &t.Nodes[0]
}

func (t *Tree) addChild(parent int, r Region, side Side) int {
	path := make(Path, len(t.Nodes[parent].Path), len(t.Nodes[parent].Path)+1)
	copy(path, t.Nodes[parent].Path)
	path = append(path, side)

	t.Nodes = append(t.Nodes, Node{Region: r, Left: NoNode, Right: NoNode, Parent: parent, Path: path})
	return len(t.Nodes) - 1
}

// Leaves returns leaf indices in left-first depth-first order.
func (t *Tree) Leaves() []int {
	var out []int
	t.walk(0, func(i int) {
		if t.Nodes[i].IsLeaf() {
			out = append(out, i)
		}
	})
	return out
}

// RoomLeaves returns the leaves that carved a room, in traversal order.
func (t *Tree) RoomLeaves() []int {
	var out []int
	for _, i := range t.Leaves() {
		if t.Nodes[i].Room != nil {
			out = append(out, i)
		}
	}
	return out
}

// walk visits i and its subtree, parents before children, left before right.
func (t *Tree) walk(i int, fn func(int)) {
	if i == NoNode {
		return
	}
	fn(i)
	t.walk(t.Nodes[i].Left, fn)
	t.walk(t.Nodes[i].Right, fn)
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	d := 0
	for _, i := range t.Leaves() {
		if len(t.Nodes[i].Path) > d {
			d = len(t.Nodes[i].Path)
		}
	}
	return d
}

// split subdivides node i until both sides are at most 2*minSize.
func (t *Tree) split(i, minSize int, r rng.Source) {
	n := t.Nodes[i].Region
	limit := 2 * minSize
	if n.W <= limit && n.H <= limit {
		return
	}

	// Horizontal divides the height; the coin is always drawn so every split
	// costs the same number of draws.
	horizontal := r.Bool()
	// Forced in both directions, so only an oversized side is ever cut.
	if n.W <= limit {
		horizontal = true
	} else if n.H <= limit {
		horizontal = false
	}

	var a, b Region
	if horizontal {
		at := r.Range(minSize, n.H-minSize)
		a = Region{X: n.X, Y: n.Y, W: n.W, H: at}
		b = Region{X: n.X, Y: n.Y + at, W: n.W, H: n.H - at}
	} else {
		at := r.Range(minSize, n.W-minSize)
		a = Region{X: n.X, Y: n.Y, W: at, H: n.H}
		b = Region{X: n.X + at, Y: n.Y, W: n.W - at, H: n.H}
	}

	left := t.addChild(i, a, SideLeft)
	right := t.addChild(i, b, SideRight)
	t.Nodes[i].Left = left
	t.Nodes[i].Right = right

	t.split(left, minSize, r)
	t.split(right, minSize, r)
}

// Split builds the BSP tree for a width x height map.
func Split(width, height, minSize int, r rng.Source) *Tree {
	t := newTree(Region{X: 0, Y: 0, W: width, H: height})
	t.split(0, minSize, r)
	return t
}

// PlaceRooms carves one room inside every leaf and returns the carved rooms
// in traversal order.
func PlaceRooms(t *Tree, g *Grid, maxRoomSize int, r rng.Source) []Region {
	var rooms []Region
	for _, i := range t.Leaves() {
		node := &t.Nodes[i]
		maxW := min(maxRoomSize, node.W)
		maxH := min(maxRoomSize, node.H)
		if maxW < minRoomSide || maxH < minRoomSide {
			logger.Warning("Leaf too small for a room", "path", node.Path.String(), "width", node.W, "height", node.H)
			continue
		}

		w := r.Range(minRoomSide, maxW+1)
		h := r.Range(minRoomSide, maxH+1)
		x := node.X + r.Range(0, node.W-w+1)
		y := node.Y + r.Range(0, node.H-h+1)

		room := Region{X: x, Y: y, W: w, H: h}
		node.Room = &room
		for cy := y; cy < y+h; cy++ {
			for cx := x; cx < x+w; cx++ {
				g.Set(cx, cy, CellRoom)
			}
		}
		rooms = append(rooms, room)
	}
	return rooms
}

// representativeRoom returns the first room in a left-first search of the
// subtree rooted at i.
func (t *Tree) representativeRoom(i int) *Region {
	if i == NoNode {
		return nil
	}
	n := &t.Nodes[i]
	if n.Room != nil {
		return n.Room
	}
	if room := t.representativeRoom(n.Left); room != nil {
		return room
	}
	return t.representativeRoom(n.Right)
}

// ConnectCorridors joins sibling subtrees bottom-up with L-shaped corridors.
// It returns the number of corridors dug.
func ConnectCorridors(t *Tree, g *Grid, r rng.Source) int {
	return t.connect(0, g, r)
}

func (t *Tree) connect(i int, g *Grid, r rng.Source) int {
	n := t.Nodes[i]
	if n.Left == NoNode || n.Right == NoNode {
		return 0
	}
	dug := t.connect(n.Left, g, r) + t.connect(n.Right, g, r)

	a := t.representativeRoom(n.Left)
	b := t.representativeRoom(n.Right)
	if a == nil || b == nil {
		return dug
	}
	carveCorridor(g, a.Center(), b.Center(), r)
	return dug + 1
}

// carveCorridor digs an L-shaped tunnel between two points.
func carveCorridor(g *Grid, from, to Point, r rng.Source) {
	if r.Bool() {
		carveH(g, from.X, to.X, from.Y)
		carveV(g, from.Y, to.Y, to.X)
	} else {
		carveV(g, from.Y, to.Y, from.X)
		carveH(g, from.X, to.X, to.Y)
	}
}

func carveH(g *Grid, x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		g.Carve(x, y, CellCorridor)
	}
}

func carveV(g *Grid, y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		g.Carve(x, y, CellCorridor)
	}
}
