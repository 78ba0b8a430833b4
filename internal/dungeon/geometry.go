package dungeon

import "fmt"

// Point is an integer grid position.
type Point struct {
	X, Y int
}

// Add returns p offset by d's unit vector.
func (p Point) Add(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Less orders points by X, then Y.
func (p Point) Less(o Point) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Region is an integer rectangle with its top-left corner at (X, Y).
type Region struct {
	X, Y, W, H int
}

// Area returns W*H.
func (r Region) Area() int {
	return r.W * r.H
}

// Center returns the integer center (X + W/2, Y + H/2).
func (r Region) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r.
func (r Region) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Inset shrinks r by pad on every side. The second result is false when
// nothing is left.
func (r Region) Inset(pad int) (Region, bool) {
	in := Region{X: r.X + pad, Y: r.Y + pad, W: r.W - 2*pad, H: r.H - 2*pad}
	if in.W <= 0 || in.H <= 0 {
		return r, false
	}
	return in, true
}

// Direction is one of the four axis directions. Y grows southward.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// AllDirections lists the directions in the order edges are resolved.
var AllDirections = [4]Direction{North, East, South, West}

// Delta returns the unit vector for d.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// EdgeKey identifies the boundary between two adjacent tiles. A is always the
// smaller point, so both tiles produce the same key.
type EdgeKey struct {
	A, B Point
}

// NewEdgeKey returns the canonical key for the boundary between p and q.
func NewEdgeKey(p, q Point) EdgeKey {
	if q.Less(p) {
		p, q = q, p
	}
	return EdgeKey{A: p, B: q}
}

// Midpoint returns the center of the shared boundary.
func (e EdgeKey) Midpoint() (float64, float64) {
	return float64(e.A.X+e.B.X) / 2, float64(e.A.Y+e.B.Y) / 2
}

// Horizontal reports whether the two tiles sit side by side on the X axis.
func (e EdgeKey) Horizontal() bool {
	return e.A.Y == e.B.Y
}
