package layout

import (
	"fmt"
	"strings"
)

// Overlay symbols drawn over the rows.
const (
	SymbolDoor       = 'D'
	SymbolHiddenWall = 'H'
	SymbolLoot       = '$'
	SymbolSpawn      = 'S'
	SymbolGoal       = 'G'
)

// markerCell returns the tile a boundary marker is drawn on: the corridor
// side when there is one.
func (d *Data) markerCell(p Placement) Point {
	if d.At(p.B.X, p.B.Y) == SymbolCorridor && d.At(p.A.X, p.A.Y) != SymbolCorridor {
		return p.B
	}
	return p.A
}

// Canvas returns the rows with every overlay applied. Later overlays win:
// spawn and goal are drawn last.
func (d *Data) Canvas() [][]byte {
	canvas := make([][]byte, len(d.Rows))
	for y, row := range d.Rows {
		canvas[y] = []byte(row)
	}

	put := func(p Point, c byte) {
		if p.Y >= 0 && p.Y < len(canvas) && p.X >= 0 && p.X < len(canvas[p.Y]) {
			canvas[p.Y][p.X] = c
		}
	}

	for _, p := range d.HiddenWalls {
		put(d.markerCell(p), SymbolHiddenWall)
	}
	for _, p := range d.Doors {
		put(d.markerCell(p), SymbolDoor)
	}
	for _, l := range d.Loot {
		put(Point{X: l.X, Y: l.Y}, SymbolLoot)
	}
	if d.Spawn != nil {
		put(*d.Spawn, SymbolSpawn)
	}
	if d.Goal != nil {
		put(*d.Goal, SymbolGoal)
	}
	return canvas
}

// RenderASCII draws the layout with a title line and, optionally, a legend.
func RenderASCII(d *Data, legend bool) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("Dungeon %dx%d (Seed: %d, Rooms: %d)\n", d.Width, d.Height, d.Seed, len(d.Rooms)))
	output.WriteString(strings.Repeat("=", max(d.Width, 20)) + "\n")
	for _, row := range d.Canvas() {
		output.Write(row)
		output.WriteByte('\n')
	}

	if legend {
		output.WriteString(getLegend())
	}
	return output.String()
}

func getLegend() string {
	return `
Legend:
  [.] Empty
  [#] Room
  [+] Corridor
  [D] Door
  [H] Hidden wall
  [$] Loot
  [S] Spawn
  [G] Goal
`
}
