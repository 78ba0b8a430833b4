// Package layout converts generated dungeons into a serializable form, reads
// and writes it as YAML and renders it as ASCII.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

// Row symbols for the three cell states.
const (
	SymbolEmpty    = '.'
	SymbolRoom     = '#'
	SymbolCorridor = '+'
)

// Data is the exported view of one dungeon.
type Data struct {
	Seed        int64       `yaml:"seed" json:"seed"`
	Width       int         `yaml:"width" json:"width"`
	Height      int         `yaml:"height" json:"height"`
	Fingerprint string      `yaml:"fingerprint" json:"fingerprint"`
	GeneratedAt time.Time   `yaml:"generated_at" json:"generated_at"`
	Rows        []string    `yaml:"rows" json:"rows"`
	Rooms       []Room      `yaml:"rooms" json:"rooms"`
	Doors       []Placement `yaml:"doors,omitempty" json:"doors,omitempty"`
	HiddenWalls []Placement `yaml:"hidden_walls,omitempty" json:"hidden_walls,omitempty"`
	Loot        []Loot      `yaml:"loot,omitempty" json:"loot,omitempty"`
	Spawn       *Point      `yaml:"spawn,omitempty" json:"spawn,omitempty"`
	Goal        *Point      `yaml:"goal,omitempty" json:"goal,omitempty"`
}

// Room is a carved room and the BSP path of the leaf that holds it.
type Room struct {
	Path string `yaml:"path" json:"path"`
	X    int    `yaml:"x" json:"x"`
	Y    int    `yaml:"y" json:"y"`
	W    int    `yaml:"w" json:"w"`
	H    int    `yaml:"h" json:"h"`
}

// Point is a tile position.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Placement is a door or hidden wall on the boundary between tiles A and B.
type Placement struct {
	X           float64 `yaml:"x" json:"x"`
	Y           float64 `yaml:"y" json:"y"`
	Orientation string  `yaml:"orientation" json:"orientation"`
	Rotation    float64 `yaml:"rotation" json:"rotation"`
	A           Point   `yaml:"a" json:"a"`
	B           Point   `yaml:"b" json:"b"`
}

// Loot is one loot item and the index of its room in Data.Rooms.
type Loot struct {
	X    int `yaml:"x" json:"x"`
	Y    int `yaml:"y" json:"y"`
	Room int `yaml:"room" json:"room"`
}

func point(p dungeon.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

func placements(ps []dungeon.Placement) []Placement {
	out := make([]Placement, 0, len(ps))
	for _, p := range ps {
		out = append(out, Placement{
			X:           p.X,
			Y:           p.Y,
			Orientation: p.Orientation.String(),
			Rotation:    p.Orientation.Rotation(),
			A:           point(p.Edge.A),
			B:           point(p.Edge.B),
		})
	}
	return out
}

// FromDungeon builds the exported view of d.
func FromDungeon(d *dungeon.Dungeon) *Data {
	data := &Data{
		Seed:        d.Seed,
		Width:       d.Grid.Width,
		Height:      d.Grid.Height,
		Fingerprint: d.Fingerprint(),
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Rows:        make([]string, d.Grid.Height),
		Rooms:       make([]Room, 0, len(d.Rooms)),
		Doors:       placements(d.Doors),
		HiddenWalls: placements(d.HiddenWalls),
	}

	row := make([]byte, d.Grid.Width)
	for y := 0; y < d.Grid.Height; y++ {
		for x := 0; x < d.Grid.Width; x++ {
			switch d.Grid.At(x, y) {
			case dungeon.CellRoom:
				row[x] = SymbolRoom
			case dungeon.CellCorridor:
				row[x] = SymbolCorridor
			default:
				row[x] = SymbolEmpty
			}
		}
		data.Rows[y] = string(row)
	}

	for _, r := range d.Rooms {
		data.Rooms = append(data.Rooms, Room{
			Path: d.Tree.Nodes[r.Node].Path.String(),
			X:    r.X,
			Y:    r.Y,
			W:    r.W,
			H:    r.H,
		})
	}
	for _, l := range d.Loot {
		data.Loot = append(data.Loot, Loot{X: l.X, Y: l.Y, Room: l.Room})
	}
	if d.Spawn != nil {
		p := point(*d.Spawn)
		data.Spawn = &p
	}
	if d.Goal != nil {
		p := point(*d.Goal)
		data.Goal = &p
	}
	return data
}

// Validate checks that the rows match the declared size and only use the
// known symbols.
func (d *Data) Validate() error {
	if len(d.Rows) != d.Height {
		return fmt.Errorf("layout has %d rows, want %d", len(d.Rows), d.Height)
	}
	for y, row := range d.Rows {
		if len(row) != d.Width {
			return fmt.Errorf("row %d has %d cells, want %d", y, len(row), d.Width)
		}
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case SymbolEmpty, SymbolRoom, SymbolCorridor:
			default:
				return fmt.Errorf("row %d: unknown symbol %q at column %d", y, row[x], x)
			}
		}
	}
	return nil
}

// At returns the row symbol at (x, y), or SymbolEmpty when out of bounds.
func (d *Data) At(x, y int) byte {
	if y < 0 || y >= len(d.Rows) || x < 0 || x >= len(d.Rows[y]) {
		return SymbolEmpty
	}
	return d.Rows[y][x]
}

// Write writes data to path as YAML with a short header comment.
func Write(path string, data *Data) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Dungeon %dx%d\n", data.Width, data.Height)
	fmt.Fprintf(f, "# Generated with seed: %d\n", data.Seed)
	fmt.Fprintf(f, "# Room count: %d\n\n", len(data.Rooms))

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// Load reads a layout written by Write.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout %s: %w", path, err)
	}
	return &data, nil
}
