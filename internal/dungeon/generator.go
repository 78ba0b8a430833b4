// Package dungeon generates deterministic tile dungeons: a BSP tree carves the
// map into regions, each leaf gets a room, sibling subtrees are joined by
// corridors, and the resulting adjacency decides walls, doors and hidden
// walls. Loot and a spawn/goal pair are then spread over the rooms.
package dungeon

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/dungeongen/internal/logger"
	"github.com/lawnchairsociety/dungeongen/internal/rng"
)

// Room is a carved room and the leaf that owns it.
type Room struct {
	Region
	Node int
}

// Dungeon is the complete output of one generation run.
type Dungeon struct {
	Params      Params
	Seed        int64
	Tree        *Tree
	Grid        *Grid
	Tiles       *TileIndex
	Rooms       []Room
	Corridors   int
	Doors       []Placement
	HiddenWalls []Placement
	Loot        []LootDrop
	Spawn       *Point
	Goal        *Point
	SpawnRoom   int
	GoalRoom    int
}

// Stats summarizes a dungeon for logs and storage.
type Stats struct {
	Rooms         int `json:"rooms"`
	Tiles         int `json:"tiles"`
	RoomCells     int `json:"room_cells"`
	CorridorCells int `json:"corridor_cells"`
	Doors         int `json:"doors"`
	HiddenWalls   int `json:"hidden_walls"`
	Loot          int `json:"loot"`
	TreeDepth     int `json:"tree_depth"`
}

// Empty reports whether no room was carved. Loot and spawn/goal placement are
// no-ops in that case.
func (d *Dungeon) Empty() bool {
	return len(d.Rooms) == 0
}

// Stats returns counts for the generated layout.
func (d *Dungeon) Stats() Stats {
	return Stats{
		Rooms:         len(d.Rooms),
		Tiles:         d.Tiles.Len(),
		RoomCells:     d.Grid.Count(CellRoom),
		CorridorCells: d.Grid.Count(CellCorridor),
		Doors:         len(d.Doors),
		HiddenWalls:   len(d.HiddenWalls),
		Loot:          len(d.Loot),
		TreeDepth:     d.Tree.Depth(),
	}
}

// LootInRoom returns how many loot items landed in room i.
func (d *Dungeon) LootInRoom(i int) int {
	n := 0
	for _, l := range d.Loot {
		if l.Room == i {
			n++
		}
	}
	return n
}

// Generate runs the whole pipeline on r. Params are validated before any
// draw is made; r.Seed() is recorded as the dungeon seed.
func Generate(p Params, r rng.Source) (*Dungeon, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d := &Dungeon{
		Params:    p,
		Seed:      r.Seed(),
		Grid:      NewGrid(p.MapWidth, p.MapHeight),
		SpawnRoom: NoNode,
		GoalRoom:  NoNode,
	}

	d.Tree = Split(p.MapWidth, p.MapHeight, p.MinPartitionSize, r)
	regions := PlaceRooms(d.Tree, d.Grid, p.MaxRoomSize, r)
	for _, i := range d.Tree.RoomLeaves() {
		d.Rooms = append(d.Rooms, Room{Region: *d.Tree.Nodes[i].Room, Node: i})
	}
	logger.Debug("Rooms placed", "leaves", len(d.Tree.Leaves()), "rooms", len(regions))

	d.Corridors = ConnectCorridors(d.Tree, d.Grid, r)
	d.Tiles = BuildTileIndex(d.Grid)
	logger.Debug("Corridors carved", "corridors", d.Corridors, "tiles", d.Tiles.Len())

	if d.Empty() {
		logger.Warning("Generation produced no rooms", "seed", d.Seed, "width", p.MapWidth, "height", p.MapHeight)
	}

	occ := newOccupancy()
	sg := placeSpawnGoal(d.Grid, regions, p, occ, r)
	d.Spawn, d.Goal = sg.Spawn, sg.Goal
	d.SpawnRoom, d.GoalRoom = sg.SpawnRoom, sg.GoalRoom

	d.Loot = placeLoot(d.Grid, regions, p, occ, r)

	adj := ResolveAdjacency(d.Tiles)
	d.Doors, d.HiddenWalls = adj.Doors, adj.HiddenWalls
	logger.Debug("Adjacency resolved", "walls_removed", adj.Removed, "doors", len(d.Doors), "hidden_walls", len(d.HiddenWalls))

	logger.Info("Dungeon generated",
		"seed", d.Seed,
		"rooms", len(d.Rooms),
		"loot", len(d.Loot),
		"fingerprint", d.Fingerprint())
	return d, nil
}

// GenerateSeeded resolves the seed (time-based when p.RandomSeed is set) and
// runs Generate on a fresh stream.
func GenerateSeeded(p Params) (*Dungeon, error) {
	seed := p.Seed
	if p.RandomSeed {
		seed = rng.TimeSeed()
	}
	logger.Always("Generation seed selected", "seed", seed, "random", p.RandomSeed)

	d, err := Generate(p, rng.New(seed))
	if err != nil {
		return nil, fmt.Errorf("generate seed %d: %w", seed, err)
	}
	return d, nil
}

// Fingerprint hashes every generated output with BLAKE2b-256. Two runs with
// the same params and seed have the same fingerprint.
func (d *Dungeon) Fingerprint() string {
	buf := make([]byte, 0, 4096)
	putInt := func(v int) {
		buf = binary.BigEndian.AppendUint64(buf, uint64(int64(v)))
	}
	putPoint := func(p *Point) {
		if p == nil {
			buf = append(buf, 0)
			return
		}
		buf = append(buf, 1)
		putInt(p.X)
		putInt(p.Y)
	}
	putPlacements := func(ps []Placement) {
		putInt(len(ps))
		for _, pl := range ps {
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(pl.X))
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(pl.Y))
			buf = append(buf, byte(pl.Orientation))
		}
	}

	putInt(d.Grid.Width)
	putInt(d.Grid.Height)
	for _, c := range d.Grid.cells {
		buf = append(buf, byte(c))
	}
	putInt(d.Tiles.Len())
	for _, t := range d.Tiles.Tiles() {
		putInt(t.X)
		putInt(t.Y)
		buf = append(buf, byte(t.Kind))
		for _, w := range t.Walls {
			if w {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	putPlacements(d.Doors)
	putPlacements(d.HiddenWalls)
	putInt(len(d.Loot))
	for _, l := range d.Loot {
		putInt(l.X)
		putInt(l.Y)
		putInt(l.Room)
	}
	putPoint(d.Spawn)
	putPoint(d.Goal)

	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
