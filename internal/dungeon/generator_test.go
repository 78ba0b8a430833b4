package dungeon

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/lawnchairsociety/dungeongen/internal/rng"
)

var testSeeds = []int64{1, 2, 3, 7, 42, 99, 512, 1234, 2024, 31337}

func generate(t *testing.T, p Params) *Dungeon {
	t.Helper()
	d, err := Generate(p, rng.New(p.Seed))
	if err != nil {
		t.Fatalf("Generate(seed %d) failed: %v", p.Seed, err)
	}
	return d
}

// reachable counts carved cells reachable from start through carved cells.
func reachable(g *Grid, start Point) int {
	seen := map[Point]bool{start: true}
	queue := []Point{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range AllDirections {
			n := p.Add(d)
			if seen[n] || g.At(n.X, n.Y) == CellEmpty {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return len(seen)
}

func TestReferenceScenario(t *testing.T) {
	p := DefaultParams()
	p.MapWidth, p.MapHeight = 40, 40
	p.MinPartitionSize, p.MaxRoomSize = 6, 10
	p.Seed = 1234

	a := generate(t, p)
	b := generate(t, p)

	if len(a.Rooms) < 2 {
		t.Fatalf("got %d rooms, want at least 2", len(a.Rooms))
	}
	if a.Tiles.Len() == 0 {
		t.Fatal("grid is empty")
	}
	if got := reachable(a.Grid, a.Rooms[0].Center()); got != a.Tiles.Len() {
		t.Errorf("reached %d of %d tiles", got, a.Tiles.Len())
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("two runs with seed 1234 differ")
	}
}

func TestDeterminism(t *testing.T) {
	for _, seed := range testSeeds {
		p := DefaultParams()
		p.Seed = seed
		a := generate(t, p)
		b := generate(t, p)

		if !slices.Equal(a.Grid.Cells(), b.Grid.Cells()) {
			t.Errorf("seed %d: grids differ", seed)
		}
		if !slices.Equal(a.Tiles.Tiles(), b.Tiles.Tiles()) {
			t.Errorf("seed %d: tiles differ", seed)
		}
		if !slices.Equal(a.Doors, b.Doors) || !slices.Equal(a.HiddenWalls, b.HiddenWalls) {
			t.Errorf("seed %d: door or hidden wall sets differ", seed)
		}
		if !slices.Equal(a.Loot, b.Loot) {
			t.Errorf("seed %d: loot differs", seed)
		}
		if (a.Spawn == nil) != (b.Spawn == nil) || (a.Spawn != nil && *a.Spawn != *b.Spawn) {
			t.Errorf("seed %d: spawn differs", seed)
		}
		if (a.Goal == nil) != (b.Goal == nil) || (a.Goal != nil && *a.Goal != *b.Goal) {
			t.Errorf("seed %d: goal differs", seed)
		}
		if a.Fingerprint() != b.Fingerprint() {
			t.Errorf("seed %d: fingerprints differ", seed)
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	p := DefaultParams()
	p.Seed = 1234
	a := generate(t, p)
	p.Seed = 4321
	b := generate(t, p)
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("seeds 1234 and 4321 produced the same dungeon")
	}
}

func TestConnectivityAcrossSeeds(t *testing.T) {
	for _, seed := range testSeeds {
		p := DefaultParams()
		p.MapWidth, p.MapHeight = 64, 48
		p.MinPartitionSize = 5
		p.Seed = seed
		d := generate(t, p)

		if got := reachable(d.Grid, d.Rooms[0].Center()); got != d.Tiles.Len() {
			t.Errorf("seed %d: reached %d of %d tiles", seed, got, d.Tiles.Len())
		}
		if d.Corridors != len(d.Rooms)-1 {
			t.Errorf("seed %d: %d corridors for %d rooms", seed, d.Corridors, len(d.Rooms))
		}
	}
}

func TestTilesMatchGrid(t *testing.T) {
	d := generate(t, DefaultParams())

	carved := d.Grid.Count(CellRoom) + d.Grid.Count(CellCorridor)
	if carved != d.Tiles.Len() {
		t.Fatalf("%d carved cells but %d tiles", carved, d.Tiles.Len())
	}
	for _, tile := range d.Tiles.Tiles() {
		if d.Grid.At(tile.X, tile.Y) != tile.Kind {
			t.Errorf("tile %v kind %s disagrees with grid", tile.Point, tile.Kind)
		}
	}
}

func TestPlacementsDeduplicatedAndOpen(t *testing.T) {
	for _, seed := range testSeeds {
		p := DefaultParams()
		p.Seed = seed
		d := generate(t, p)

		seen := make(map[EdgeKey]bool)
		for _, pl := range append(slices.Clone(d.Doors), d.HiddenWalls...) {
			if seen[pl.Edge] {
				t.Errorf("seed %d: edge %v emitted twice", seed, pl.Edge)
			}
			seen[pl.Edge] = true

			a, okA := d.Tiles.Lookup(pl.Edge.A)
			b, okB := d.Tiles.Lookup(pl.Edge.B)
			if !okA || !okB {
				t.Fatalf("seed %d: placement %v not between two tiles", seed, pl.Edge)
			}
			if a.Kind == b.Kind {
				t.Errorf("seed %d: placement %v between two %s tiles", seed, pl.Edge, a.Kind)
			}
			dir := East
			if !pl.Edge.Horizontal() {
				dir = South
			}
			if a.Walls[dir] || b.Walls[dir.Opposite()] {
				t.Errorf("seed %d: placement %v sits on a standing wall", seed, pl.Edge)
			}
		}
	}
}

func TestLootBounds(t *testing.T) {
	for _, seed := range testSeeds {
		p := DefaultParams()
		p.Seed = seed
		p.LootBasePerRoom = 2.5
		p.LootMaxPerRoom = 3
		d := generate(t, p)

		for i := range d.Rooms {
			if n := d.LootInRoom(i); n < 0 || n > p.LootMaxPerRoom {
				t.Errorf("seed %d: room %d has %d loot", seed, i, n)
			}
		}

		positions := make(map[Point]bool)
		for _, l := range d.Loot {
			if positions[l.Point] {
				t.Errorf("seed %d: two loot items at %v", seed, l.Point)
			}
			positions[l.Point] = true
			if d.Grid.At(l.X, l.Y) != CellRoom {
				t.Errorf("seed %d: loot at %v is not on a room cell", seed, l.Point)
			}
			if !d.Rooms[l.Room].Contains(l.Point) {
				t.Errorf("seed %d: loot at %v outside its room", seed, l.Point)
			}
		}
		if d.Spawn != nil && positions[*d.Spawn] {
			t.Errorf("seed %d: loot on spawn", seed)
		}
		if d.Goal != nil && positions[*d.Goal] {
			t.Errorf("seed %d: loot on goal", seed)
		}
	}
}

func TestSpawnGoalDisjoint(t *testing.T) {
	for _, seed := range testSeeds {
		for _, far := range []bool{true, false} {
			p := DefaultParams()
			p.Seed = seed
			p.PlaceGoalFarFromSpawn = far
			d := generate(t, p)

			if d.Spawn == nil || d.Goal == nil {
				t.Fatalf("seed %d: spawn or goal missing", seed)
			}
			if *d.Spawn == *d.Goal {
				t.Errorf("seed %d: spawn equals goal", seed)
			}
			if d.SpawnRoom == d.GoalRoom {
				t.Errorf("seed %d far=%v: spawn and goal share room %d", seed, far, d.SpawnRoom)
			}
			if d.Grid.At(d.Spawn.X, d.Spawn.Y) != CellRoom || d.Grid.At(d.Goal.X, d.Goal.Y) != CellRoom {
				t.Errorf("seed %d: spawn or goal off a room cell", seed)
			}
		}
	}
}

func TestFarthestGoal(t *testing.T) {
	for _, seed := range testSeeds {
		p := DefaultParams()
		p.Seed = seed
		d := generate(t, p)

		origin := d.Rooms[d.SpawnRoom].Center()
		dist := func(r Room) int {
			c := r.Center()
			return (c.X-origin.X)*(c.X-origin.X) + (c.Y-origin.Y)*(c.Y-origin.Y)
		}
		goalDist := dist(d.Rooms[d.GoalRoom])
		for i, r := range d.Rooms {
			if dist(r) > goalDist {
				t.Errorf("seed %d: room %d is farther (%d) than goal room %d (%d)", seed, i, dist(r), d.GoalRoom, goalDist)
			}
		}
	}
}

func TestZeroRooms(t *testing.T) {
	p := DefaultParams()
	p.MapWidth, p.MapHeight = 2, 10
	p.MinPartitionSize = 1
	d := generate(t, p)

	if !d.Empty() {
		t.Fatalf("expected no rooms, got %d", len(d.Rooms))
	}
	if d.Spawn != nil || d.Goal != nil || len(d.Loot) != 0 {
		t.Error("placement should be a no-op without rooms")
	}
	if d.Tiles.Len() != 0 {
		t.Errorf("expected no tiles, got %d", d.Tiles.Len())
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero width", func(p *Params) { p.MapWidth = 0 }},
		{"negative height", func(p *Params) { p.MapHeight = -5 }},
		{"zero partition", func(p *Params) { p.MinPartitionSize = 0 }},
		{"partition too large", func(p *Params) { p.MinPartitionSize = 21 }},
		{"room too small", func(p *Params) { p.MaxRoomSize = 2 }},
		{"multiplier below one", func(p *Params) { p.LootSmallRoomMultiplier = 0.5 }},
		{"negative loot max", func(p *Params) { p.LootMaxPerRoom = -1 }},
		{"negative base loot", func(p *Params) { p.LootBasePerRoom = -1 }},
		{"negative padding", func(p *Params) { p.LootEdgePadding = -1 }},
		{"NaN multiplier", func(p *Params) { p.LootSmallRoomMultiplier = math.NaN() }},
		{"infinite multiplier", func(p *Params) { p.LootSmallRoomMultiplier = math.Inf(1) }},
		{"NaN base loot", func(p *Params) { p.LootBasePerRoom = math.NaN() }},
		{"infinite base loot", func(p *Params) { p.LootBasePerRoom = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := Generate(p, rng.New(1))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Generate error = %v, want ErrInvalidConfig", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || len(cfgErr.Problems) == 0 {
				t.Errorf("error should carry the violated bounds, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsBoundary(t *testing.T) {
	p := DefaultParams()
	p.MinPartitionSize = 20
	p.MaxRoomSize = 3
	p.LootSmallRoomMultiplier = 1
	p.LootMaxPerRoom = 0
	if err := p.Validate(); err != nil {
		t.Errorf("boundary params rejected: %v", err)
	}
}

func TestGenerateSeededRandomMode(t *testing.T) {
	p := DefaultParams()
	p.RandomSeed = true
	p.Seed = 1234

	d, err := GenerateSeeded(p)
	if err != nil {
		t.Fatalf("GenerateSeeded failed: %v", err)
	}
	if len(d.Rooms) < 2 {
		t.Errorf("got %d rooms", len(d.Rooms))
	}

	fixed := DefaultParams()
	fixed.Seed = 77
	d, err = GenerateSeeded(fixed)
	if err != nil {
		t.Fatalf("GenerateSeeded failed: %v", err)
	}
	if d.Seed != 77 {
		t.Errorf("Seed = %d, want 77", d.Seed)
	}
}

func TestStats(t *testing.T) {
	d := generate(t, DefaultParams())
	s := d.Stats()

	if s.Rooms != len(d.Rooms) || s.Doors != len(d.Doors) || s.Loot != len(d.Loot) {
		t.Errorf("stats %+v disagree with dungeon", s)
	}
	if s.RoomCells+s.CorridorCells != s.Tiles {
		t.Errorf("room %d + corridor %d cells != %d tiles", s.RoomCells, s.CorridorCells, s.Tiles)
	}
	if s.TreeDepth < 1 {
		t.Errorf("tree depth = %d, want >= 1", s.TreeDepth)
	}
}

func TestRoomsMatchTreeLeaves(t *testing.T) {
	d := generate(t, DefaultParams())
	for _, room := range d.Rooms {
		node := d.Tree.Nodes[room.Node]
		if !node.IsLeaf() || node.Room == nil || *node.Room != room.Region {
			t.Errorf("room %v not owned by leaf %d", room.Region, room.Node)
		}
	}
}
