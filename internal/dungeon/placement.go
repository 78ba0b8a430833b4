package dungeon

import (
	"math"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/dungeongen/internal/logger"
	"github.com/lawnchairsociety/dungeongen/internal/rng"
)

// occupancy tracks positions claimed by spawn/goal and by loot.
type occupancy struct {
	reserved mapset.Set[Point]
	loot     mapset.Set[Point]
}

func newOccupancy() *occupancy {
	return &occupancy{
		reserved: mapset.New[Point](),
		loot:     mapset.New[Point](),
	}
}

// sampleTile draws up to sampleAttempts positions inside room shrunk by pad
// and returns the first Room cell that is neither reserved nor, when
// avoidLoot is set, already holding loot.
func sampleTile(g *Grid, room Region, pad int, occ *occupancy, avoidLoot bool, r rng.Source) (Point, bool) {
	area, ok := room.Inset(pad)
	if !ok {
		area = room
	}
	for attempt := 0; attempt < sampleAttempts; attempt++ {
		p := Point{
			X: r.Range(area.X, area.X+area.W),
			Y: r.Range(area.Y, area.Y+area.H),
		}
		if g.At(p.X, p.Y) != CellRoom {
			continue
		}
		if occ.reserved.Has(p) {
			continue
		}
		if avoidLoot && occ.loot.Has(p) {
			continue
		}
		return p, true
	}
	return Point{}, false
}

// LootDrop is one loot item and the index of the room that holds it.
type LootDrop struct {
	Point
	Room int
}

// lootCount turns a room's smallness into a drawn item count.
func lootCount(p Params, smallness float64, r rng.Source) int {
	expected := p.LootBasePerRoom * lerp(1, p.LootSmallRoomMultiplier, smallness)
	roll := r.Float64()

	// Clamp before converting; int() of an out-of-range float is undefined.
	if expected >= float64(p.LootMaxPerRoom) {
		return p.LootMaxPerRoom
	}
	if !(expected > 0) {
		return 0
	}
	whole := math.Floor(expected)
	count := int(whole)
	if roll < expected-whole {
		count++
	}
	return min(count, p.LootMaxPerRoom)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// smallness maps area onto [0, 1]: 1 for the smallest room, 0 for the largest.
func smallness(area, minArea, maxArea int) float64 {
	if maxArea == minArea {
		return 0
	}
	return 1 - float64(area-minArea)/float64(maxArea-minArea)
}

// placeLoot distributes loot over rooms, weighting small rooms more heavily.
// Units that cannot find a free tile are skipped.
func placeLoot(g *Grid, rooms []Region, p Params, occ *occupancy, r rng.Source) []LootDrop {
	if len(rooms) == 0 {
		return nil
	}

	minArea, maxArea := rooms[0].Area(), rooms[0].Area()
	for _, room := range rooms[1:] {
		minArea = min(minArea, room.Area())
		maxArea = max(maxArea, room.Area())
	}

	var drops []LootDrop
	skipped := 0
	for i, room := range rooms {
		count := lootCount(p, smallness(room.Area(), minArea, maxArea), r)
		for n := 0; n < count; n++ {
			pos, ok := sampleTile(g, room, p.LootEdgePadding, occ, p.PreventLootOverlap, r)
			if !ok {
				skipped++
				continue
			}
			occ.loot.Put(pos)
			drops = append(drops, LootDrop{Point: pos, Room: i})
		}
	}
	if skipped > 0 {
		logger.Debug("Loot units skipped", "count", skipped)
	}
	return drops
}

// SpawnGoal holds the chosen spawn and goal. A nil position was skipped.
type SpawnGoal struct {
	Spawn     *Point
	Goal      *Point
	SpawnRoom int
	GoalRoom  int
}

// farthestRoom returns the room whose center is farthest from rooms[from],
// excluding from itself. Ties go to the earliest room.
func farthestRoom(rooms []Region, from int) int {
	origin := rooms[from].Center()
	best, bestDist := from, -1
	for i, room := range rooms {
		if i == from {
			continue
		}
		c := room.Center()
		dx, dy := c.X-origin.X, c.Y-origin.Y
		if d := dx*dx + dy*dy; d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// placeSpawnGoal picks the spawn and goal rooms and a free tile in each.
func placeSpawnGoal(g *Grid, rooms []Region, p Params, occ *occupancy, r rng.Source) SpawnGoal {
	out := SpawnGoal{SpawnRoom: NoNode, GoalRoom: NoNode}
	if len(rooms) == 0 {
		return out
	}

	spawnRoom := r.Intn(len(rooms))
	goalRoom := spawnRoom
	if len(rooms) > 1 {
		if p.PlaceGoalFarFromSpawn {
			goalRoom = farthestRoom(rooms, spawnRoom)
		} else {
			goalRoom = r.Intn(len(rooms) - 1)
			if goalRoom >= spawnRoom {
				goalRoom++
			}
		}
	}

	avoidLoot := p.PreventSpawnGoalOnLoot
	if pos, ok := sampleTile(g, rooms[spawnRoom], p.SpawnGoalEdgePadding, occ, avoidLoot, r); ok {
		occ.reserved.Put(pos)
		out.Spawn = &pos
		out.SpawnRoom = spawnRoom
	} else {
		logger.Debug("Spawn placement skipped", "room", spawnRoom)
	}

	if pos, ok := sampleTile(g, rooms[goalRoom], p.SpawnGoalEdgePadding, occ, avoidLoot, r); ok {
		occ.reserved.Put(pos)
		out.Goal = &pos
		out.GoalRoom = goalRoom
		return out
	}

	for i, room := range rooms {
		if i == goalRoom {
			continue
		}
		if pos, ok := sampleTile(g, room, p.SpawnGoalEdgePadding, occ, avoidLoot, r); ok {
			logger.Debug("Goal moved to fallback room", "wanted", goalRoom, "room", i)
			occ.reserved.Put(pos)
			out.Goal = &pos
			out.GoalRoom = i
			return out
		}
	}
	logger.Debug("Goal placement skipped", "room", goalRoom)
	return out
}
