package dungeon

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidConfig is matched by every configuration error returned from
// Params.Validate.
var ErrInvalidConfig = errors.New("invalid dungeon configuration")

// sampleAttempts is the retry budget for picking a free tile in a room.
const sampleAttempts = 20

// minRoomSide is the smallest room dimension that can be carved.
const minRoomSide = 3

// Params contains every input of one generation run.
type Params struct {
	MapWidth         int `yaml:"map_width"`
	MapHeight        int `yaml:"map_height"`
	MinPartitionSize int `yaml:"min_partition_size"`
	MaxRoomSize      int `yaml:"max_room_size"`

	Seed       int64 `yaml:"seed"`
	RandomSeed bool  `yaml:"random_seed"` // draw a time-based seed and ignore Seed

	LootBasePerRoom         float64 `yaml:"loot_base_per_room"`
	LootSmallRoomMultiplier float64 `yaml:"loot_small_room_multiplier"`
	LootMaxPerRoom          int     `yaml:"loot_max_per_room"`
	LootEdgePadding         int     `yaml:"loot_edge_padding"`
	PreventLootOverlap      bool    `yaml:"prevent_loot_overlap"`

	SpawnGoalEdgePadding   int  `yaml:"spawn_goal_edge_padding"`
	PlaceGoalFarFromSpawn  bool `yaml:"place_goal_far_from_spawn"`
	PreventSpawnGoalOnLoot bool `yaml:"prevent_spawn_goal_on_loot"`
}

// DefaultParams returns the reference 40x40 layout settings.
func DefaultParams() Params {
	return Params{
		MapWidth:                40,
		MapHeight:               40,
		MinPartitionSize:        6,
		MaxRoomSize:             10,
		Seed:                    1234,
		LootBasePerRoom:         1.5,
		LootSmallRoomMultiplier: 2,
		LootMaxPerRoom:          4,
		LootEdgePadding:         1,
		PreventLootOverlap:      true,
		SpawnGoalEdgePadding:    1,
		PlaceGoalFarFromSpawn:   true,
		PreventSpawnGoalOnLoot:  true,
	}
}

// ConfigError lists every bound a Params value violates.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks the bounds that keep the split offset range and the room
// size range non-empty. It returns a *ConfigError or nil.
func (p Params) Validate() error {
	var problems []string

	if p.MapWidth <= 0 || p.MapHeight <= 0 {
		problems = append(problems, fmt.Sprintf("map size %dx%d must be positive", p.MapWidth, p.MapHeight))
	}
	if p.MinPartitionSize <= 0 {
		problems = append(problems, fmt.Sprintf("min_partition_size %d must be positive", p.MinPartitionSize))
	} else if p.MapWidth > 0 && p.MapHeight > 0 {
		limit := min(p.MapWidth, p.MapHeight) / 2
		if p.MinPartitionSize > limit {
			problems = append(problems, fmt.Sprintf("min_partition_size %d exceeds half the smaller map side (%d)", p.MinPartitionSize, limit))
		}
	}
	if p.MaxRoomSize < minRoomSide {
		problems = append(problems, fmt.Sprintf("max_room_size %d must be at least %d", p.MaxRoomSize, minRoomSide))
	}
	switch {
	case !finite(p.LootBasePerRoom):
		problems = append(problems, fmt.Sprintf("loot_base_per_room %g must be finite", p.LootBasePerRoom))
	case p.LootBasePerRoom < 0:
		problems = append(problems, fmt.Sprintf("loot_base_per_room %g must not be negative", p.LootBasePerRoom))
	}
	switch {
	case !finite(p.LootSmallRoomMultiplier):
		problems = append(problems, fmt.Sprintf("loot_small_room_multiplier %g must be finite", p.LootSmallRoomMultiplier))
	case p.LootSmallRoomMultiplier < 1:
		problems = append(problems, fmt.Sprintf("loot_small_room_multiplier %g must be at least 1", p.LootSmallRoomMultiplier))
	}
	if p.LootMaxPerRoom < 0 {
		problems = append(problems, fmt.Sprintf("loot_max_per_room %d must not be negative", p.LootMaxPerRoom))
	}
	if p.LootEdgePadding < 0 || p.SpawnGoalEdgePadding < 0 {
		problems = append(problems, "edge paddings must not be negative")
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
