// Package rng provides the single deterministic random stream shared by every
// generation phase.
package rng

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"time"
)

// Source is the random stream consumed by the generator. Every phase draws
// from it in a fixed order, so two sources built from the same seed produce
// identical dungeons.
type Source interface {
	// Intn returns a uniform integer in [0, n). It panics if n <= 0.
	Intn(n int) int
	// Range returns a uniform integer in [lo, hi). It panics if hi <= lo.
	Range(lo, hi int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
	// Bool is a fair coin flip.
	Bool() bool
	// Seed returns the seed the stream was created with.
	Seed() int64
}

// Seeded is a Source backed by math/rand.
type Seeded struct {
	seed int64
	r    *rand.Rand
}

// New creates a stream for the given seed.
func New(seed int64) *Seeded {
	return &Seeded{
		seed: seed,
		r:    rand.New(rand.NewSource(seed)),
	}
}

// Intn returns a uniform integer in [0, n).
func (s *Seeded) Intn(n int) int {
	return s.r.Intn(n)
}

// Range returns a uniform integer in [lo, hi).
func (s *Seeded) Range(lo, hi int) int {
	if hi <= lo {
		panic("rng: empty range")
	}
	return lo + s.r.Intn(hi-lo)
}

// Float64 returns a uniform float in [0, 1).
func (s *Seeded) Float64() float64 {
	return s.r.Float64()
}

// Bool returns true with probability 0.5.
func (s *Seeded) Bool() bool {
	return s.r.Intn(2) == 0
}

// Seed returns the seed the stream was created with.
func (s *Seeded) Seed() int64 {
	return s.seed
}

// TimeSeed returns a fresh seed for random-seed mode.
func TimeSeed() int64 {
	return time.Now().UnixNano()
}

// Derive returns a substream seed for the tree node at path. Splitting
// subtrees in parallel must give each subtree its own stream seeded this way,
// since a shared stream loses its draw order under concurrent access.
func Derive(seed int64, path string) int64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	h.Write(buf[:])
	h.Write([]byte(path))
	return int64(h.Sum64())
}
