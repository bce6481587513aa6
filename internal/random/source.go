// Package random provides the seeded, call-counted pseudorandom source used by
// every placement strategy.
package random

import "math/rand/v2"

// pcgStream is the fixed second PCG word; only the seed varies between passes.
const pcgStream = 0x9e3779b97f4a7c15

// Source is a deterministic random stream with a draw counter.
// Two sources initialized with the same seed and asked the same sequence of
// calls return identical values.
//
// Not safe for concurrent use: one Source belongs to one placement engine.
type Source struct {
	seed  int64
	calls int64
	rng   *rand.Rand
}

// New creates a source initialized with seed.
func New(seed int64) *Source {
	s := &Source{}
	s.Initialize(seed)
	return s
}

// Initialize resets the stream and the call counter.
// Replay requires re-seeding; the counter is never rewound.
func (s *Source) Initialize(seed int64) {
	s.seed = seed
	s.calls = 0
	s.rng = rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

// Seed returns the seed of the current stream.
func (s *Source) Seed() int64 {
	return s.seed
}

// Calls returns the number of draws since the last Initialize.
func (s *Source) Calls() int64 {
	return s.calls
}

// Float01 returns a float in [0, 1).
func (s *Source) Float01() float64 {
	s.calls++
	return s.rng.Float64()
}

// FloatRange returns min + (max-min)*Float01(). Callers pass min <= max.
func (s *Source) FloatRange(min, max float64) float64 {
	return min + (max-min)*s.Float01()
}

// IntRange returns an int in [min, max], both bounds inclusive.
// If max < min, min is returned (the draw is still counted).
func (s *Source) IntRange(min, max int) int {
	s.calls++
	if max <= min {
		return min
	}
	return min + s.rng.IntN(max-min+1)
}

// Bool returns true with probability pTrue.
func (s *Source) Bool(pTrue float64) bool {
	return s.Float01() < pTrue
}
