// Package entropy provides the run's deterministic random source.
// One instance is seeded at run start and threaded explicitly through
// scenario load and agent decisions; nothing touches a global generator,
// so two runs with the same seed draw identical streams.
package entropy

import "math/rand"

// Source is a seeded pseudorandom stream.
type Source struct {
	seed int64
	rng  *rand.Rand
}

// NewSource creates a stream from a seed.
func NewSource(seed int64) *Source {
	return &Source{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed this source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Derive returns an independent stream at a fixed offset from the base
// seed. Subsystems take derived streams so their draw counts cannot
// perturb each other.
func (s *Source) Derive(offset int64) *Source {
	return NewSource(s.seed + offset)
}

// Float returns a float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Intn returns an int in [0, n).
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}
