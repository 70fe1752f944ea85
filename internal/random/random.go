// Package random holds the process-wide pseudo-random source used by belief sampling, UCB
// tie-breaking, opponent-hypothesis action sampling, and any stochastic environment transition.
// It is seeded once at planner init (see Seed); re-seeding is supported so tests can pin it.
//
// The source is not goroutine-safe: per spec §5 the planner is single-threaded cooperative
// within one Plan call, and callers running multiple planners in the same process must
// serialize or partition seeds externally.
package random

import "math/rand"

var global = rand.New(rand.NewSource(1))

// Seed re-seeds the process-wide source. Tests call this to get a deterministic planner.
func Seed(seed int64) {
	global = rand.New(rand.NewSource(seed))
}

// Float32 returns a pseudo-random float32 in [0, 1) from the process-wide source.
func Float32() float32 {
	return global.Float32()
}

// Intn returns a pseudo-random int in [0, n) from the process-wide source.
func Intn(n int) int {
	return global.Intn(n)
}

// Shared returns the underlying *rand.Rand, for callers (environments, heuristics) that need
// the full math/rand API rather than the small wrapper above.
func Shared() *rand.Rand {
	return global
}
