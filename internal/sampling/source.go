// Package sampling draws incident locations, times and severities from an
// explicit seeded random source. No function here touches global random state.
package sampling

import (
	"math/rand/v2"
)

// Source is the random stream threaded through every sampler.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// pcgStream is the fixed second PCG word so a single int64 seed fully
// determines the stream
const pcgStream = 0x9e3779b97f4a7c15

// NewSource returns a deterministic source for seed
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

// drawIndex picks an index with probability proportional to weights.
// weights must be non-empty with a positive sum.
func drawIndex(src Source, weights []float64, total float64) int {
	u := src.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	// roundoff can leave u == total
	return len(weights) - 1
}
