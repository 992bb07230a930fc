// internal/spintax/variation.go
package spintax

import "math/rand"

// NextVariation picks a template variation index in [0,count). When last is
// set it is excluded, so two consecutive sends never reuse a variation.
// A single-variation campaign (count == 1) always returns 0.
func NextVariation(rng *rand.Rand, last *int, count int) int {
	if count <= 1 {
		return 0
	}
	if last == nil || *last < 0 || *last >= count {
		return rng.Intn(count)
	}
	n := rng.Intn(count - 1)
	if n >= *last {
		n++
	}
	return n
}
