package systems

import (
	"math"
	"math/rand"
)

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// squash maps an unbounded action level onto [0, 1] through tanh.
func squash(level float32) float32 {
	return float32((math.Tanh(float64(level)) + 1) / 2)
}

// responseCurve shapes responsiveness so that low settings damp actions
// strongly while settings near 1 pass them through almost unchanged. k
// controls how sharp the knee is.
func responseCurve(r, k float64) float32 {
	return float32(math.Pow(2-r, -2*k) - math.Pow(2, -2*k)*(1-r))
}

// chance returns true with probability p.
func chance(rng *rand.Rand, p float32) bool {
	return rng.Float64() < float64(p)
}
