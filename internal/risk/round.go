package risk

import "math"

// Round3 rounds a score to 3 decimal places using round-half-up. Every
// signal score and the aggregate pass through here so comparisons stay
// deterministic across runs.
func Round3(x float64) float64 {
	return math.Floor(x*1000+0.5) / 1000
}

// clamp01 bounds a score to [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
