package valueobject

import "math"

// Clamp01 bounds x to [0,1] and rounds away float noise below 1e-9, so that
// 0.6*0.6+0.4*0.2 compares equal to 0.44.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return math.Round(x*1e9) / 1e9
}

// InUnitInterval reports whether x is a usable score.
func InUnitInterval(x float64) bool {
	return !math.IsNaN(x) && x >= 0 && x <= 1
}
