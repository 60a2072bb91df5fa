package optionlab

import (
	"math"
)

// MaxFloat returns the larger of a and b.
func MaxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// intrinsic is the value of immediate exercise, which may be negative.
func intrinsic(right OptionRight, spot float64, strike float64) float64 {
	if right == Put {
		return strike - spot
	}
	return spot - strike
}

// payoff is the exercise value floored at zero.
func payoff(right OptionRight, spot float64, strike float64) float64 {
	return MaxFloat(0, intrinsic(right, spot, strike))
}

// clampUnit keeps a probability-like value strictly below one and at or
// above zero.
func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x >= 1 {
		return math.Nextafter(1, 0)
	}
	return x
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// nearestIndex returns the grid index at or below value for a grid of
// spacing step, clamped to [0, last].
func nearestIndex(value float64, step float64, last int) int {
	idx := int(value / step)
	if idx < 0 {
		return 0
	}
	if idx > last {
		return last
	}
	return idx
}
