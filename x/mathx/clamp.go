package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v && v <= hi (order-insensitive).
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// Pow10 returns 10^e for small exponents as float32.
func Pow10(e int8) float32 {
	return float32(math.Pow10(int(e)))
}

// RoundTo rounds v to the nearest multiple of 10^e. Used to keep stepped
// float values on their decimal grid.
func RoundTo(v float32, e int8) float32 {
	s := math.Pow10(int(-e))
	return float32(math.Round(float64(v)*s) / s)
}
