package core

import "math"

// Undefined is the marker for a metric that cannot be computed from the data.
func Undefined() float64 {
	return math.NaN()
}

// IsDefined reports whether v carries a usable value.
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Ratio divides num by den, returning Undefined when either side is
// undefined or den is zero.
func Ratio(num, den float64) float64 {
	if !IsDefined(num) || !IsDefined(den) || den == 0 {
		return Undefined()
	}
	return num / den
}

// CountRatio is Ratio over integer counts.
func CountRatio(num, den int) float64 {
	if den == 0 {
		return Undefined()
	}
	return float64(num) / float64(den)
}

// Log10Ratio returns log10(num/den); both operands must be defined and positive.
func Log10Ratio(num, den float64) float64 {
	if !IsDefined(num) || !IsDefined(den) || num <= 0 || den <= 0 {
		return Undefined()
	}
	return math.Log10(num / den)
}

// Sum adds two values, propagating Undefined.
func Sum(a, b float64) float64 {
	if !IsDefined(a) || !IsDefined(b) {
		return Undefined()
	}
	return a + b
}
