package preprocess

import (
	"math"
	"sort"
)

// defined filters out NaN entries.
func defined(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// median returns the median of the defined values, or NaN when none exist.
func median(values []float64) float64 {
	vals := defined(values)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// quantile computes the p-quantile of the defined values using linear
// interpolation between order statistics. Returns NaN when no values are
// defined.
func quantile(values []float64, p float64) float64 {
	vals := defined(values)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)

	if len(vals) == 1 {
		return vals[0]
	}

	pos := p * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo]
	}
	frac := pos - float64(lo)
	return vals[lo] + frac*(vals[hi]-vals[lo])
}

// minMax returns the smallest and largest defined values. Both are NaN when
// the column has no defined values.
func minMax(values []float64) (float64, float64) {
	lo, hi := math.NaN(), math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(lo) || v < lo {
			lo = v
		}
		if math.IsNaN(hi) || v > hi {
			hi = v
		}
	}
	return lo, hi
}

// clamp limits v to [lo, hi], passing NaN through untouched.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
