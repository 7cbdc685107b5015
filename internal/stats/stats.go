// Package stats provides NaN-aware reductions over business series.
// Columns with ragged edges (lag/lead shifts, sparse CSV cells) carry NaN
// markers; these helpers skip them the way the modeling layer expects,
// where a plain gonum reduction would poison the result.
package stats

import "math"

// NanMean returns the mean over non-NaN values. ok is false when no usable
// value exists.
func NanMean(values []float64) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}

	return sum / float64(n), true
}

// NanMin returns the minimum over non-NaN values. ok is false when no
// usable value exists.
func NanMin(values []float64) (minVal float64, ok bool) {
	minVal = math.Inf(1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < minVal {
			minVal = v
			ok = true
		}
	}
	if !ok {
		return 0, false
	}

	return minVal, true
}

// NanMax returns the maximum over non-NaN values. ok is false when no
// usable value exists.
func NanMax(values []float64) (maxVal float64, ok bool) {
	maxVal = math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v > maxVal {
			maxVal = v
			ok = true
		}
	}
	if !ok {
		return 0, false
	}

	return maxVal, true
}
