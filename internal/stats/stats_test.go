package stats

import (
	"math"
	"testing"
)

func TestNanMean(t *testing.T) {
	nan := math.NaN()

	mean, ok := NanMean([]float64{1, 2, 3})
	if !ok || mean != 2 {
		t.Fatalf("NanMean = %v, %v", mean, ok)
	}

	mean, ok = NanMean([]float64{2, nan, 4})
	if !ok || mean != 3 {
		t.Fatalf("NanMean with NaN = %v, %v", mean, ok)
	}

	if _, ok := NanMean([]float64{nan, nan}); ok {
		t.Fatal("all-NaN should not be ok")
	}
	if _, ok := NanMean(nil); ok {
		t.Fatal("empty should not be ok")
	}
}

func TestNanMinMax(t *testing.T) {
	nan := math.NaN()
	values := []float64{3, nan, -7, 12, nan}

	minVal, ok := NanMin(values)
	if !ok || minVal != -7 {
		t.Fatalf("NanMin = %v, %v", minVal, ok)
	}
	maxVal, ok := NanMax(values)
	if !ok || maxVal != 12 {
		t.Fatalf("NanMax = %v, %v", maxVal, ok)
	}

	if _, ok := NanMin([]float64{nan}); ok {
		t.Fatal("all-NaN min should not be ok")
	}
	if _, ok := NanMax(nil); ok {
		t.Fatal("empty max should not be ok")
	}
}
