package transform

import (
	"math"
	"slices"

	"github.com/arloliu/mixfit/internal/options"
	"github.com/arloliu/mixfit/internal/stats"
)

type gammaConfig struct {
	wide bool
}

// GammaOption configures gamma candidate generation.
type GammaOption = options.Option[*gammaConfig]

// WithWideSpan extends the gamma span to 40%-130% of the column maximum,
// useful when the default span saturates every candidate curve.
func WithWideSpan() GammaOption {
	return options.NoError(func(cfg *gammaConfig) {
		cfg.wide = true
	})
}

// GammaCandidates derives curve half-saturation candidates from the
// distribution of a raw column. The default span runs from 30% of the mean
// to 60% of the maximum, spaced non-linearly (denser near the low end,
// where response curves are most sensitive) and rounded to the magnitude
// of the values so candidates read naturally in reports. Duplicates after
// rounding collapse; the result is ascending.
//
// Columns without usable values (or a non-positive maximum) yield nil.
func GammaCandidates(values []float64, count int, opts ...GammaOption) []float64 {
	cfg := &gammaConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil
	}
	if count < 1 {
		return nil
	}

	mean, ok := stats.NanMean(values)
	maxVal, maxOK := stats.NanMax(values)
	if !ok || !maxOK || maxVal <= 0 {
		return nil
	}

	minGamma := 0.3 * mean
	maxGamma := 0.6 * maxVal
	if cfg.wide {
		minGamma = 0.4 * maxVal
		maxGamma = 1.3 * maxVal
	}
	if minGamma <= 0 || maxGamma <= minGamma {
		minGamma = 0.1 * maxVal
		maxGamma = maxVal
	}

	seen := make(map[float64]struct{}, count)
	candidates := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		factor := 0.0
		if count > 1 {
			factor = math.Pow(float64(i)/float64(count-1), 1.5)
		}
		gamma := roundGamma(minGamma + factor*(maxGamma-minGamma))
		if gamma <= 0 {
			continue
		}
		if _, dup := seen[gamma]; dup {
			continue
		}
		seen[gamma] = struct{}{}
		candidates = append(candidates, gamma)
	}
	slices.Sort(candidates)

	return candidates
}

// roundGamma rounds to the magnitude of the value: thousands above 10000,
// hundreds above 1000, tens above 100, one decimal place below.
func roundGamma(g float64) float64 {
	switch {
	case g > 10000:
		return math.Round(g/1000) * 1000
	case g > 1000:
		return math.Round(g/100) * 100
	case g > 100:
		return math.Round(g/10) * 10
	default:
		return math.Round(g*10) / 10
	}
}
