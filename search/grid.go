package search

import (
	"fmt"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/transform"
)

// Grid spans the curve-parameter combinations a scan evaluates: the full
// cross product of Alphas, Betas, and Gammas. Leaving Gammas empty
// derives GammaCount candidates from the scanned variable's distribution.
type Grid struct {
	Kind       transform.Kind
	Alphas     []float64
	Betas      []float64
	Gammas     []float64
	GammaCount int
}

// DefaultGammaCount is the number of gamma candidates derived from the
// variable when the grid does not list explicit gammas.
const DefaultGammaCount = 10

// ICPGrid returns the standard ICP scan grid.
func ICPGrid() Grid {
	return Grid{
		Kind:       transform.KindICP,
		Alphas:     []float64{3, 4},
		Betas:      []float64{3, 4, 5},
		GammaCount: DefaultGammaCount,
	}
}

// ADBUGGrid returns the standard ADBUG scan grid.
func ADBUGGrid() Grid {
	return Grid{
		Kind:       transform.KindADBUG,
		Alphas:     []float64{0.8, 0.9, 1.0},
		Betas:      []float64{2, 3, 4},
		GammaCount: DefaultGammaCount,
	}
}

// expand enumerates the grid as validated transforms in alpha, beta,
// gamma nesting order. The variable's values seed gamma derivation when
// the grid carries none.
func (g Grid) expand(values []float64) ([]transform.Transform, error) {
	var build func(alpha, beta, gamma float64) transform.Transform
	switch g.Kind {
	case transform.KindICP:
		build = transform.ICP
	case transform.KindADBUG:
		build = transform.ADBUG
	default:
		return nil, fmt.Errorf("%w: %s is not a curve kind", errs.ErrInvalidTransform, g.Kind)
	}
	if len(g.Alphas) == 0 || len(g.Betas) == 0 {
		return nil, fmt.Errorf("%w: empty alpha or beta grid", errs.ErrInvalidTransform)
	}

	gammas := g.Gammas
	if len(gammas) == 0 {
		count := g.GammaCount
		if count <= 0 {
			count = DefaultGammaCount
		}
		gammas = transform.GammaCandidates(values, count)
		if len(gammas) == 0 {
			return nil, fmt.Errorf("%w: no usable values to derive gamma candidates",
				errs.ErrInsufficientData)
		}
	}

	out := make([]transform.Transform, 0, len(g.Alphas)*len(g.Betas)*len(gammas))
	for _, alpha := range g.Alphas {
		for _, beta := range g.Betas {
			for _, gamma := range gammas {
				tr := build(alpha, beta, gamma)
				if err := tr.Validate(); err != nil {
					return nil, err
				}
				out = append(out, tr)
			}
		}
	}

	return out, nil
}
