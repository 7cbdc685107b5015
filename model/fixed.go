package model

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/regress"
)

// SetFixedCoefficient pins a coefficient to a prescribed value and refits
// the remaining coefficients around it. The name is either a current
// feature or InterceptName. Fixing and later unfixing every coefficient
// reproduces the unconstrained fit exactly.
func (m *Model) SetFixedCoefficient(name string, value float64) error {
	if !finite(value) {
		return fmt.Errorf("%w: fixed value for %q", errs.ErrNonFiniteValue, name)
	}
	if name != InterceptName && !m.HasFeature(name) {
		return fmt.Errorf("%w: %q", errs.ErrFeatureNotFound, name)
	}

	saved := m.snapshotState()
	m.fixed[name] = value
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		m.logger.Warn("fixing coefficient failed, keeping previous fit",
			zap.String("model", m.name), zap.String("name", name), zap.Error(err))

		return err
	}

	return nil
}

// UnsetFixedCoefficient releases a pinned coefficient so the next fit
// estimates it again.
func (m *Model) UnsetFixedCoefficient(name string) error {
	if _, ok := m.fixed[name]; !ok {
		return fmt.Errorf("%w: %q", errs.ErrNotFixed, name)
	}

	saved := m.snapshotState()
	delete(m.fixed, name)
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		return err
	}

	return nil
}

// fitConstrained estimates the free coefficients with the fixed ones
// subtracted out of the target, then assembles a canonical result over
// the full coefficient vector [intercept, features...].
//
// The free sub-fit runs on adjusted = y - sum(fixed coef * column) - fixed
// intercept. NaN in any fixed column propagates into adjusted, so the
// sub-fit's row filtering matches the full model's. Fixed entries report
// NaN standard errors and t statistics; free entries keep the sub-fit's.
// The F statistic is not defined for a constrained fit and reports NaN.
func (m *Model) fitConstrained(y []float64, transformed map[string][]float64) (*regress.Result, error) {
	n := len(y)
	pFull := 1 + len(m.features)

	fixedIntercept, interceptFixed := m.fixed[InterceptName]

	var (
		freeFeatures []string
		freeCols     [][]float64
	)
	for _, f := range m.features {
		if _, ok := m.fixed[f]; !ok {
			freeFeatures = append(freeFeatures, f)
			freeCols = append(freeCols, transformed[f])
		}
	}

	adjusted := make([]float64, n)
	copy(adjusted, y)
	for f, coef := range m.fixed {
		if f == InterceptName {
			continue
		}
		col := transformed[f]
		for i := range adjusted {
			adjusted[i] -= coef * col[i]
		}
	}
	if interceptFixed {
		for i := range adjusted {
			adjusted[i] -= fixedIntercept
		}
	}

	coefs := make([]float64, pFull)
	stderrs := make([]float64, pFull)
	tstats := make([]float64, pFull)
	pvalues := make([]float64, pFull)

	allFixed := len(freeFeatures) == 0 && interceptFixed
	if allFixed {
		// Nothing left to estimate; every slot comes from the prescription.
		for i := range stderrs {
			stderrs[i] = math.NaN()
			tstats[i] = math.NaN()
			pvalues[i] = math.NaN()
		}
		coefs[0] = fixedIntercept
		for j, f := range m.features {
			coefs[1+j] = m.fixed[f]
		}
	} else {
		subOpts := []regress.Option{regress.WithLogger(m.logger)}
		if interceptFixed {
			subOpts = append(subOpts, regress.WithoutIntercept())
		}
		subFit, err := regress.Fit(adjusted, freeCols, subOpts...)
		if err != nil {
			return nil, err
		}

		offset := 0
		if interceptFixed {
			coefs[0] = fixedIntercept
			stderrs[0] = math.NaN()
			tstats[0] = math.NaN()
			pvalues[0] = math.NaN()
		} else {
			coefs[0] = subFit.Coefficients[0]
			stderrs[0] = subFit.StdErrors[0]
			tstats[0] = subFit.TStats[0]
			pvalues[0] = subFit.PValues[0]
			offset = 1
		}

		next := 0
		for j, f := range m.features {
			if coef, ok := m.fixed[f]; ok {
				coefs[1+j] = coef
				stderrs[1+j] = math.NaN()
				tstats[1+j] = math.NaN()
				pvalues[1+j] = math.NaN()

				continue
			}
			k := offset + next
			coefs[1+j] = subFit.Coefficients[k]
			stderrs[1+j] = subFit.StdErrors[k]
			tstats[1+j] = subFit.TStats[k]
			pvalues[1+j] = subFit.PValues[k]
			next++
		}
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	for i := range fitted {
		v := coefs[0]
		for j, f := range m.features {
			v += coefs[1+j] * transformed[f][i]
		}
		fitted[i] = v
		residuals[i] = y[i] - v
	}

	// Goodness of fit against the original target, over the rows every
	// column and the target are finite on.
	var (
		nobs int
		rss  float64
		ymu  float64
	)
	for i, r := range residuals {
		if math.IsNaN(r) {
			continue
		}
		nobs++
		rss += r * r
		ymu += y[i]
	}
	df := nobs - pFull
	if df < 1 {
		return nil, fmt.Errorf("%w: %d usable rows for %d coefficients",
			errs.ErrInsufficientData, nobs, pFull)
	}
	ymu /= float64(nobs)

	var tss float64
	for i, r := range residuals {
		if math.IsNaN(r) {
			continue
		}
		d := y[i] - ymu
		tss += d * d
	}

	r2 := math.NaN()
	adjR2 := math.NaN()
	if tss > 0 {
		r2 = 1 - rss/tss
		adjR2 = 1 - (1-r2)*float64(nobs-1)/float64(df)
	}

	m.logger.Debug("constrained fit",
		zap.String("model", m.name),
		zap.Int("fixed", len(m.fixed)),
		zap.Int("free", len(freeFeatures)),
		zap.Float64("r_squared", r2))

	return &regress.Result{
		Coefficients: coefs,
		StdErrors:    stderrs,
		TStats:       tstats,
		PValues:      pvalues,
		RSquared:     r2,
		AdjRSquared:  adjR2,
		FStatistic:   math.NaN(),
		FPValue:      math.NaN(),
		NObs:         nobs,
		DF:           df,
		Intercept:    true,
		Fitted:       fitted,
		Residuals:    residuals,
	}, nil
}
