// Package regress implements the ordinary-least-squares engine behind every
// model fit: normal equations over a dense design matrix, classical
// inference statistics (standard errors, t-stats, two-tailed p-values, F),
// and listwise deletion of rows with missing values.
//
// The solver is deliberately strict: a singular (or numerically
// uninvertible) X'X reports errs.ErrSingularDesign instead of falling back
// to a pseudo-inverse, so callers running candidate batches can drop the
// offending design and continue.
package regress

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/options"
)

// Config holds fitting configuration.
type Config struct {
	intercept bool
	logger    *zap.Logger
}

// Option is a functional option for Fit.
type Option = options.Option[*Config]

// WithoutIntercept fits through the origin instead of prepending the
// all-ones intercept column.
func WithoutIntercept() Option {
	return options.NoError(func(cfg *Config) {
		cfg.intercept = false
	})
}

// WithLogger sets the logger receiving fit diagnostics (dropped-row
// counts). The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(cfg *Config) {
		cfg.logger = logger
	})
}

// Fit solves y = Xb by ordinary least squares, where X is the given
// predictor columns with a leading all-ones intercept column (unless
// WithoutIntercept). Rows where y or any predictor is NaN are dropped
// before solving; NObs reports the effective count and Fitted/Residuals
// keep the original row alignment with NaN at dropped rows.
//
// Parameters:
//   - y: target values, one per row
//   - cols: predictor columns, each len(y) long
//   - opts: WithoutIntercept, WithLogger
//
// Returns:
//   - *Result: coefficients (intercept first when present) and statistics
//   - error: errs.ErrLengthMismatch, errs.ErrInsufficientData when fewer
//     usable rows remain than coefficients plus one residual degree of
//     freedom, errs.ErrSingularDesign when X'X cannot be inverted
func Fit(y []float64, cols [][]float64, opts ...Option) (*Result, error) {
	cfg := &Config{intercept: true, logger: zap.NewNop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	rows := len(y)
	for i, col := range cols {
		if len(col) != rows {
			return nil, fmt.Errorf("%w: column %d has %d values, target has %d",
				errs.ErrLengthMismatch, i, len(col), rows)
		}
	}

	valid := validRows(y, cols)
	n := len(valid)
	p := len(cols)
	if cfg.intercept {
		p++
	}
	if p == 0 {
		return nil, fmt.Errorf("%w: no predictors and no intercept", errs.ErrInsufficientData)
	}
	df := n - p
	if df < 1 {
		return nil, fmt.Errorf("%w: %d usable rows for %d coefficients", errs.ErrInsufficientData, n, p)
	}
	if dropped := rows - n; dropped > 0 {
		cfg.logger.Debug("dropped rows with missing values", zap.Int("dropped", dropped), zap.Int("kept", n))
	}

	X := mat.NewDense(n, p, nil)
	yv := mat.NewVecDense(n, nil)
	for r, src := range valid {
		c := 0
		if cfg.intercept {
			X.Set(r, 0, 1)
			c = 1
		}
		for j, col := range cols {
			X.Set(r, c+j, col[src])
		}
		yv.SetVec(r, y[src])
	}

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSingularDesign, err)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), yv)
	var beta mat.VecDense
	beta.MulVec(&inv, &xty)

	coefs := make([]float64, p)
	for j := range coefs {
		coefs[j] = beta.AtVec(j)
	}

	var fittedValid mat.VecDense
	fittedValid.MulVec(X, &beta)

	var rss, ybarSum float64
	for r := 0; r < n; r++ {
		resid := yv.AtVec(r) - fittedValid.AtVec(r)
		rss += resid * resid
		ybarSum += yv.AtVec(r)
	}
	ybar := ybarSum / float64(n)
	var tss float64
	for r := 0; r < n; r++ {
		dev := yv.AtVec(r) - ybar
		tss += dev * dev
	}

	sigma2 := rss / float64(df)
	stdErrs := make([]float64, p)
	tStats := make([]float64, p)
	pValues := make([]float64, p)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	for j := 0; j < p; j++ {
		stdErrs[j] = math.Sqrt(sigma2 * inv.At(j, j))
		tStats[j] = coefs[j] / stdErrs[j]
		pValues[j] = 2 * tdist.Survival(math.Abs(tStats[j]))
	}

	rSquared := 1 - rss/tss
	adjRSquared := 1 - (1-rSquared)*float64(n-1)/float64(df)

	fStat := math.NaN()
	fPValue := math.NaN()
	if k := p - 1; cfg.intercept && k >= 1 {
		fStat = ((tss - rss) / float64(k)) / (rss / float64(df))
		fdist := distuv.F{D1: float64(k), D2: float64(df)}
		fPValue = fdist.Survival(fStat)
	}

	fitted := make([]float64, rows)
	residuals := make([]float64, rows)
	for i := range fitted {
		fitted[i] = math.NaN()
		residuals[i] = math.NaN()
	}
	for r, src := range valid {
		fitted[src] = fittedValid.AtVec(r)
		residuals[src] = y[src] - fitted[src]
	}

	return &Result{
		Coefficients: coefs,
		StdErrors:    stdErrs,
		TStats:       tStats,
		PValues:      pValues,
		RSquared:     rSquared,
		AdjRSquared:  adjRSquared,
		FStatistic:   fStat,
		FPValue:      fPValue,
		NObs:         n,
		DF:           df,
		Intercept:    cfg.intercept,
		Fitted:       fitted,
		Residuals:    residuals,
	}, nil
}

// validRows returns the indices of rows where y and every column hold
// usable values.
func validRows(y []float64, cols [][]float64) []int {
	valid := make([]int, 0, len(y))
rows:
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		for _, col := range cols {
			if math.IsNaN(col[i]) {
				continue rows
			}
		}
		valid = append(valid, i)
	}

	return valid
}
