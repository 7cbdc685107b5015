// Package search evaluates grids of curve parameters against a fitted
// model. Each (alpha, beta, gamma) combination becomes a candidate
// column; the engine fits the model's current features plus the
// candidate and reports how much the candidate adds. Scans read model
// state once up front and never mutate it, so candidates evaluate in
// parallel.
package search

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/options"
	"github.com/arloliu/mixfit/internal/pool"
	"github.com/arloliu/mixfit/model"
	"github.com/arloliu/mixfit/regress"
	"github.com/arloliu/mixfit/transform"
)

// Engine runs curve-parameter scans with a bounded worker pool.
type Engine struct {
	workers int
	logger  *zap.Logger
}

// Option configures an Engine.
type Option = options.Option[*Engine]

// WithWorkers caps the number of candidates evaluated concurrently.
// The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return options.New(func(e *Engine) error {
		if n < 1 {
			return fmt.Errorf("workers must be positive, got %d", n)
		}
		e.workers = n

		return nil
	})
}

// WithLogger sets the logger for scan progress and dropped candidates.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(e *Engine) { e.logger = logger })
}

// New creates a scan engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
	}
	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

// Scan evaluates every grid combination as a candidate addition to the
// model and returns the surviving candidates ordered by |t| descending,
// ties broken by name. Candidates whose fit fails (singular design, too
// few rows) are logged and dropped; they never abort the scan. The scan
// itself fails only on invalid input, an unusable base fit, or context
// cancellation.
func (e *Engine) Scan(ctx context.Context, m *model.Model, variable string, grid Grid) ([]Result, error) {
	if !m.HasColumn(variable) {
		return nil, fmt.Errorf("%w: %q", errs.ErrColumnNotFound, variable)
	}
	if variable == m.Target() {
		return nil, fmt.Errorf("%w: %q", errs.ErrTargetAsFeature, variable)
	}

	values, err := m.WindowColumn(variable)
	if err != nil {
		return nil, err
	}
	candidates, err := grid.expand(values)
	if err != nil {
		return nil, err
	}

	// Snapshot everything the workers need; the model is not touched
	// after this point.
	y := m.TargetColumn()
	features := m.Features()
	baseCols := make([][]float64, len(features))
	for i, f := range features {
		col, err := m.TransformedColumn(f)
		if err != nil {
			return nil, err
		}
		baseCols[i] = col
	}

	base, err := regress.Fit(y, baseCols)
	if err != nil {
		return nil, fmt.Errorf("base fit: %w", err)
	}

	e.logger.Debug("scanning curve grid",
		zap.String("variable", variable),
		zap.String("kind", grid.Kind.String()),
		zap.Int("candidates", len(candidates)))

	workers := e.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	results := make([]*Result, len(candidates))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = e.evaluate(variable, y, baseCols, values, candidates[idx], base.RSquared)
			}
		}()
	}

feed:
	for i := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, compareResults)

	return out, nil
}

// evaluate fits one candidate. A nil return means the candidate was
// dropped.
func (e *Engine) evaluate(variable string, y []float64, baseCols [][]float64, values []float64, tr transform.Transform, baseR2 float64) *Result {
	curve, err := transform.NewCurve(tr.Kind, tr.Alpha, tr.Beta, tr.Gamma)
	if err != nil {
		return nil
	}
	name, _ := transform.CurveName(variable, tr)

	col, release := pool.GetFloat64Slice(len(values))
	defer release()
	for i, x := range values {
		col[i] = curve.Value(x)
	}

	cols := make([][]float64, len(baseCols)+1)
	copy(cols, baseCols)
	cols[len(baseCols)] = col

	fit, err := regress.Fit(y, cols)
	if err != nil {
		e.logger.Warn("candidate dropped",
			zap.String("candidate", name), zap.Error(err))

		return nil
	}

	// The candidate coefficient sits last: [intercept, base..., candidate].
	k := len(cols)
	switchPoint := math.NaN()
	if icp, ok := curve.(*transform.ICPCurve); ok {
		if x, defined := icp.SwitchPoint(); defined {
			switchPoint = x
		}
	}

	return &Result{
		Name:             name,
		Variable:         variable,
		Transform:        tr,
		Coefficient:      fit.Coefficients[k],
		TStat:            fit.TStats[k],
		PValue:           fit.PValues[k],
		RSquaredIncrease: fit.RSquared - baseR2,
		SwitchPoint:      switchPoint,
	}
}

// compareResults orders by |t| descending with NaN last, then by name.
func compareResults(a, b Result) int {
	at, bt := math.Abs(a.TStat), math.Abs(b.TStat)
	switch {
	case at > bt, math.IsNaN(bt) && !math.IsNaN(at):
		return -1
	case bt > at, math.IsNaN(at) && !math.IsNaN(bt):
		return 1
	default:
		return strings.Compare(a.Name, b.Name)
	}
}
