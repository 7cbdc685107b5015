// Package decomp attributes a fitted model's prediction to named
// contribution groups. Every fitted variable contributes coefficient
// times transformed value at each timestamp; weighted composites are
// apportioned back over their components, MIN/MAX-adjusted variables are
// shifted to a zero baseline with the shift reconciled into the Base
// group, and the resulting group series re-sum to the model's predicted
// values at every timestamp.
package decomp

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/options"
	"github.com/arloliu/mixfit/model"
)

// Reserved column names in decomposition tables.
const (
	ActualColumn    = "Actual"
	PredictedColumn = "Predicted"
	TotalColumn     = "Total"
)

// Table is a time-indexed set of named series, the decomposition output.
// Columns fixes a deterministic order; Series holds the values, all
// aligned with Time.
type Table struct {
	Time    []time.Time
	Columns []string
	Series  map[string][]float64
}

// Column returns a named series and whether it exists.
func (t *Table) Column(name string) ([]float64, bool) {
	s, ok := t.Series[name]
	return s, ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Time) }

// Decomposer computes contribution tables from fitted models.
type Decomposer struct {
	logger *zap.Logger
}

// Option configures a Decomposer.
type Option = options.Option[*Decomposer]

// WithLogger sets the logger for expansion and reconciliation
// diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(d *Decomposer) { d.logger = logger })
}

// New creates a decomposer.
func New(opts ...Option) (*Decomposer, error) {
	d := &Decomposer{logger: zap.NewNop()}
	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// Decompose attributes the model's prediction to contribution groups. A
// nil group map falls back to DefaultGroups. The returned table carries
// Actual, Predicted, and one column per group in sorted order, and the
// group series sum to the predicted series at every timestamp: weighted
// composites are split over their components by signed coefficient
// share, and MIN/MAX adjustment offsets are added back into the Base
// group, which is synthesized at zero when no variable is assigned to
// it.
func (d *Decomposer) Decompose(m *model.Model, groups Groups) (*Table, error) {
	eff := d.effectiveGroups(m, groups)

	contribs, err := contributionSeries(m)
	if err != nil {
		return nil, err
	}
	d.expandWeighted(m, contribs)
	offset, adjusted := applyAdjustments(contribs, eff)

	index := m.WindowIndex()
	grouped := make(map[string][]float64)
	for _, name := range sortedKeys(contribs) {
		group := eff.assignment(name).Group
		dst, ok := grouped[group]
		if !ok {
			dst = make([]float64, len(index))
			grouped[group] = dst
		}
		floats.Add(dst, contribs[name])
	}

	if adjusted > 0 {
		base, ok := grouped[BaseGroup]
		if !ok {
			base = make([]float64, len(index))
			grouped[BaseGroup] = base
		}
		floats.AddConst(offset, base)
		d.logger.Debug("adjustment offsets reconciled into base",
			zap.Int("variables", adjusted), zap.Float64("offset", offset))
	}

	table := &Table{
		Time:    index,
		Columns: make([]string, 0, len(grouped)+2),
		Series:  make(map[string][]float64, len(grouped)+2),
	}
	table.Columns = append(table.Columns, ActualColumn, PredictedColumn)
	table.Series[ActualColumn] = m.TargetColumn()
	table.Series[PredictedColumn] = append([]float64(nil), m.FitResult().Fitted...)
	for _, group := range sortedKeys(grouped) {
		if group == ActualColumn || group == PredictedColumn {
			return nil, fmt.Errorf("%w: group %q collides with a reserved column",
				errs.ErrDuplicateColumn, group)
		}
		table.Columns = append(table.Columns, group)
		table.Series[group] = grouped[group]
	}

	return table, nil
}

// DecomposeVariables attributes the prediction to individual variables
// instead of groups. A non-empty group restricts the table to variables
// effectively assigned to it; the empty string keeps every variable. The
// Total column sums the selected variables. Adjustments shift the
// per-variable series exactly as in Decompose, but the recorded offsets
// are not reintroduced here: they belong to Base, which sits outside a
// drill-down view.
func (d *Decomposer) DecomposeVariables(m *model.Model, groups Groups, group string) (*Table, error) {
	eff := d.effectiveGroups(m, groups)

	contribs, err := contributionSeries(m)
	if err != nil {
		return nil, err
	}
	d.expandWeighted(m, contribs)
	applyAdjustments(contribs, eff)

	names := sortedKeys(contribs)
	if group != "" {
		kept := names[:0]
		for _, name := range names {
			if eff.assignment(name).Group == group {
				kept = append(kept, name)
			}
		}
		if len(kept) == 0 {
			return nil, fmt.Errorf("%w: %q", errs.ErrGroupNotFound, group)
		}
		names = kept
	}

	index := m.WindowIndex()
	total := make([]float64, len(index))
	for _, name := range names {
		floats.Add(total, contribs[name])
	}

	table := &Table{
		Time:    index,
		Columns: make([]string, 0, len(names)+2),
		Series:  make(map[string][]float64, len(names)+2),
	}
	table.Columns = append(table.Columns, ActualColumn)
	table.Series[ActualColumn] = m.TargetColumn()
	for _, name := range names {
		if name == ActualColumn || name == TotalColumn {
			return nil, fmt.Errorf("%w: variable %q collides with a reserved column",
				errs.ErrDuplicateColumn, name)
		}
		table.Columns = append(table.Columns, name)
		table.Series[name] = contribs[name]
	}
	table.Columns = append(table.Columns, TotalColumn)
	table.Series[TotalColumn] = total

	return table, nil
}

// effectiveGroups fills in defaults for a nil map and applies weighted
// component inheritance.
func (d *Decomposer) effectiveGroups(m *model.Model, groups Groups) Groups {
	if groups == nil {
		groups = DefaultGroups(m)
		d.logger.Debug("no group map supplied, using name-inferred defaults",
			zap.String("model", m.Name()), zap.Int("variables", len(groups)))
	}

	return groups.ExpandWeighted(m)
}

// contributionSeries builds coefficient*transformed series for the
// intercept (a constant column) and every feature, keyed by variable
// name.
func contributionSeries(m *model.Model) (map[string][]float64, error) {
	fit := m.FitResult()
	out := make(map[string][]float64, len(fit.Coefficients))

	intercept := make([]float64, len(fit.Fitted))
	for i := range intercept {
		intercept[i] = fit.Coefficients[0]
	}
	out[model.InterceptName] = intercept

	for j, feature := range m.Features() {
		col, err := m.TransformedColumn(feature)
		if err != nil {
			return nil, err
		}
		floats.Scale(fit.Coefficients[1+j], col)
		out[feature] = col
	}

	return out, nil
}

// expandWeighted replaces each weighted composite's contribution with
// per-component shares proportional to the component coefficients. Shares
// are taken over the signed coefficient sum so the component series
// re-sum to exactly the composite's contribution; a composite whose
// coefficients cancel to zero is left in place with a warning.
func (d *Decomposer) expandWeighted(m *model.Model, contribs map[string][]float64) {
	weighted := m.WeightedVariables()
	names := make([]string, 0, len(weighted))
	for name := range weighted {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		series, ok := contribs[name]
		if !ok {
			continue
		}
		w := weighted[name]

		var total float64
		components := make([]string, 0, len(w.Components))
		for component, coef := range w.Components {
			total += coef
			components = append(components, component)
		}
		if total == 0 {
			d.logger.Warn("weighted variable left unexpanded: component coefficients sum to zero",
				zap.String("variable", name))
			continue
		}
		sort.Strings(components)

		delete(contribs, name)
		for _, component := range components {
			dst, ok := contribs[component]
			if !ok {
				dst = make([]float64, len(series))
				contribs[component] = dst
			}
			floats.AddScaled(dst, w.Components[component]/total, series)
		}
	}
}

// applyAdjustments shifts MIN/MAX-adjusted series in place and returns
// the summed offsets and how many variables were shifted. NaN rows are
// ignored when taking the extremum and stay NaN after the shift.
func applyAdjustments(contribs map[string][]float64, groups Groups) (offset float64, adjusted int) {
	for _, name := range sortedKeys(contribs) {
		series := contribs[name]
		var scalar float64
		var ok bool
		switch groups.assignment(name).Adjustment {
		case AdjustMin:
			scalar, ok = seriesMin(series)
		case AdjustMax:
			scalar, ok = seriesMax(series)
		default:
			continue
		}
		if !ok {
			continue
		}
		floats.AddConst(-scalar, series)
		offset += scalar
		adjusted++
	}

	return offset, adjusted
}

// seriesMin returns the smallest non-NaN value; ok is false when the
// series has none.
func seriesMin(s []float64) (mn float64, ok bool) {
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if !ok || v < mn {
			mn, ok = v, true
		}
	}

	return mn, ok
}

func seriesMax(s []float64) (mx float64, ok bool) {
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if !ok || v > mx {
			mx, ok = v, true
		}
	}

	return mx, ok
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
