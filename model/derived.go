package model

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/transform"
)

// Derived variables are precomputed columns written back into the shared
// dataset, so every model on that dataset can use them as plain features.
// Creating one again with the same parameters regenerates the column in
// place; if the column is a feature of this model, the model refits.

// CreateAdstockVariable materializes an adstock-carried copy of a column
// and returns its name, "<variable>_adstock_<rate*100>".
func (m *Model) CreateAdstockVariable(variable string, rate float64) (string, error) {
	return m.createDerived(transform.AdstockName(variable, rate), variable, transform.Adstock(rate))
}

// CreateLagVariable materializes a column shifted forward in time by the
// given number of periods and returns its name, "<variable>|LAG <n>". The
// first n rows become NaN.
func (m *Model) CreateLagVariable(variable string, periods int) (string, error) {
	name := fmt.Sprintf("%s|LAG %d", variable, periods)
	return m.createDerived(name, variable, transform.Lag(periods))
}

// CreateLeadVariable materializes a column shifted backward in time by the
// given number of periods and returns its name, "<variable>|LEAD <n>". The
// last n rows become NaN.
func (m *Model) CreateLeadVariable(variable string, periods int) (string, error) {
	name := fmt.Sprintf("%s|LEAD %d", variable, periods)
	return m.createDerived(name, variable, transform.Lead(periods))
}

// CreateSplitVariable materializes a copy of a column zeroed outside
// [start, end] and returns its name, "<variable>|SPLIT <id>". A zero
// bound leaves that side open. An empty id defaults to the bounds as
// "YYYYMMDD-YYYYMMDD", or "split" when both sides are open.
func (m *Model) CreateSplitVariable(variable string, start, end time.Time, id string) (string, error) {
	if id == "" {
		id = splitID(start, end)
	}
	name := fmt.Sprintf("%s|SPLIT %s", variable, id)

	return m.createDerived(name, variable, transform.SplitByDate(start, end))
}

// CreateProductVariable materializes the elementwise product of two
// columns and returns its name, "<a>*<b>|MULT <id>". An empty id defaults
// to "<a>*<b>".
func (m *Model) CreateProductVariable(a, b, id string) (string, error) {
	if !m.data.Has(b) {
		return "", fmt.Errorf("%w: %q", errs.ErrColumnNotFound, b)
	}
	if id == "" {
		id = fmt.Sprintf("%s*%s", a, b)
	}
	name := fmt.Sprintf("%s*%s|MULT %s", a, b, id)

	return m.createDerived(name, a, transform.Product(b))
}

// CreateCurveVariable materializes a curve-transformed copy of a column
// under the conventional curve name, e.g. "TV|ICP a3_b4_g1200", so a
// grid-search winner can join the dataset as a plain column.
func (m *Model) CreateCurveVariable(variable string, tr transform.Transform) (string, error) {
	name, ok := transform.CurveName(variable, tr)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a curve", errs.ErrInvalidTransform, tr.Kind)
	}

	return m.createDerived(name, variable, tr)
}

func (m *Model) createDerived(name, source string, tr transform.Transform) (string, error) {
	if err := tr.Validate(); err != nil {
		return "", err
	}
	if name == m.target {
		return "", fmt.Errorf("%w: %q is the model target", errs.ErrDuplicateColumn, name)
	}
	raw, err := m.data.Column(source)
	if err != nil {
		return "", err
	}

	env := transform.Env{
		Time:   m.data.Index(),
		Logger: m.logger,
		Lookup: func(col string) ([]float64, bool) {
			values, err := m.data.Column(col)
			return values, err == nil
		},
	}
	col := transform.Apply(tr, raw, env)
	if err := m.installColumn(name, col); err != nil {
		return "", err
	}

	m.logger.Debug("derived column created",
		zap.String("column", name), zap.String("transform", tr.String()))

	return name, nil
}

// installColumn writes a computed column into the shared dataset.
// Regenerating a column that is a live feature must leave the fit
// consistent with the new data, or roll the replacement back.
func (m *Model) installColumn(name string, col []float64) error {
	var old []float64
	refitNeeded := m.data.Has(name) && m.HasFeature(name)
	if refitNeeded {
		old, _ = m.data.Column(name)
	}
	if err := m.data.SetColumn(name, col); err != nil {
		return err
	}
	if refitNeeded {
		saved := m.snapshotState()
		if err := m.refit(); err != nil {
			_ = m.data.SetColumn(name, old)
			m.restoreState(saved)
			m.logger.Warn("column regeneration failed, keeping previous data",
				zap.String("model", m.name), zap.String("column", name), zap.Error(err))

			return err
		}

		return nil
	}

	// The windowed view snapshots columns when it is built, so it must be
	// rebuilt for the new column to be visible through WindowColumn. The
	// fit itself is untouched: the feature set did not change.
	if view, err := m.data.Window(m.windowStart, m.windowEnd); err == nil {
		m.view = view
	}

	return nil
}

// splitID renders the default identifier for a split variable.
func splitID(start, end time.Time) string {
	if start.IsZero() && end.IsZero() {
		return "split"
	}
	var s, e string
	if !start.IsZero() {
		s = start.Format("20060102")
	}
	if !end.IsZero() {
		e = end.Format("20060102")
	}

	return s + "-" + e
}
