package diag

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/model"
	"github.com/arloliu/mixfit/regress"
)

// PreviewRow compares one coefficient between the current fit and the
// previewed refit. NaN fills the side where the variable does not exist.
type PreviewRow struct {
	Variable       string
	OldCoefficient float64
	OldTStat       float64
	NewCoefficient float64
	NewTStat       float64
}

// Preview lays the current fit and a hypothetical refit side by side.
// Rows run intercept first, then the current features in model order,
// then any added variables.
type Preview struct {
	Rows        []PreviewRow
	OldRSquared float64
	NewRSquared float64
}

// PreviewAdd refits the current features plus the named variables and
// returns old and new coefficients side by side, leaving the model
// untouched. rates, when non-nil, must pair one to one with variables;
// a nonzero rate previews the adstock-carried candidate under its
// derived name. The preview is an ordinary least-squares refit: fixed
// coefficients are not reapplied, so a pinned model previews its
// unconstrained shape.
func (s *Screener) PreviewAdd(m *model.Model, variables []string, rates []float64) (*Preview, error) {
	if rates != nil && len(rates) != len(variables) {
		return nil, fmt.Errorf("%w: %d variables with %d adstock rates",
			errs.ErrLengthMismatch, len(variables), len(rates))
	}

	features := m.Features()
	cols := make([][]float64, 0, len(features)+len(variables))
	for _, f := range features {
		col, err := m.TransformedColumn(f)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	added := make([]string, 0, len(variables))
	for i, variable := range variables {
		if !m.HasColumn(variable) {
			return nil, fmt.Errorf("%w: %q", errs.ErrColumnNotFound, variable)
		}
		if variable == m.Target() {
			return nil, fmt.Errorf("%w: %q", errs.ErrTargetAsFeature, variable)
		}
		var rate float64
		if rates != nil {
			rate = rates[i]
		}
		name, col, err := s.candidateColumn(m, variable, rate)
		if err != nil {
			return nil, err
		}
		if m.HasFeature(name) || slices.Contains(added, name) {
			return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateFeature, name)
		}
		added = append(added, name)
		cols = append(cols, col)
	}

	newFit, err := regress.Fit(m.TargetColumn(), cols, regress.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("preview fit: %w", err)
	}

	old := m.FitResult()
	rows := make([]PreviewRow, 0, 1+len(features)+len(added))
	rows = append(rows, PreviewRow{
		Variable:       model.InterceptName,
		OldCoefficient: old.Coefficients[0],
		OldTStat:       old.TStats[0],
		NewCoefficient: newFit.Coefficients[0],
		NewTStat:       newFit.TStats[0],
	})
	for j, f := range features {
		rows = append(rows, PreviewRow{
			Variable:       f,
			OldCoefficient: old.Coefficients[1+j],
			OldTStat:       old.TStats[1+j],
			NewCoefficient: newFit.Coefficients[1+j],
			NewTStat:       newFit.TStats[1+j],
		})
	}
	for j, name := range added {
		k := 1 + len(features) + j
		rows = append(rows, PreviewRow{
			Variable:       name,
			OldCoefficient: math.NaN(),
			OldTStat:       math.NaN(),
			NewCoefficient: newFit.Coefficients[k],
			NewTStat:       newFit.TStats[k],
		})
	}

	return &Preview{Rows: rows, OldRSquared: old.RSquared, NewRSquared: newFit.RSquared}, nil
}

// PreviewRemove refits without the named features and returns old and
// new coefficients side by side, leaving the model untouched. Every
// name must be a current feature; removing them all previews the
// intercept-only baseline. The refit is ordinary least squares, as in
// PreviewAdd.
func (s *Screener) PreviewRemove(m *model.Model, variables []string) (*Preview, error) {
	remove := make(map[string]bool, len(variables))
	for _, variable := range variables {
		if !m.HasFeature(variable) {
			return nil, fmt.Errorf("%w: %q", errs.ErrFeatureNotFound, variable)
		}
		remove[variable] = true
	}

	features := m.Features()
	cols := make([][]float64, 0, len(features))
	newIdx := make(map[string]int, len(features))
	for _, f := range features {
		if remove[f] {
			continue
		}
		col, err := m.TransformedColumn(f)
		if err != nil {
			return nil, err
		}
		newIdx[f] = len(cols) + 1 // intercept first
		cols = append(cols, col)
	}

	newFit, err := regress.Fit(m.TargetColumn(), cols, regress.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("preview fit: %w", err)
	}

	old := m.FitResult()
	rows := make([]PreviewRow, 0, 1+len(features))
	rows = append(rows, PreviewRow{
		Variable:       model.InterceptName,
		OldCoefficient: old.Coefficients[0],
		OldTStat:       old.TStats[0],
		NewCoefficient: newFit.Coefficients[0],
		NewTStat:       newFit.TStats[0],
	})
	for j, f := range features {
		row := PreviewRow{
			Variable:       f,
			OldCoefficient: old.Coefficients[1+j],
			OldTStat:       old.TStats[1+j],
			NewCoefficient: math.NaN(),
			NewTStat:       math.NaN(),
		}
		if k, ok := newIdx[f]; ok {
			row.NewCoefficient = newFit.Coefficients[k]
			row.NewTStat = newFit.TStats[k]
		}
		rows = append(rows, row)
	}

	return &Preview{Rows: rows, OldRSquared: old.RSquared, NewRSquared: newFit.RSquared}, nil
}
