package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/errs"
)

// significanceT is the |t| threshold for including a component when
// building a weighted variable from a fit, roughly 90% confidence.
const significanceT = 1.645

// WeightedVariable describes a composite column built as a weighted sum
// of raw dataset columns. The column itself lives in the dataset under
// "<BaseName>|WGTD"; this record keeps the recipe so the column can be
// rebuilt and its contribution split back over the components.
type WeightedVariable struct {
	BaseName   string             `json:"base_name"`
	Components map[string]float64 `json:"components"`
}

// Name returns the dataset column name of the weighted variable.
func (w WeightedVariable) Name() string {
	return w.BaseName + "|WGTD"
}

// SignFilter selects which coefficients qualify as components when a
// weighted variable is built from a fit.
type SignFilter int

const (
	// SignMixed accepts significant coefficients of either sign.
	SignMixed SignFilter = iota
	// SignPositive accepts only significant positive coefficients.
	SignPositive
	// SignNegative accepts only significant negative coefficients.
	SignNegative
)

var signFilterNames = map[SignFilter]string{
	SignMixed:    "mix",
	SignPositive: "pos",
	SignNegative: "neg",
}

func (s SignFilter) String() string {
	if name, ok := signFilterNames[s]; ok {
		return name
	}

	return fmt.Sprintf("SignFilter(%d)", int(s))
}

// SignFilterFromString parses a sign filter name, case-insensitively.
// Unknown names return SignFilter(-1).
func SignFilterFromString(s string) SignFilter {
	switch strings.ToLower(s) {
	case "mix", "mixed":
		return SignMixed
	case "pos", "positive":
		return SignPositive
	case "neg", "negative":
		return SignNegative
	default:
		return SignFilter(-1)
	}
}

func (s SignFilter) admits(coef float64) bool {
	switch s {
	case SignPositive:
		return coef > 0
	case SignNegative:
		return coef < 0
	default:
		return true
	}
}

// CreateWeightedVariable materializes the column sum(weight * raw column)
// over the full dataset under "<base>|WGTD", records the recipe, and
// returns the column name. Every component must be a dataset column with
// a finite weight.
func (m *Model) CreateWeightedVariable(base string, components map[string]float64) (string, error) {
	if base == "" {
		return "", errs.ErrEmptyColumnName
	}
	if len(components) == 0 {
		return "", errs.ErrNoComponents
	}

	names := make([]string, 0, len(components))
	for comp, weight := range components {
		if !finite(weight) {
			return "", fmt.Errorf("%w: weight for %q", errs.ErrNonFiniteValue, comp)
		}
		if !m.data.Has(comp) {
			return "", fmt.Errorf("%w: component %q", errs.ErrColumnNotFound, comp)
		}
		names = append(names, comp)
	}
	// Summation order must not depend on map iteration.
	sort.Strings(names)

	w := WeightedVariable{BaseName: base, Components: components}
	name := w.Name()
	if name == m.target {
		return "", fmt.Errorf("%w: %q is the model target", errs.ErrDuplicateColumn, name)
	}

	col := make([]float64, m.data.Len())
	for _, comp := range names {
		values, err := m.data.Column(comp)
		if err != nil {
			return "", err
		}
		weight := components[comp]
		for i, v := range values {
			col[i] += weight * v
		}
	}

	if err := m.installColumn(name, col); err != nil {
		return "", err
	}

	stored := make(map[string]float64, len(components))
	for comp, weight := range components {
		stored[comp] = weight
	}
	m.weighted[name] = WeightedVariable{BaseName: base, Components: stored}

	m.logger.Debug("weighted column created",
		zap.String("column", name), zap.Int("components", len(stored)))

	return name, nil
}

// CreateWeightedFromFit builds a weighted variable from the model's own
// fit: each feature whose coefficient passes the significance threshold
// and the sign filter becomes a component, weighted by that coefficient
// over its raw column. Returns the created column name.
func (m *Model) CreateWeightedFromFit(base string, filter SignFilter) (string, error) {
	components := make(map[string]float64, len(m.features))
	for j, feature := range m.features {
		coef := m.fit.Coefficients[1+j]
		t := m.fit.TStats[1+j]
		if math.IsNaN(t) || math.Abs(t) <= significanceT {
			continue
		}
		if !filter.admits(coef) {
			continue
		}
		components[feature] = coef
	}
	if len(components) == 0 {
		return "", fmt.Errorf("%w: no significant %s coefficients", errs.ErrNoComponents, filter)
	}

	return m.CreateWeightedVariable(base, components)
}

// WeightedVariables returns a copy of every weighted-variable recipe,
// keyed by column name.
func (m *Model) WeightedVariables() map[string]WeightedVariable {
	out := make(map[string]WeightedVariable, len(m.weighted))
	for name, w := range m.weighted {
		components := make(map[string]float64, len(w.Components))
		for comp, weight := range w.Components {
			components[comp] = weight
		}
		out[name] = WeightedVariable{BaseName: w.BaseName, Components: components}
	}

	return out
}

// WeightedVariable returns the recipe behind a weighted column.
func (m *Model) WeightedVariable(name string) (WeightedVariable, bool) {
	w, ok := m.weighted[name]
	return w, ok
}
