// Package model maintains fitted marketing-mix models: an ordered feature
// list over a dataset, one transform per feature, optional fixed
// coefficient overrides, and an always-consistent current fit.
//
// Every mutating operation follows the same discipline: validate inputs
// before touching anything, apply the change, refit, and on refit failure
// roll the model back to its previous state. Callers therefore never
// observe a partially mutated or unfitted model; the last good fit
// survives numerical failures such as a singular design.
package model

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/dataset"
	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/options"
	"github.com/arloliu/mixfit/internal/stats"
	"github.com/arloliu/mixfit/regress"
	"github.com/arloliu/mixfit/transform"
)

// InterceptName keys the intercept in coefficient maps and fixed-coefficient
// operations.
const InterceptName = "intercept"

// Model is a named regression model over a dataset: target, ordered
// features with one transform each, optional fixed coefficients, and the
// current fit. Models are not safe for concurrent mutation; the registry
// assumes one logical writer per model.
type Model struct {
	name   string
	data   *dataset.Dataset
	target string

	windowStart time.Time
	windowEnd   time.Time

	features   []string
	transforms map[string]transform.Transform
	fixed      map[string]float64
	weighted   map[string]WeightedVariable

	// view is the windowed slice of data the current fit was computed on;
	// transformed holds each feature's transformed column over that view.
	view        *dataset.Dataset
	transformed map[string][]float64
	fit         *regress.Result

	resolver TransformResolver
	logger   *zap.Logger
}

// Option configures a Model at construction.
type Option = options.Option[*Model]

// WithLogger sets the logger for transform warnings and refit diagnostics.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(m *Model) {
		m.logger = logger
	})
}

// WithResolver installs a default-transform resolver consulted when
// AddFeature receives no explicit transform.
func WithResolver(resolver TransformResolver) Option {
	return options.NoError(func(m *Model) {
		m.resolver = resolver
	})
}

// New creates a model over the dataset and fits the intercept-only
// baseline.
//
// Parameters:
//   - name: registry key, must be non-empty
//   - target: dataset column the model explains
//   - data: the backing dataset; derived variables are materialized here
//   - opts: WithLogger, WithResolver
//
// Returns:
//   - *Model: fitted intercept-only model
//   - error: errs.ErrEmptyModelName, errs.ErrColumnNotFound for a missing
//     target, or the baseline fit error for degenerate datasets
func New(name, target string, data *dataset.Dataset, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, errs.ErrEmptyModelName
	}
	if data == nil {
		return nil, fmt.Errorf("model %q: nil dataset", name)
	}
	if !data.Has(target) {
		return nil, fmt.Errorf("%w: target %q", errs.ErrColumnNotFound, target)
	}

	m := &Model{
		name:       name,
		data:       data,
		target:     target,
		transforms: make(map[string]transform.Transform),
		fixed:      make(map[string]float64),
		weighted:   make(map[string]WeightedVariable),
		logger:     zap.NewNop(),
	}
	if err := options.Apply(m, opts...); err != nil {
		return nil, err
	}
	if err := m.refit(); err != nil {
		return nil, fmt.Errorf("baseline fit for model %q: %w", name, err)
	}

	return m, nil
}

// Initialize resets the model to its intercept-only baseline: features,
// transforms, and fixed coefficients are cleared. The date window is a
// data concern and survives.
func (m *Model) Initialize() error {
	saved := m.snapshotState()
	m.features = nil
	m.transforms = make(map[string]transform.Transform)
	m.fixed = make(map[string]float64)
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		return err
	}

	return nil
}

// stateSnapshot captures everything a failed mutation must restore.
type stateSnapshot struct {
	features    []string
	transforms  map[string]transform.Transform
	fixed       map[string]float64
	windowStart time.Time
	windowEnd   time.Time
	view        *dataset.Dataset
	transformed map[string][]float64
	fit         *regress.Result
}

func (m *Model) snapshotState() stateSnapshot {
	transforms := make(map[string]transform.Transform, len(m.transforms))
	for k, v := range m.transforms {
		transforms[k] = v
	}
	fixed := make(map[string]float64, len(m.fixed))
	for k, v := range m.fixed {
		fixed[k] = v
	}

	return stateSnapshot{
		features:    append([]string(nil), m.features...),
		transforms:  transforms,
		fixed:       fixed,
		windowStart: m.windowStart,
		windowEnd:   m.windowEnd,
		view:        m.view,
		transformed: m.transformed,
		fit:         m.fit,
	}
}

func (m *Model) restoreState(s stateSnapshot) {
	m.features = s.features
	m.transforms = s.transforms
	m.fixed = s.fixed
	m.windowStart = s.windowStart
	m.windowEnd = s.windowEnd
	m.view = s.view
	m.transformed = s.transformed
	m.fit = s.fit
}

// refit recomputes the windowed view, every transformed column, and the
// fit. It either installs a fully consistent new state or leaves the
// model untouched and returns the error.
func (m *Model) refit() error {
	view, err := m.data.Window(m.windowStart, m.windowEnd)
	if err != nil {
		return err
	}

	env, err := m.transformEnv(view)
	if err != nil {
		return err
	}

	transformed := make(map[string][]float64, len(m.features))
	cols := make([][]float64, 0, len(m.features))
	for _, feature := range m.features {
		raw, err := view.Column(feature)
		if err != nil {
			return err
		}
		col := transform.Apply(m.transforms[feature], raw, env)
		transformed[feature] = col
		cols = append(cols, col)
	}

	target, err := view.Column(m.target)
	if err != nil {
		return err
	}

	var fit *regress.Result
	if len(m.fixed) == 0 {
		fit, err = regress.Fit(target, cols, regress.WithLogger(m.logger))
	} else {
		fit, err = m.fitConstrained(target, transformed)
	}
	if err != nil {
		return err
	}

	m.view = view
	m.transformed = transformed
	m.fit = fit

	return nil
}

// transformEnv assembles the Env transforms evaluate in: the view's time
// index, the window target mean, and a sibling-column lookup.
func (m *Model) transformEnv(view *dataset.Dataset) (transform.Env, error) {
	target, err := view.Column(m.target)
	if err != nil {
		return transform.Env{}, err
	}
	mean, ok := stats.NanMean(target)

	return transform.Env{
		Time:            view.Index(),
		TargetMean:      mean,
		TargetMeanValid: ok,
		Lookup: func(name string) ([]float64, bool) {
			col, err := view.Column(name)
			if err != nil {
				return nil, false
			}

			return col, true
		},
		Logger: m.logger,
	}, nil
}

// resolveTransform picks the transform for a new feature: the explicit one
// when given, else the resolver's default, else none.
func (m *Model) resolveTransform(feature string, explicit []transform.Transform) (transform.Transform, error) {
	switch len(explicit) {
	case 0:
	case 1:
		return explicit[0], nil
	default:
		return transform.Transform{}, fmt.Errorf("%w: feature %q given %d transforms",
			errs.ErrInvalidTransform, feature, len(explicit))
	}
	if m.resolver != nil {
		if tr, ok := m.resolver.DefaultTransform(feature); ok {
			return tr, nil
		}
	}

	return transform.None(), nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Target returns the target column name.
func (m *Model) Target() string { return m.target }

// Features returns the ordered feature names.
func (m *Model) Features() []string {
	return append([]string(nil), m.features...)
}

// HasFeature reports whether the feature is in the model.
func (m *Model) HasFeature(name string) bool {
	for _, f := range m.features {
		if f == name {
			return true
		}
	}

	return false
}

// Transform returns the transform assigned to a feature.
func (m *Model) Transform(feature string) (transform.Transform, bool) {
	tr, ok := m.transforms[feature]
	return tr, ok
}

// Transforms returns a copy of the feature-to-transform assignment.
func (m *Model) Transforms() map[string]transform.Transform {
	out := make(map[string]transform.Transform, len(m.transforms))
	for k, v := range m.transforms {
		out[k] = v
	}

	return out
}

// Window returns the active date window; zero times mean unbounded.
func (m *Model) Window() (start, end time.Time) {
	return m.windowStart, m.windowEnd
}

// WindowIndex returns the timestamps of the rows the current fit covers.
func (m *Model) WindowIndex() []time.Time {
	return m.view.Index()
}

// TargetColumn returns the target values over the current window.
func (m *Model) TargetColumn() []float64 {
	col, err := m.view.Column(m.target)
	if err != nil {
		// The target column existed at construction and datasets are
		// append-only, so this cannot happen.
		panic(fmt.Sprintf("model %q: target column lost: %v", m.name, err))
	}

	return col
}

// WindowColumn returns a raw dataset column sliced to the current window.
func (m *Model) WindowColumn(name string) ([]float64, error) {
	return m.view.Column(name)
}

// HasColumn reports whether the backing dataset has the named column.
func (m *Model) HasColumn(name string) bool {
	return m.data.Has(name)
}

// TransformedColumn returns a feature's transformed values over the
// current window.
func (m *Model) TransformedColumn(feature string) ([]float64, error) {
	col, ok := m.transformed[feature]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrFeatureNotFound, feature)
	}

	return append([]float64(nil), col...), nil
}

// FitResult returns the current fit. The result is shared; callers must
// treat it as read-only.
func (m *Model) FitResult() *regress.Result {
	return m.fit
}

// FixedCoefficients returns a copy of the fixed-coefficient overrides.
func (m *Model) FixedCoefficients() map[string]float64 {
	out := make(map[string]float64, len(m.fixed))
	for k, v := range m.fixed {
		out[k] = v
	}

	return out
}

// FitSummary is the name-keyed view of the current fit returned by every
// mutating operation's natural follow-up, Summary.
type FitSummary struct {
	Features     []string
	Coefficients map[string]float64
	TStats       map[string]float64
	PValues      map[string]float64
	RSquared     float64
	AdjRSquared  float64
	NObs         int
}

// Summary maps the current fit's positional statistics onto the intercept
// and feature names.
func (m *Model) Summary() FitSummary {
	s := FitSummary{
		Features:     m.Features(),
		Coefficients: make(map[string]float64, len(m.features)+1),
		TStats:       make(map[string]float64, len(m.features)+1),
		PValues:      make(map[string]float64, len(m.features)+1),
		RSquared:     m.fit.RSquared,
		AdjRSquared:  m.fit.AdjRSquared,
		NObs:         m.fit.NObs,
	}
	names := append([]string{InterceptName}, m.features...)
	for i, name := range names {
		s.Coefficients[name] = m.fit.Coefficients[i]
		s.TStats[name] = m.fit.TStats[i]
		s.PValues[name] = m.fit.PValues[i]
	}

	return s
}

// Coefficient returns the fitted coefficient for a feature or
// InterceptName.
func (m *Model) Coefficient(name string) (float64, bool) {
	if name == InterceptName {
		return m.fit.Coefficients[0], true
	}
	for i, f := range m.features {
		if f == name {
			return m.fit.Coefficients[i+1], true
		}
	}

	return 0, false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
