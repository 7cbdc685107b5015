package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/dataset"
	"github.com/arloliu/mixfit/model"
	"github.com/arloliu/mixfit/transform"
)

// driftTolerance bounds how far a reloaded R-squared may sit from the
// saved one before the load logs a drift warning.
const driftTolerance = 1e-6

// modelState is the JSON body of a snapshot: everything needed to
// rebuild the model on a dataset, plus the fit at save time so a
// reload can flag drift.
type modelState struct {
	Name        string                   `json:"name"`
	Target      string                   `json:"target"`
	WindowStart string                   `json:"window_start,omitempty"`
	WindowEnd   string                   `json:"window_end,omitempty"`
	Features    []featureState           `json:"features,omitempty"`
	Fixed       map[string]float64       `json:"fixed_coefficients,omitempty"`
	Weighted    []model.WeightedVariable `json:"weighted_variables,omitempty"`
	Fit         *fitState                `json:"fit,omitempty"`
	SavedAt     string                   `json:"saved_at,omitempty"`
}

// featureState pairs a feature with its transform, in model order.
type featureState struct {
	Name      string              `json:"name"`
	Transform transform.Transform `json:"transform"`
}

// fitState is the name-keyed fit at save time.
type fitState struct {
	Coefficients map[string]nullableFloat `json:"coefficients"`
	TStats       map[string]nullableFloat `json:"t_stats"`
	PValues      map[string]nullableFloat `json:"p_values"`
	RSquared     nullableFloat            `json:"r_squared"`
	AdjRSquared  nullableFloat            `json:"adj_r_squared"`
	NObs         int                      `json:"n_obs"`
}

// captureState reads the model into its serializable form. Weighted
// recipes are sorted by column name so the payload does not depend on
// map iteration order.
func captureState(m *model.Model) modelState {
	features := m.Features()
	transforms := m.Transforms()
	fs := make([]featureState, len(features))
	for i, f := range features {
		fs[i] = featureState{Name: f, Transform: transforms[f]}
	}

	weighted := m.WeightedVariables()
	names := make([]string, 0, len(weighted))
	for name := range weighted {
		names = append(names, name)
	}
	sort.Strings(names)
	ws := make([]model.WeightedVariable, 0, len(names))
	for _, name := range names {
		ws = append(ws, weighted[name])
	}

	st := modelState{
		Name:     m.Name(),
		Target:   m.Target(),
		Features: fs,
		Weighted: ws,
		Fit:      captureFit(m.Summary()),
		SavedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if fixed := m.FixedCoefficients(); len(fixed) > 0 {
		st.Fixed = fixed
	}
	start, end := m.Window()
	if !start.IsZero() {
		st.WindowStart = start.Format(time.RFC3339Nano)
	}
	if !end.IsZero() {
		st.WindowEnd = end.Format(time.RFC3339Nano)
	}

	return st
}

func captureFit(s model.FitSummary) *fitState {
	return &fitState{
		Coefficients: toNullable(s.Coefficients),
		TStats:       toNullable(s.TStats),
		PValues:      toNullable(s.PValues),
		RSquared:     nullableFloat(s.RSquared),
		AdjRSquared:  nullableFloat(s.AdjRSquared),
		NObs:         s.NObs,
	}
}

func toNullable(m map[string]float64) map[string]nullableFloat {
	out := make(map[string]nullableFloat, len(m))
	for k, v := range m {
		out[k] = nullableFloat(v)
	}

	return out
}

// rebuild replays the state onto a dataset. Weighted composites are
// rebuilt first so features can reference their columns; features then
// join in saved order with their saved transforms; fixed coefficients
// apply last. Other derived columns are not recreated: the dataset must
// already carry them, and the replay fails naming the missing column
// when it does not.
func (st *modelState) rebuild(ds *dataset.Dataset, logger *zap.Logger) (*model.Model, error) {
	m, err := model.New(st.Name, st.Target, ds, model.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("rebuild model %q: %w", st.Name, err)
	}

	start, err := parseBound(st.WindowStart)
	if err != nil {
		return nil, fmt.Errorf("snapshot window start: %w", err)
	}
	end, err := parseBound(st.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("snapshot window end: %w", err)
	}
	if !start.IsZero() || !end.IsZero() {
		if err := m.SetDateWindow(start, end); err != nil {
			return nil, fmt.Errorf("rebuild window: %w", err)
		}
	}

	for _, w := range st.Weighted {
		if _, err := m.CreateWeightedVariable(w.BaseName, w.Components); err != nil {
			return nil, fmt.Errorf("rebuild weighted variable %q: %w", w.BaseName, err)
		}
	}
	for _, f := range st.Features {
		if err := m.AddFeature(f.Name, f.Transform); err != nil {
			return nil, fmt.Errorf("rebuild feature %q: %w", f.Name, err)
		}
	}

	fixed := make([]string, 0, len(st.Fixed))
	for name := range st.Fixed {
		fixed = append(fixed, name)
	}
	sort.Strings(fixed)
	for _, name := range fixed {
		if err := m.SetFixedCoefficient(name, st.Fixed[name]); err != nil {
			return nil, fmt.Errorf("rebuild fixed coefficient %q: %w", name, err)
		}
	}

	return m, nil
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, s)
}

// checkDrift compares the reloaded fit with the saved one. Divergence
// means the dataset changed since the snapshot was taken; the model is
// still usable, so it logs rather than fails.
func (st *modelState) checkDrift(m *model.Model, logger *zap.Logger) {
	if st.Fit == nil {
		return
	}
	saved := float64(st.Fit.RSquared)
	got := m.FitResult().RSquared
	if math.IsNaN(saved) && math.IsNaN(got) {
		return
	}
	if math.IsNaN(saved) != math.IsNaN(got) || math.Abs(got-saved) > driftTolerance {
		logger.Warn("reloaded fit drifted from snapshot",
			zap.String("model", m.Name()),
			zap.Float64("saved_r_squared", saved),
			zap.Float64("reloaded_r_squared", got))
	}
}

// nullableFloat marshals NaN and infinities as JSON null, since fixed
// coefficients legitimately put NaN in the saved t statistics.
type nullableFloat float64

func (f nullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}

	return json.Marshal(v)
}

func (f *nullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nullableFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = nullableFloat(v)

	return nil
}
