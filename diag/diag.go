// Package diag screens candidate variables against a fitted model and
// previews hypothetical feature changes. Screening reports how a
// candidate correlates with the target and with the current residuals,
// what it would contribute when added to the current features, and how
// collinear it is with them. Previews refit the feature set with
// variables added or removed and lay old and new coefficients side by
// side. Nothing in this package mutates the model.
package diag

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/options"
	"github.com/arloliu/mixfit/model"
	"github.com/arloliu/mixfit/regress"
	"github.com/arloliu/mixfit/transform"
)

// VIFCap stands in for variance inflation factors that come out infinite
// or undefined, keeping screening tables sortable.
const VIFCap = 999.99

// Screening floors on complete observations: below minScreenObs the
// candidate cannot be screened at all, below warnScreenObs the numbers
// are reported but flagged.
const (
	minScreenObs  = 5
	warnScreenObs = 10
)

// FitStats summarizes the candidate's coefficient in one regression.
type FitStats struct {
	Coefficient float64
	TStat       float64
	PValue      float64
	RSquared    float64
}

// Screening reports how a candidate variable behaves against a model:
// alone, added to the current features, and relative to what the model
// already explains.
type Screening struct {
	// Variable is the screened column name; for an adstocked candidate
	// it is the derived name, e.g. "TV_adstock_30".
	Variable string
	// NObs counts the rows where the target, the candidate, and every
	// current feature are all present. All statistics below are computed
	// on exactly those rows.
	NObs int

	// Correlation is the Pearson correlation between the candidate and
	// the target.
	Correlation float64
	// ResidualCorrelation correlates the candidate with the current
	// fit's residuals; a high value means the candidate explains
	// something the model currently misses.
	ResidualCorrelation float64

	// Solo describes a target-on-candidate regression with intercept.
	Solo FitStats
	// Full describes the candidate inside the fit of the current
	// features plus the candidate.
	Full FitStats
	// RSquaredIncrease is the full fit's R² minus the current features'
	// R² refit on the same rows.
	RSquaredIncrease float64

	// VIF is the candidate's variance inflation factor against the
	// current features, capped at VIFCap when infinite or undefined.
	VIF float64

	// MeanValue is the candidate's mean, ImpactAtMean the full-fit
	// coefficient times that mean, and ImpactPercent the impact as a
	// percentage of the target mean.
	MeanValue     float64
	ImpactAtMean  float64
	ImpactPercent float64
}

// Screener evaluates candidate variables against fitted models.
type Screener struct {
	logger *zap.Logger
}

// Option configures a Screener.
type Option = options.Option[*Screener]

// WithLogger sets the logger for screening warnings and skipped
// candidates.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(s *Screener) { s.logger = logger })
}

// New creates a screener.
func New(opts ...Option) (*Screener, error) {
	s := &Screener{logger: zap.NewNop()}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// Screen reports how a candidate variable would behave if added to the
// model. A nonzero rate screens the adstock-carried candidate instead,
// under its derived column name. When the candidate is already a fitted
// feature its transformed values are screened and the full fit equals
// the current design, making the report a read on the feature in place.
//
// Every statistic is computed over the rows where the target, the
// candidate, and all current features are present, so models carrying
// lag or lead features meet the candidate on identical observations.
func (s *Screener) Screen(m *model.Model, variable string, rate float64) (*Screening, error) {
	if !m.HasColumn(variable) {
		return nil, fmt.Errorf("%w: %q", errs.ErrColumnNotFound, variable)
	}
	if variable == m.Target() {
		return nil, fmt.Errorf("%w: %q", errs.ErrTargetAsFeature, variable)
	}

	name, cand, err := s.candidateColumn(m, variable, rate)
	if err != nil {
		return nil, err
	}

	y := m.TargetColumn()
	features := m.Features()
	featCols := make([][]float64, len(features))
	for i, f := range features {
		col, err := m.TransformedColumn(f)
		if err != nil {
			return nil, err
		}
		featCols[i] = col
	}

	mask := completeRows(y, append([][]float64{cand}, featCols...))
	if len(mask) < minScreenObs {
		return nil, fmt.Errorf("%w: %d complete observations screening %q",
			errs.ErrInsufficientData, len(mask), name)
	}
	if len(mask) < warnScreenObs {
		s.logger.Warn("screening on few observations",
			zap.String("variable", name), zap.Int("rows", len(mask)))
	}

	yf := take(y, mask)
	candf := take(cand, mask)
	featf := make([][]float64, len(featCols))
	for i, col := range featCols {
		featf[i] = take(col, mask)
	}

	solo, err := regress.Fit(yf, [][]float64{candf}, regress.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("solo fit of %q: %w", name, err)
	}

	fullCols := slices.Clone(featf)
	candIdx := slices.Index(features, name)
	if candIdx >= 0 {
		fullCols[candIdx] = candf
	} else {
		fullCols = append(fullCols, candf)
		candIdx = len(fullCols) - 1
	}
	full, err := regress.Fit(yf, fullCols, regress.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("full fit with %q: %w", name, err)
	}
	k := candIdx + 1 // intercept first

	// The current features' explanatory power refit on the same rows, so
	// the R² increase is an apples-to-apples difference; the stored fit
	// may cover more rows than the candidate allows.
	currentR2 := m.FitResult().RSquared
	if current, err := regress.Fit(yf, featf, regress.WithLogger(s.logger)); err != nil {
		s.logger.Warn("current-feature refit failed, using stored r-squared",
			zap.String("variable", name), zap.Error(err))
	} else {
		currentR2 = current.RSquared
	}

	// The mask only keeps rows the current fit also kept, so the
	// residuals are defined everywhere the candidate is.
	residf := take(m.FitResult().Residuals, mask)

	meanValue := stat.Mean(candf, nil)
	impact := full.Coefficients[k] * meanValue

	return &Screening{
		Variable:            name,
		NObs:                len(mask),
		Correlation:         stat.Correlation(candf, yf, nil),
		ResidualCorrelation: stat.Correlation(candf, residf, nil),
		Solo: FitStats{
			Coefficient: solo.Coefficients[1],
			TStat:       solo.TStats[1],
			PValue:      solo.PValues[1],
			RSquared:    solo.RSquared,
		},
		Full: FitStats{
			Coefficient: full.Coefficients[k],
			TStat:       full.TStats[k],
			PValue:      full.PValues[k],
			RSquared:    full.RSquared,
		},
		RSquaredIncrease: full.RSquared - currentR2,
		VIF:              s.vif(name, candIdx, fullCols),
		MeanValue:        meanValue,
		ImpactAtMean:     impact,
		ImpactPercent:    impact / stat.Mean(yf, nil) * 100,
	}, nil
}

// ScreenAll screens every candidate and ranks the reports by the
// full-fit |t| descending, NaN last, names breaking ties. rates pairs
// with variables by position; a missing or zero entry screens the
// variable as is. Candidates that cannot be screened are logged and
// skipped, never failing the batch.
func (s *Screener) ScreenAll(m *model.Model, variables []string, rates []float64) []Screening {
	out := make([]Screening, 0, len(variables))
	for i, variable := range variables {
		var rate float64
		if i < len(rates) {
			rate = rates[i]
		}
		sc, err := s.Screen(m, variable, rate)
		if err != nil {
			s.logger.Warn("candidate skipped",
				zap.String("variable", variable), zap.Error(err))

			continue
		}
		out = append(out, *sc)
	}
	slices.SortFunc(out, compareScreenings)

	return out
}

// candidateColumn resolves the series a candidate is screened as: the
// freshly adstocked raw column under its derived name for a nonzero
// rate, the transformed column when the name is already a feature, the
// raw window column otherwise.
func (s *Screener) candidateColumn(m *model.Model, variable string, rate float64) (string, []float64, error) {
	if rate != 0 {
		tr := transform.Adstock(rate)
		if err := tr.Validate(); err != nil {
			return "", nil, err
		}
		raw, err := m.WindowColumn(variable)
		if err != nil {
			return "", nil, err
		}

		return transform.AdstockName(variable, rate), transform.Apply(tr, raw, transform.Env{Logger: s.logger}), nil
	}
	if m.HasFeature(variable) {
		col, err := m.TransformedColumn(variable)
		if err != nil {
			return "", nil, err
		}

		return variable, col, nil
	}
	raw, err := m.WindowColumn(variable)
	if err != nil {
		return "", nil, err
	}

	return variable, raw, nil
}

// vif computes the candidate's variance inflation factor by regressing
// it on the remaining full-fit columns plus an intercept. Infinite and
// undefined values collapse to VIFCap, as does a failed auxiliary fit.
func (s *Screener) vif(name string, idx int, cols [][]float64) float64 {
	others := make([][]float64, 0, len(cols)-1)
	for j, col := range cols {
		if j != idx {
			others = append(others, col)
		}
	}
	aux, err := regress.Fit(cols[idx], others)
	if err != nil {
		s.logger.Warn("collinearity fit failed, capping vif",
			zap.String("variable", name), zap.Error(err))

		return VIFCap
	}
	vif := 1 / (1 - aux.RSquared)
	if math.IsInf(vif, 0) || math.IsNaN(vif) {
		return VIFCap
	}

	return vif
}

// compareScreenings orders by |full-fit t| descending with NaN last,
// then by name.
func compareScreenings(a, b Screening) int {
	at, bt := math.Abs(a.Full.TStat), math.Abs(b.Full.TStat)
	switch {
	case at > bt, math.IsNaN(bt) && !math.IsNaN(at):
		return -1
	case bt > at, math.IsNaN(at) && !math.IsNaN(bt):
		return 1
	default:
		return strings.Compare(a.Variable, b.Variable)
	}
}

// completeRows lists the row indices where y and every column hold
// non-NaN values.
func completeRows(y []float64, cols [][]float64) []int {
	idx := make([]int, 0, len(y))
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
		idx = append(idx, i)
	}

	return idx
}

func take(src []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}

	return out
}
