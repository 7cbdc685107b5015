package transform

import (
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/arloliu/mixfit/internal/stats"
)

// Env carries the context a transform may need: the time index aligned with
// the values, the target-mean statistic of the current fitting window, and
// a lookup for sibling columns (product operands). All statistics refer to
// the active date window, so re-windowing a model re-evaluates every
// transform against fresh statistics.
type Env struct {
	// Time holds the timestamp of each row, aligned with the values slice.
	Time []time.Time
	// TargetMean is the mean of the model target over the window.
	// TargetMeanValid is false when the target had no usable values.
	TargetMean      float64
	TargetMeanValid bool
	// Lookup resolves a sibling column over the same window.
	Lookup func(name string) ([]float64, bool)
	// Logger receives degradation warnings. Nil means silent.
	Logger *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}

	return e.Logger
}

// Apply evaluates the transform against a column and returns a fresh slice
// of the same length. Apply is total: conditions that prevent evaluation
// degrade to an identity copy with a logged warning, never a failure, so a
// refit pipeline keeps running on imperfect inputs. NaN inputs stay NaN
// except where the transform defines the output (split zeroes, shift
// edges).
func Apply(t Transform, values []float64, env Env) []float64 {
	out := append([]float64(nil), values...)

	switch t.Kind {
	case KindNone:
		return out

	case KindStandardize:
		mean, ok := stats.NanMean(values)
		if !ok || mean == 0 {
			return out
		}
		floats.Scale(1/mean, out)

		return out

	case KindCenter:
		mean, ok := stats.NanMean(values)
		if !ok {
			env.logger().Warn("center transform on column without usable values, passing through")
			return out
		}
		floats.AddConst(-mean, out)

		return out

	case KindNormalizeByTargetMean:
		if !env.TargetMeanValid {
			env.logger().Warn("target mean undefined, normalize_by_target_mean passing through")
			return out
		}
		if env.TargetMean == 0 {
			return out
		}
		floats.Scale(1/env.TargetMean, out)

		return out

	case KindAdstock:
		if t.Rate < 0 || t.Rate >= 1 {
			env.logger().Warn("invalid adstock rate, passing through", zap.Float64("rate", t.Rate))
			return out
		}
		for i := 1; i < len(out); i++ {
			out[i] = values[i] + t.Rate*out[i-1]
		}

		return out

	case KindICP, KindADBUG:
		if err := t.Validate(); err != nil {
			env.logger().Warn("invalid curve parameters, passing through", zap.Error(err))
			return out
		}
		curve, err := NewCurve(t.Kind, t.Alpha, t.Beta, t.Gamma)
		if err != nil {
			env.logger().Warn("curve construction failed, passing through", zap.Error(err))
			return out
		}
		for i, x := range values {
			out[i] = curve.Value(x)
		}

		return out

	case KindLag:
		return shift(values, t.Periods, env, t)

	case KindLead:
		return shift(values, -t.Periods, env, t)

	case KindSplitByDate:
		if len(env.Time) != len(values) {
			env.logger().Warn("split_by_date without an aligned time index, passing through")
			return out
		}
		for i, ts := range env.Time {
			if !inRange(ts, t.Start, t.End) {
				out[i] = 0
			}
		}

		return out

	case KindProduct:
		operand, ok := lookup(env, t.Operand)
		if !ok || len(operand) != len(values) {
			env.logger().Warn("product operand unavailable, passing through", zap.String("operand", t.Operand))
			return out
		}
		floats.Mul(out, operand)

		return out

	default:
		env.logger().Warn("unknown transform kind, passing through", zap.String("kind", t.Kind.String()))
		return out
	}
}

// shift moves values by n periods: positive lags (past values surface
// later), negative leads. Vacated edge periods become NaN.
func shift(values []float64, n int, env Env, t Transform) []float64 {
	out := make([]float64, len(values))
	if t.Periods < 1 {
		copy(out, values)
		env.logger().Warn("invalid shift periods, passing through",
			zap.String("kind", t.Kind.String()), zap.Int("periods", t.Periods))

		return out
	}
	for i := range out {
		src := i - n
		if src < 0 || src >= len(values) {
			out[i] = math.NaN()
		} else {
			out[i] = values[src]
		}
	}

	return out
}

func inRange(ts time.Time, start, end time.Time) bool {
	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && ts.After(end) {
		return false
	}

	return true
}

func lookup(env Env, name string) ([]float64, bool) {
	if env.Lookup == nil {
		return nil, false
	}

	return env.Lookup(name)
}
