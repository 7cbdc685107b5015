package transform

import (
	"fmt"
	"time"

	"github.com/arloliu/mixfit/errs"
)

// Transform describes one transformation of a predictor column. Only the
// fields relevant to Kind are meaningful; constructors fill them in.
// Transforms are plain comparable values, so callers may copy and compare
// them freely.
type Transform struct {
	Kind Kind

	// Rate is the adstock carry-over rate in [0, 1).
	Rate float64
	// Alpha, Beta, Gamma are the ICP / ADBUG curve parameters.
	Alpha float64
	Beta  float64
	Gamma float64
	// Periods is the lag / lead shift distance.
	Periods int
	// Start and End bound a split-by-date range (inclusive); a zero value
	// leaves that side unbounded.
	Start time.Time
	End   time.Time
	// Operand names the other column of a product.
	Operand string
}

// None returns the identity transform.
func None() Transform {
	return Transform{Kind: KindNone}
}

// Standardize returns a transform dividing by the column mean.
func Standardize() Transform {
	return Transform{Kind: KindStandardize}
}

// Center returns a transform subtracting the column mean.
func Center() Transform {
	return Transform{Kind: KindCenter}
}

// NormalizeByTargetMean returns a transform dividing by the target mean.
func NormalizeByTargetMean() Transform {
	return Transform{Kind: KindNormalizeByTargetMean}
}

// Adstock returns a geometric carry-over transform with the given rate.
func Adstock(rate float64) Transform {
	return Transform{Kind: KindAdstock, Rate: rate}
}

// AdstockName renders the conventional column name for an adstocked
// variable, e.g. "TV_adstock_30" for rate 0.3.
func AdstockName(variable string, rate float64) string {
	return fmt.Sprintf("%s_adstock_%d", variable, int(rate*100))
}

// ICP returns an S-shaped ICP response curve transform.
func ICP(alpha, beta, gamma float64) Transform {
	return Transform{Kind: KindICP, Alpha: alpha, Beta: beta, Gamma: gamma}
}

// ADBUG returns a concave ADBUG response curve transform.
func ADBUG(alpha, beta, gamma float64) Transform {
	return Transform{Kind: KindADBUG, Alpha: alpha, Beta: beta, Gamma: gamma}
}

// Lag returns a transform shifting values back by n periods. The first n
// periods become NaN.
func Lag(n int) Transform {
	return Transform{Kind: KindLag, Periods: n}
}

// Lead returns a transform shifting values forward by n periods. The last n
// periods become NaN.
func Lead(n int) Transform {
	return Transform{Kind: KindLead, Periods: n}
}

// SplitByDate returns a transform keeping values inside [start, end]
// inclusive and zeroing the rest. A zero start or end leaves that side
// unbounded.
func SplitByDate(start, end time.Time) Transform {
	return Transform{Kind: KindSplitByDate, Start: start, End: end}
}

// Product returns a transform multiplying elementwise with another column.
func Product(operand string) Transform {
	return Transform{Kind: KindProduct, Operand: operand}
}

// Validate checks the parameters of a known kind. Unknown kinds pass, since
// Apply treats them as pass-through rather than errors.
func (t Transform) Validate() error {
	switch t.Kind {
	case KindAdstock:
		if t.Rate < 0 || t.Rate >= 1 {
			return fmt.Errorf("%w: adstock rate %v outside [0, 1)", errs.ErrInvalidTransform, t.Rate)
		}
	case KindICP, KindADBUG:
		if t.Alpha <= 0 || t.Beta <= 0 || t.Gamma <= 0 {
			return fmt.Errorf("%w: %s requires positive alpha, beta, gamma (got %v, %v, %v)",
				errs.ErrInvalidTransform, t.Kind, t.Alpha, t.Beta, t.Gamma)
		}
	case KindLag, KindLead:
		if t.Periods < 1 {
			return fmt.Errorf("%w: %s periods %d must be positive", errs.ErrInvalidTransform, t.Kind, t.Periods)
		}
	case KindSplitByDate:
		if !t.Start.IsZero() && !t.End.IsZero() && t.End.Before(t.Start) {
			return fmt.Errorf("%w: split range end %s before start %s",
				errs.ErrInvalidTransform, t.End.Format(time.DateOnly), t.Start.Format(time.DateOnly))
		}
	case KindProduct:
		if t.Operand == "" {
			return fmt.Errorf("%w: product requires an operand column", errs.ErrInvalidTransform)
		}
	}

	return nil
}

// String renders the transform for logs and summaries.
func (t Transform) String() string {
	switch t.Kind {
	case KindAdstock:
		return fmt.Sprintf("adstock(%.2f)", t.Rate)
	case KindICP, KindADBUG:
		return fmt.Sprintf("%s(a=%v, b=%v, g=%v)", t.Kind, t.Alpha, t.Beta, t.Gamma)
	case KindLag, KindLead:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Periods)
	case KindSplitByDate:
		return fmt.Sprintf("split[%s, %s]", formatBound(t.Start), formatBound(t.End))
	case KindProduct:
		return fmt.Sprintf("product(%s)", t.Operand)
	default:
		return t.Kind.String()
	}
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "..."
	}

	return t.Format(time.DateOnly)
}
