package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Curve evaluates a parametric response curve at a raw predictor value.
// Curves capture diminishing returns: incremental response shrinks (ADBUG)
// or first grows then shrinks (ICP) as input rises.
type Curve interface {
	// Value evaluates the curve at x.
	Value(x float64) float64
	// Kind returns the transform kind the curve corresponds to.
	Kind() Kind
	// Params returns the curve parameters.
	Params() (alpha, beta, gamma float64)
	// Transform returns the Transform applying this curve.
	Transform() Transform
}

var (
	_ Curve = (*ICPCurve)(nil)
	_ Curve = (*ADBUGCurve)(nil)
)

// ICPCurve is the S-shaped response y = (x/g)^a / ((x/g)^a + b).
// For alpha > 1 the curve has an inflection (switch point) where marginal
// response stops accelerating.
type ICPCurve struct {
	alpha, beta, gamma float64
}

// NewICPCurve creates an ICP curve with the given parameters.
func NewICPCurve(alpha, beta, gamma float64) *ICPCurve {
	return &ICPCurve{alpha: alpha, beta: beta, gamma: gamma}
}

// Value evaluates the curve at x.
func (c *ICPCurve) Value(x float64) float64 {
	scaled := math.Pow(x/c.gamma, c.alpha)
	return scaled / (scaled + c.beta)
}

// Kind returns KindICP.
func (c *ICPCurve) Kind() Kind { return KindICP }

// Params returns alpha, beta, gamma.
func (c *ICPCurve) Params() (alpha, beta, gamma float64) {
	return c.alpha, c.beta, c.gamma
}

// Transform returns the ICP transform with these parameters.
func (c *ICPCurve) Transform() Transform {
	return ICP(c.alpha, c.beta, c.gamma)
}

// SwitchPoint returns the input level where the curve switches from
// accelerating to diminishing marginal response:
//
//	x* = gamma * ((alpha-1)/(alpha+1))^(1/alpha)
//
// It exists only for alpha > 1; ok is false otherwise.
func (c *ICPCurve) SwitchPoint() (x float64, ok bool) {
	if c.alpha <= 1 {
		return 0, false
	}

	return c.gamma * math.Pow((c.alpha-1)/(c.alpha+1), 1/c.alpha), true
}

// ADBUGCurve is the saturating response y = 1 - exp(-b * (x/g)^a),
// concave for alpha <= 1.
type ADBUGCurve struct {
	alpha, beta, gamma float64
}

// NewADBUGCurve creates an ADBUG curve with the given parameters.
func NewADBUGCurve(alpha, beta, gamma float64) *ADBUGCurve {
	return &ADBUGCurve{alpha: alpha, beta: beta, gamma: gamma}
}

// Value evaluates the curve at x.
func (c *ADBUGCurve) Value(x float64) float64 {
	return 1 - math.Exp(-c.beta*math.Pow(x/c.gamma, c.alpha))
}

// Kind returns KindADBUG.
func (c *ADBUGCurve) Kind() Kind { return KindADBUG }

// Params returns alpha, beta, gamma.
func (c *ADBUGCurve) Params() (alpha, beta, gamma float64) {
	return c.alpha, c.beta, c.gamma
}

// Transform returns the ADBUG transform with these parameters.
func (c *ADBUGCurve) Transform() Transform {
	return ADBUG(c.alpha, c.beta, c.gamma)
}

// NewCurve creates a curve of the given kind. Only KindICP and KindADBUG
// are curve kinds.
func NewCurve(kind Kind, alpha, beta, gamma float64) (Curve, error) {
	switch kind {
	case KindICP:
		return NewICPCurve(alpha, beta, gamma), nil
	case KindADBUG:
		return NewADBUGCurve(alpha, beta, gamma), nil
	default:
		return nil, fmt.Errorf("kind %s is not a curve", kind)
	}
}

// CurveName renders the conventional column name for a curve-transformed
// variable, e.g. "TV|ICP a3_b4_g1200". Parameters print with one decimal
// and a trailing ".0" dropped; alpha and beta switch to integer form at
// 10, gamma at 100. Returns false for non-curve kinds.
func CurveName(variable string, t Transform) (string, bool) {
	var label string
	switch t.Kind {
	case KindICP:
		label = "ICP"
	case KindADBUG:
		label = "ADBUG"
	default:
		return "", false
	}

	return fmt.Sprintf("%s|%s a%s_b%s_g%s", variable, label,
		curveParam(t.Alpha, 10), curveParam(t.Beta, 10), curveParam(t.Gamma, 100)), true
}

func curveParam(v, intThreshold float64) string {
	if v >= intThreshold {
		return strconv.Itoa(int(v))
	}

	return strings.TrimSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0")
}
