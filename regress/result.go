package regress

// Result holds a fitted ordinary-least-squares solution. Slices indexed by
// coefficient start with the intercept when Intercept is true; callers keep
// the name-to-position mapping themselves.
type Result struct {
	Coefficients []float64
	StdErrors    []float64
	TStats       []float64
	PValues      []float64

	// RSquared and AdjRSquared measure fit quality against the centered
	// total sum of squares.
	RSquared    float64
	AdjRSquared float64
	// FStatistic tests the joint significance of all non-intercept
	// coefficients; NaN for intercept-only or no-intercept fits.
	FStatistic float64
	FPValue    float64

	// NObs is the effective observation count after dropping rows with
	// missing values; DF the residual degrees of freedom.
	NObs int
	DF   int

	// Intercept reports whether coefficient 0 is the intercept.
	Intercept bool

	// Fitted and Residuals are aligned with the input rows; rows dropped
	// for missing values hold NaN.
	Fitted    []float64
	Residuals []float64
}

// NumCoefficients returns the number of fitted coefficients including the
// intercept.
func (r *Result) NumCoefficients() int {
	return len(r.Coefficients)
}
