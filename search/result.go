package search

import "github.com/arloliu/mixfit/transform"

// Result records how one curve candidate performed when added to the
// base model's feature set.
type Result struct {
	// Name is the conventional candidate column name,
	// e.g. "TV|ICP a3_b4_g1200".
	Name string
	// Variable is the raw column the curve was applied to.
	Variable string
	// Transform holds the candidate's curve parameters.
	Transform transform.Transform
	// Coefficient, TStat, and PValue describe the candidate term in the
	// augmented fit.
	Coefficient float64
	TStat       float64
	PValue      float64
	// RSquaredIncrease is the augmented fit's R² minus the base fit's.
	RSquaredIncrease float64
	// SwitchPoint is where an ICP curve turns from accelerating to
	// saturating response. NaN when undefined (ADBUG, or alpha <= 1).
	SwitchPoint float64
}
