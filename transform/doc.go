// Package transform implements the feature transformations applied to
// predictor columns before fitting: scaling (standardize, center,
// normalize-by-target-mean), carry-over decay (adstock), diminishing-return
// response curves (ICP, ADBUG), time shifts (lag, lead), date-range splits,
// and elementwise products.
//
// A Transform is a small value describing one transformation; Apply
// evaluates it against a column inside an Env carrying the window
// statistics it may need. Apply is total: a transform that cannot be
// evaluated (unknown kind, missing product operand, undefined target mean)
// degrades to an identity pass-through with a logged warning rather than
// failing, so stored models survive forward-compatibility gaps. Structural
// validation belongs to Validate, which model mutation paths call before
// accepting a transform.
package transform
