// Package errs defines the sentinel errors shared across mixfit packages.
//
// Callers branch on these with errors.Is. Producing code attaches context by
// wrapping, e.g. fmt.Errorf("%w: column %q", errs.ErrColumnNotFound, name).
package errs

import "errors"

// Input validation errors. An operation returning one of these has rejected
// the request without mutating any state.
var (
	ErrEmptyIndex        = errors.New("time index is empty")
	ErrUnsortedIndex     = errors.New("time index is not strictly ascending")
	ErrLengthMismatch    = errors.New("column length does not match index length")
	ErrEmptyColumnName   = errors.New("column name is empty")
	ErrDuplicateColumn   = errors.New("column already exists")
	ErrColumnNotFound    = errors.New("column not found")
	ErrEmptyWindow       = errors.New("date window contains no rows")
	ErrDuplicateFeature  = errors.New("feature already in model")
	ErrFeatureNotFound   = errors.New("feature not in model")
	ErrTargetAsFeature   = errors.New("target cannot be used as a feature")
	ErrInvalidTransform  = errors.New("invalid transform parameters")
	ErrEmptyModelName    = errors.New("model name is empty")
	ErrModelNotFound     = errors.New("model not found in registry")
	ErrDuplicateModel    = errors.New("model name already registered")
	ErrNoComponents      = errors.New("weighted variable has no components")
	ErrNonFiniteValue    = errors.New("value must be finite")
	ErrNotFixed          = errors.New("coefficient is not fixed")
	ErrGroupNotFound     = errors.New("no variables assigned to group")
	ErrInvalidAdjustment = errors.New("invalid adjustment name")
)

// Numerical errors. A model whose refit returns one of these keeps its
// previous fit.
var (
	ErrSingularDesign   = errors.New("singular design matrix")
	ErrInsufficientData = errors.New("not enough observations for the requested design")
)

// Snapshot decoding errors.
var (
	ErrInvalidMagicNumber = errors.New("invalid snapshot magic number")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrSnapshotTooShort   = errors.New("snapshot shorter than its header")
	ErrDigestMismatch     = errors.New("snapshot payload digest mismatch")
	ErrUnsupportedCodec   = errors.New("unsupported compression codec")
)
