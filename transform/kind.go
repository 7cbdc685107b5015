package transform

import "strings"

// Kind identifies one transformation in the closed set the engine supports.
type Kind int

const (
	// KindNone leaves values unchanged.
	KindNone Kind = iota
	// KindStandardize divides by the column mean (identity when the mean is zero).
	KindStandardize
	// KindCenter subtracts the column mean.
	KindCenter
	// KindNormalizeByTargetMean divides by the mean of the model target.
	KindNormalizeByTargetMean
	// KindAdstock applies geometric carry-over decay.
	KindAdstock
	// KindICP applies the S-shaped ICP response curve.
	KindICP
	// KindADBUG applies the saturating ADBUG response curve.
	KindADBUG
	// KindLag shifts values backward in time.
	KindLag
	// KindLead shifts values forward in time.
	KindLead
	// KindSplitByDate zeroes values outside a date range.
	KindSplitByDate
	// KindProduct multiplies elementwise with another column.
	KindProduct
)

// kindNames maps Kind to the stable names used in snapshots and logs.
var kindNames = map[Kind]string{
	KindNone:                  "none",
	KindStandardize:           "standardize",
	KindCenter:                "center",
	KindNormalizeByTargetMean: "normalize_by_target_mean",
	KindAdstock:               "adstock",
	KindICP:                   "icp_curve",
	KindADBUG:                 "adbug_curve",
	KindLag:                   "lag",
	KindLead:                  "lead",
	KindSplitByDate:           "split_by_date",
	KindProduct:               "product",
}

// String returns the stable name of the kind.
func (k Kind) String() string {
	if name, exists := kindNames[k]; exists {
		return name
	}

	return "unknown"
}

// kindFromString maps stable names back to kinds.
var kindFromString = map[string]Kind{
	"none":                     KindNone,
	"standardize":              KindStandardize,
	"center":                   KindCenter,
	"normalize_by_target_mean": KindNormalizeByTargetMean,
	"adstock":                  KindAdstock,
	"icp_curve":                KindICP,
	"adbug_curve":              KindADBUG,
	"lag":                      KindLag,
	"lead":                     KindLead,
	"split_by_date":            KindSplitByDate,
	"product":                  KindProduct,
}

// KindFromString returns the Kind for a stable name. Unknown names return
// Kind(-1), which Apply treats as a pass-through; snapshots written by a
// newer engine therefore load without crashing.
func KindFromString(name string) Kind {
	if kind, exists := kindFromString[strings.ToLower(name)]; exists {
		return kind
	}

	return Kind(-1)
}

// Known reports whether the kind is one of the supported transformations.
func (k Kind) Known() bool {
	_, exists := kindNames[k]
	return exists
}

// MarshalText encodes the kind as its stable name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a stable name, mapping unknown names to Kind(-1)
// without error.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = KindFromString(string(text))
	return nil
}
