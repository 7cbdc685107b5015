package decomp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/model"
)

// Group names with built-in meaning: adjustment offsets reconcile into
// BaseGroup, and variables without an assignment aggregate into
// OtherGroup.
const (
	BaseGroup  = "Base"
	OtherGroup = "Other"
)

// Adjustment shifts a variable's contribution series to a zero baseline
// before grouping.
type Adjustment int

const (
	// AdjustNone leaves the contribution series untouched.
	AdjustNone Adjustment = iota
	// AdjustMin subtracts the series minimum from every timestep; the
	// subtracted scalar is reconciled into the Base group.
	AdjustMin
	// AdjustMax subtracts the series maximum analogously.
	AdjustMax
)

var adjustmentNames = map[Adjustment]string{
	AdjustNone: "none",
	AdjustMin:  "min",
	AdjustMax:  "max",
}

func (a Adjustment) String() string {
	if name, ok := adjustmentNames[a]; ok {
		return name
	}

	return fmt.Sprintf("Adjustment(%d)", int(a))
}

// AdjustmentFromString parses an adjustment name, case-insensitively.
// The empty string means none, matching the stored group-map format.
// Unknown names return Adjustment(-1).
func AdjustmentFromString(s string) Adjustment {
	switch strings.ToLower(s) {
	case "", "none":
		return AdjustNone
	case "min":
		return AdjustMin
	case "max":
		return AdjustMax
	default:
		return Adjustment(-1)
	}
}

// MarshalJSON writes the stored-file token: "" for none, "Min", "Max".
func (a Adjustment) MarshalJSON() ([]byte, error) {
	switch a {
	case AdjustNone:
		return json.Marshal("")
	case AdjustMin:
		return json.Marshal("Min")
	case AdjustMax:
		return json.Marshal("Max")
	default:
		return nil, fmt.Errorf("%w: Adjustment(%d)", errs.ErrInvalidAdjustment, int(a))
	}
}

func (a *Adjustment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed := AdjustmentFromString(s)
	if parsed < 0 {
		return fmt.Errorf("%w: %q", errs.ErrInvalidAdjustment, s)
	}
	*a = parsed

	return nil
}

// Assignment places one variable in a contribution group, optionally with
// a baseline adjustment.
type Assignment struct {
	Group      string     `json:"Group"`
	Adjustment Adjustment `json:"Adjustment"`
}

// Groups maps variable names (features, the intercept, weighted columns)
// to their assignments. The JSON encoding matches the group-map files
// earlier versions of the tool saved alongside each model, e.g.
// {"TV": {"Group": "Media", "Adjustment": ""}}.
type Groups map[string]Assignment

// assignment returns the variable's assignment. Unassigned variables and
// empty group names land in OtherGroup.
func (g Groups) assignment(variable string) Assignment {
	a, ok := g[variable]
	if !ok || a.Group == "" {
		a.Group = OtherGroup
	}

	return a
}

// ExpandWeighted returns a copy of the group map in which every component
// of the model's weighted variables has an assignment: its own when
// present, otherwise the composite's. Decompose applies the same
// inheritance internally; this helper exposes the effective map to
// callers that display or persist it.
func (g Groups) ExpandWeighted(m *model.Model) Groups {
	out := make(Groups, len(g))
	for variable, a := range g {
		out[variable] = a
	}
	for name, w := range m.WeightedVariables() {
		composite, ok := out[name]
		if !ok {
			continue
		}
		for component := range w.Components {
			if _, ok := out[component]; !ok {
				out[component] = composite
			}
		}
	}

	return out
}

// DefaultGroup infers a contribution group from a variable name. The
// first matching rung wins: pricing terms, then promotions, media
// channels, competitor activity, weather, and seasonality; anything else
// is Other.
func DefaultGroup(variable string) string {
	name := strings.ToLower(variable)
	switch {
	case strings.Contains(name, "price") || strings.Contains(name, "pricing"):
		return "Price"
	case strings.Contains(name, "promo") || strings.Contains(name, "offer"):
		return "Promotions"
	case strings.Contains(name, "tv") || strings.Contains(name, "radio") ||
		strings.Contains(name, "online") || strings.Contains(name, "media"):
		return "Media"
	case strings.Contains(name, "comp"):
		return "Competition"
	case strings.Contains(name, "weather") || strings.Contains(name, "temperature") ||
		strings.Contains(name, "rain"):
		return "Weather"
	case strings.Contains(name, "holiday") || strings.Contains(name, "season") ||
		strings.Contains(name, "event"):
		return "Seasonality"
	default:
		return OtherGroup
	}
}

// DefaultGroups builds a group map for the model's fitted variables: the
// intercept goes to Base, each feature to DefaultGroup of its name.
func DefaultGroups(m *model.Model) Groups {
	features := m.Features()
	g := make(Groups, len(features)+1)
	g[model.InterceptName] = Assignment{Group: BaseGroup}
	for _, feature := range features {
		g[feature] = Assignment{Group: DefaultGroup(feature)}
	}

	return g
}
