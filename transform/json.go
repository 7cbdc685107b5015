package transform

import (
	"encoding/json"
	"fmt"
	"time"
)

// transformJSON is the wire shape of a Transform. Fields irrelevant to the
// kind are omitted.
type transformJSON struct {
	Kind    string  `json:"kind"`
	Rate    float64 `json:"rate,omitempty"`
	Alpha   float64 `json:"alpha,omitempty"`
	Beta    float64 `json:"beta,omitempty"`
	Gamma   float64 `json:"gamma,omitempty"`
	Periods int     `json:"periods,omitempty"`
	Start   string  `json:"start,omitempty"`
	End     string  `json:"end,omitempty"`
	Operand string  `json:"operand,omitempty"`
}

// MarshalJSON encodes the transform with its stable kind name and only the
// parameters that kind uses.
func (t Transform) MarshalJSON() ([]byte, error) {
	aux := transformJSON{Kind: t.Kind.String()}
	switch t.Kind {
	case KindAdstock:
		aux.Rate = t.Rate
	case KindICP, KindADBUG:
		aux.Alpha = t.Alpha
		aux.Beta = t.Beta
		aux.Gamma = t.Gamma
	case KindLag, KindLead:
		aux.Periods = t.Periods
	case KindSplitByDate:
		if !t.Start.IsZero() {
			aux.Start = t.Start.Format(time.DateOnly)
		}
		if !t.End.IsZero() {
			aux.End = t.End.Format(time.DateOnly)
		}
	case KindProduct:
		aux.Operand = t.Operand
	}

	return json.Marshal(aux)
}

// UnmarshalJSON decodes a transform. Unknown kind names decode to Kind(-1)
// so newer snapshots load; Apply will pass such transforms through with a
// warning.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var aux transformJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode transform: %w", err)
	}

	*t = Transform{
		Kind:    KindFromString(aux.Kind),
		Rate:    aux.Rate,
		Alpha:   aux.Alpha,
		Beta:    aux.Beta,
		Gamma:   aux.Gamma,
		Periods: aux.Periods,
		Operand: aux.Operand,
	}
	if aux.Start != "" {
		start, err := time.Parse(time.DateOnly, aux.Start)
		if err != nil {
			return fmt.Errorf("decode transform start date: %w", err)
		}
		t.Start = start
	}
	if aux.End != "" {
		end, err := time.Parse(time.DateOnly, aux.End)
		if err != nil {
			return fmt.Errorf("decode transform end date: %w", err)
		}
		t.End = end
	}

	return nil
}
