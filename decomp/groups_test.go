package decomp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/model"
)

func TestDefaultGroup(t *testing.T) {
	cases := map[string]string{
		"Price_Index":       "Price",
		"pricing_ladder":    "Price",
		"comp_price":        "Price",
		"promo_depth":       "Promotions",
		"offer_flag":        "Promotions",
		"TV_adstock_30":     "Media",
		"Radio":             "Media",
		"online_display":    "Media",
		"competitor_spend":  "Competition",
		"temperature":       "Weather",
		"rainfall_mm":       "Weather",
		"holiday_flag":      "Seasonality",
		"season_index":      "Seasonality",
		"event_sponsorship": "Seasonality",
		"Distribution":      OtherGroup,
	}
	for variable, want := range cases {
		require.Equal(t, want, DefaultGroup(variable), "variable %s", variable)
	}
}

func TestDefaultGroups(t *testing.T) {
	g := DefaultGroups(testModel(t))

	require.Equal(t, Assignment{Group: BaseGroup}, g[model.InterceptName])
	require.Equal(t, Assignment{Group: "Media"}, g["TV"])
	require.Equal(t, Assignment{Group: "Media"}, g["Radio"])
	require.Equal(t, Assignment{Group: "Price"}, g["Price"])
	require.Len(t, g, 4)
}

func TestGroupsJSON(t *testing.T) {
	t.Run("round-trips in the stored file format", func(t *testing.T) {
		g := Groups{
			"TV":    {Group: "Media", Adjustment: AdjustMin},
			"Price": {Group: "Price"},
		}
		raw, err := json.Marshal(g)
		require.NoError(t, err)
		require.JSONEq(t,
			`{"TV":{"Group":"Media","Adjustment":"Min"},"Price":{"Group":"Price","Adjustment":""}}`,
			string(raw))

		var back Groups
		require.NoError(t, json.Unmarshal(raw, &back))
		require.Equal(t, g, back)
	})

	t.Run("parses adjustment tokens case-insensitively", func(t *testing.T) {
		var g Groups
		err := json.Unmarshal([]byte(`{"const":{"Group":"Base","Adjustment":"max"}}`), &g)
		require.NoError(t, err)
		require.Equal(t, AdjustMax, g["const"].Adjustment)
	})

	t.Run("rejects unknown adjustments", func(t *testing.T) {
		var g Groups
		err := json.Unmarshal([]byte(`{"TV":{"Group":"Media","Adjustment":"Median"}}`), &g)
		require.ErrorIs(t, err, errs.ErrInvalidAdjustment)
	})

	t.Run("refuses to encode an invalid adjustment", func(t *testing.T) {
		_, err := json.Marshal(Groups{"TV": {Group: "Media", Adjustment: Adjustment(7)}})
		require.ErrorIs(t, err, errs.ErrInvalidAdjustment)
	})
}

func TestAdjustmentStrings(t *testing.T) {
	require.Equal(t, "min", AdjustMin.String())
	require.Equal(t, "max", AdjustMax.String())
	require.Equal(t, "none", AdjustNone.String())
	require.Equal(t, "Adjustment(7)", Adjustment(7).String())

	require.Equal(t, AdjustMin, AdjustmentFromString("Min"))
	require.Equal(t, AdjustMax, AdjustmentFromString("MAX"))
	require.Equal(t, AdjustNone, AdjustmentFromString(""))
	require.Equal(t, AdjustNone, AdjustmentFromString("none"))
	require.Equal(t, Adjustment(-1), AdjustmentFromString("median"))
}

func TestExpandWeighted(t *testing.T) {
	m, name := weightedModel(t)

	g := Groups{
		name: {Group: "Media", Adjustment: AdjustMin},
		"TV": {Group: "OwnGroup"},
	}
	eff := g.ExpandWeighted(m)

	// Radio inherits the composite's whole assignment; TV keeps its own.
	require.Equal(t, Assignment{Group: "Media", Adjustment: AdjustMin}, eff["Radio"])
	require.Equal(t, Assignment{Group: "OwnGroup"}, eff["TV"])
	require.Equal(t, Assignment{Group: "Media", Adjustment: AdjustMin}, eff[name])

	// The input map is untouched.
	require.NotContains(t, g, "Radio")

	// A composite without an assignment contributes nothing.
	bare := Groups{"TV": {Group: "Media"}}
	require.Equal(t, bare, bare.ExpandWeighted(m))
}
