package snapshot

import (
	"bytes"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/mixfit/compress"
	"github.com/arloliu/mixfit/dataset"
	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/hash"
	"github.com/arloliu/mixfit/model"
	"github.com/arloliu/mixfit/transform"
)

var (
	snapTV    = []float64{12, 30, 18, 44, 25, 60, 33, 75, 40, 90, 48, 105, 55, 120, 62, 135}
	snapPromo = []float64{0, 1, 0, 1, 1, 0, 1, 0, 0, 1, 1, 0, 1, 0, 1, 1}
)

func snapIndex(n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
	}

	return index
}

// snapDataset builds 16 weeks where Sales follows 40 + 3*TV + 8*Promo
// exactly.
func snapDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	n := len(snapTV)
	ds, err := dataset.New(snapIndex(n))
	require.NoError(t, err)

	sales := make([]float64, n)
	for i := range sales {
		sales[i] = 40 + 3*snapTV[i] + 8*snapPromo[i]
	}
	require.NoError(t, ds.AddColumn("Sales", sales))
	require.NoError(t, ds.AddColumn("TV", slices.Clone(snapTV)))
	require.NoError(t, ds.AddColumn("Promo", slices.Clone(snapPromo)))

	return ds
}

// frame wraps a raw state payload in a valid header, for tests that
// need payloads Save would never produce.
func frame(codec compress.Type, payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	h := header{
		codec:      codec,
		payloadLen: uint32(len(payload)),
		digest:     hash.Digest(payload),
	}
	h.encode(out[:headerSize])
	copy(out[headerSize:], payload)

	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	index := snapIndex(len(snapTV))

	ds := snapDataset(t)
	m, err := model.New("q3-mix", "Sales", ds)
	require.NoError(t, err)

	weighted, err := m.CreateWeightedVariable("Spend", map[string]float64{"TV": 1, "Promo": 20})
	require.NoError(t, err)
	require.Equal(t, "Spend|WGTD", weighted)
	require.NoError(t, m.AddFeature("TV"))
	require.NoError(t, m.AddFeature(weighted))
	require.NoError(t, m.SetDateWindow(index[2], index[13]))
	require.NoError(t, m.SetFixedCoefficient("TV", 2.5))

	data, err := Save(m)
	require.NoError(t, err)

	// The fresh dataset has only the base columns; the weighted
	// composite must come back from its recipe.
	fresh := snapDataset(t)
	core, logs := observer.New(zapcore.WarnLevel)
	loaded, err := Load(data, fresh, WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.Equal(t, "q3-mix", loaded.Name())
	require.Equal(t, "Sales", loaded.Target())
	require.Equal(t, []string{"TV", "Spend|WGTD"}, loaded.Features())
	require.True(t, fresh.Has("Spend|WGTD"))

	tr, ok := loaded.Transform("TV")
	require.True(t, ok)
	require.Equal(t, transform.None(), tr)

	start, end := loaded.Window()
	require.True(t, index[2].Equal(start))
	require.True(t, index[13].Equal(end))

	require.Equal(t, map[string]float64{"TV": 2.5}, loaded.FixedCoefficients())

	recipe, ok := loaded.WeightedVariable("Spend|WGTD")
	require.True(t, ok)
	require.Equal(t, "Spend", recipe.BaseName)
	require.Equal(t, map[string]float64{"TV": 1, "Promo": 20}, recipe.Components)

	want, got := m.Summary(), loaded.Summary()
	require.Equal(t, want.NObs, got.NObs)
	require.InDelta(t, want.RSquared, got.RSquared, 1e-12)
	for _, name := range []string{model.InterceptName, "TV", "Spend|WGTD"} {
		require.InDelta(t, want.Coefficients[name], got.Coefficients[name], 1e-9, name)
	}
	require.True(t, math.IsNaN(got.TStats["TV"]), "pinned coefficient keeps NaN t")

	// Identical data, identical fit: no drift warning.
	require.Empty(t, logs.All())
}

func TestSaveCodecSelection(t *testing.T) {
	ds := snapDataset(t)
	m, err := model.New("codec-pick", "Sales", ds)
	require.NoError(t, err)
	require.NoError(t, m.AddFeature("TV"))

	t.Run("default is Zstd", func(t *testing.T) {
		data, err := Save(m)
		require.NoError(t, err)
		require.Equal(t, byte(compress.TypeZstd), data[5])
	})

	t.Run("None leaves the state readable", func(t *testing.T) {
		data, err := Save(m, WithCodec(compress.TypeNone))
		require.NoError(t, err)
		require.Equal(t, byte(compress.TypeNone), data[5])
		require.True(t, bytes.Contains(data[headerSize:], []byte(`"target":"Sales"`)))
	})

	t.Run("every codec loads back", func(t *testing.T) {
		for _, typ := range []compress.Type{
			compress.TypeNone, compress.TypeZstd, compress.TypeS2, compress.TypeLZ4,
		} {
			data, err := Save(m, WithCodec(typ))
			require.NoError(t, err)

			loaded, err := Load(data, snapDataset(t))
			require.NoError(t, err, typ.String())
			require.Equal(t, []string{"TV"}, loaded.Features())
		}
	})

	t.Run("unknown codec is rejected at save", func(t *testing.T) {
		_, err := Save(m, WithCodec(compress.Type(0x7F)))
		require.ErrorIs(t, err, errs.ErrUnsupportedCodec)
	})
}

func TestLoadFramingValidation(t *testing.T) {
	ds := snapDataset(t)
	m, err := model.New("framed", "Sales", ds)
	require.NoError(t, err)
	require.NoError(t, m.AddFeature("TV"))

	valid, err := Save(m)
	require.NoError(t, err)

	tamper := func(mutate func([]byte)) []byte {
		c := slices.Clone(valid)
		mutate(c)

		return c
	}

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated header", valid[:headerSize-1], errs.ErrSnapshotTooShort},
		{"wrong magic", tamper(func(b []byte) { b[0] ^= 0xFF }), errs.ErrInvalidMagicNumber},
		{"future version", tamper(func(b []byte) { b[4] = 9 }), errs.ErrUnsupportedVersion},
		{"unknown codec", tamper(func(b []byte) { b[5] = 0x7F }), errs.ErrUnsupportedCodec},
		{"truncated payload", valid[:len(valid)-1], errs.ErrSnapshotTooShort},
		{"corrupted payload", tamper(func(b []byte) { b[len(b)-1] ^= 0xFF }), errs.ErrDigestMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.data, snapDataset(t))
			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("payload that is not zstd", func(t *testing.T) {
		framed := frame(compress.TypeZstd, []byte("junk payload"))
		_, err := Load(framed, snapDataset(t))
		require.ErrorContains(t, err, "decompress snapshot payload")
	})

	t.Run("state that is not json", func(t *testing.T) {
		framed := frame(compress.TypeNone, []byte("junk payload"))
		_, err := Load(framed, snapDataset(t))
		require.ErrorContains(t, err, "decode snapshot state")
	})
}

func TestLoadMissingDerivedColumn(t *testing.T) {
	ds := snapDataset(t)
	m, err := model.New("adstocked", "Sales", ds)
	require.NoError(t, err)

	name, err := m.CreateAdstockVariable("TV", 0.5)
	require.NoError(t, err)
	require.Equal(t, "TV_adstock_50", name)
	require.NoError(t, m.AddFeature(name))

	data, err := Save(m)
	require.NoError(t, err)

	t.Run("fails naming the column", func(t *testing.T) {
		_, err := Load(data, snapDataset(t))
		require.ErrorIs(t, err, errs.ErrColumnNotFound)
		require.ErrorContains(t, err, "TV_adstock_50")
	})

	t.Run("succeeds once the column is supplied", func(t *testing.T) {
		withCol := snapDataset(t)
		ad := make([]float64, len(snapTV))
		for i, v := range snapTV {
			ad[i] = v
			if i > 0 {
				ad[i] += 0.5 * ad[i-1]
			}
		}
		require.NoError(t, withCol.AddColumn("TV_adstock_50", ad))

		loaded, err := Load(data, withCol)
		require.NoError(t, err)
		require.Equal(t, []string{"TV_adstock_50"}, loaded.Features())
		require.InDelta(t, m.FitResult().RSquared, loaded.FitResult().RSquared, 1e-12)
	})
}

func TestLoadDriftWarning(t *testing.T) {
	ds := snapDataset(t)
	m, err := model.New("drifty", "Sales", ds)
	require.NoError(t, err)
	require.NoError(t, m.AddFeature("TV"))

	data, err := Save(m)
	require.NoError(t, err)

	changed := snapDataset(t)
	sales, err := changed.Column("Sales")
	require.NoError(t, err)
	for i := range sales {
		sales[i] += 7 * float64(1-2*(i%2))
	}
	require.NoError(t, changed.SetColumn("Sales", sales))

	core, logs := observer.New(zapcore.WarnLevel)
	loaded, err := Load(data, changed, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, 1, logs.FilterMessage("reloaded fit drifted from snapshot").Len())
}

func TestLoadUnknownTransformKind(t *testing.T) {
	state := []byte(`{"name":"future","target":"Sales","features":[{"name":"TV","transform":{"kind":"mystery_v2"}}]}`)
	framed := frame(compress.TypeNone, state)

	core, logs := observer.New(zapcore.WarnLevel)
	loaded, err := Load(framed, snapDataset(t), WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, []string{"TV"}, loaded.Features())

	// The unrecognized transform passes the column through with a
	// warning; with no saved fit there is nothing to drift from.
	require.Equal(t, 1, logs.FilterMessage("unknown transform kind, passing through").Len())
	require.Zero(t, logs.FilterMessage("reloaded fit drifted from snapshot").Len())

	coef, ok := loaded.Coefficient("TV")
	require.True(t, ok)
	require.False(t, math.IsNaN(coef))
}
