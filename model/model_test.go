package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mixfit/dataset"
	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/transform"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func weeklyIndex(n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = date(2024, 1, 7).AddDate(0, 0, 7*i)
	}

	return index
}

var (
	testTV    = []float64{10, 20, 15, 30, 25, 40, 35, 50, 45, 60, 55, 70}
	testRadio = []float64{5, 8, 12, 6, 14, 10, 18, 9, 20, 13, 22, 16}
	testPrice = []float64{9, 9.5, 10, 10.5, 10, 9.5, 9, 10, 10.5, 11, 10.5, 10}
)

// testDataset builds a 12-week dataset where Sales follows
// 100 + 2*TV + 3*Radio - 1.5*Price exactly, so a full fit recovers the
// generating coefficients.
func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(weeklyIndex(len(testTV)))
	require.NoError(t, err)

	sales := make([]float64, len(testTV))
	for i := range sales {
		sales[i] = 100 + 2*testTV[i] + 3*testRadio[i] - 1.5*testPrice[i]
	}

	require.NoError(t, ds.AddColumn("Sales", sales))
	require.NoError(t, ds.AddColumn("TV", testTV))
	require.NoError(t, ds.AddColumn("Radio", testRadio))
	require.NoError(t, ds.AddColumn("Price", testPrice))

	return ds
}

func testModel(t *testing.T) *Model {
	t.Helper()

	m, err := New("base", "Sales", testDataset(t))
	require.NoError(t, err)

	return m
}

func TestNew(t *testing.T) {
	t.Run("baseline is intercept only", func(t *testing.T) {
		m := testModel(t)

		require.Empty(t, m.Features())
		require.NotNil(t, m.FitResult())

		// Intercept-only OLS estimates the target mean.
		coef, ok := m.Coefficient(InterceptName)
		require.True(t, ok)
		require.InDelta(t, 2389.75/12, coef, 1e-9)
		require.Equal(t, 12, m.FitResult().NObs)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := New("", "Sales", testDataset(t))
		require.ErrorIs(t, err, errs.ErrEmptyModelName)
	})

	t.Run("nil dataset", func(t *testing.T) {
		_, err := New("m", "Sales", nil)
		require.Error(t, err)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := New("m", "Revenue", testDataset(t))
		require.ErrorIs(t, err, errs.ErrColumnNotFound)
	})
}

func TestAddFeature(t *testing.T) {
	t.Run("recovers generating coefficients", func(t *testing.T) {
		m := testModel(t)

		require.NoError(t, m.AddFeature("TV"))
		require.NoError(t, m.AddFeature("Radio"))
		require.NoError(t, m.AddFeature("Price"))

		s := m.Summary()
		require.Equal(t, []string{"TV", "Radio", "Price"}, s.Features)
		require.InDelta(t, 100.0, s.Coefficients[InterceptName], 1e-6)
		require.InDelta(t, 2.0, s.Coefficients["TV"], 1e-6)
		require.InDelta(t, 3.0, s.Coefficients["Radio"], 1e-6)
		require.InDelta(t, -1.5, s.Coefficients["Price"], 1e-6)
		require.InDelta(t, 1.0, s.RSquared, 1e-9)
	})

	t.Run("explicit transform wins", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeature("TV", transform.Adstock(0.3)))

		tr, ok := m.Transform("TV")
		require.True(t, ok)
		require.Equal(t, transform.KindAdstock, tr.Kind)
		require.InDelta(t, 0.3, tr.Rate, 0)
	})

	t.Run("resolver default applies", func(t *testing.T) {
		resolver := MapResolver{"TV": transform.Standardize()}
		m, err := New("m", "Sales", testDataset(t), WithResolver(resolver))
		require.NoError(t, err)

		require.NoError(t, m.AddFeature("TV"))
		tr, ok := m.Transform("TV")
		require.True(t, ok)
		require.Equal(t, transform.KindStandardize, tr.Kind)

		// Standardized column is the raw column over its window mean.
		col, err := m.TransformedColumn("TV")
		require.NoError(t, err)
		mean := 455.0 / 12
		require.InDelta(t, testTV[0]/mean, col[0], 1e-12)
	})

	t.Run("rejections leave the model untouched", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeature("TV"))

		require.ErrorIs(t, m.AddFeature("TV"), errs.ErrDuplicateFeature)
		require.ErrorIs(t, m.AddFeature("Sales"), errs.ErrTargetAsFeature)
		require.ErrorIs(t, m.AddFeature("Nope"), errs.ErrColumnNotFound)
		require.ErrorIs(t, m.AddFeature("Radio", transform.Adstock(1.2)), errs.ErrInvalidTransform)
		require.ErrorIs(t, m.AddFeature(""), errs.ErrEmptyColumnName)

		require.Equal(t, []string{"TV"}, m.Features())
	})

	t.Run("singular design rolls back", func(t *testing.T) {
		ds := testDataset(t)
		require.NoError(t, ds.AddColumn("TVCopy", testTV))
		m, err := New("m", "Sales", ds)
		require.NoError(t, err)
		require.NoError(t, m.AddFeature("TV"))

		before := m.FitResult()
		err = m.AddFeature("TVCopy")
		require.ErrorIs(t, err, errs.ErrSingularDesign)

		require.Equal(t, []string{"TV"}, m.Features())
		require.Same(t, before, m.FitResult())
	})
}

func TestAddFeatures(t *testing.T) {
	t.Run("batch add", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeatures([]string{"TV", "Radio"}))
		require.Equal(t, []string{"TV", "Radio"}, m.Features())
	})

	t.Run("atomic on failure", func(t *testing.T) {
		m := testModel(t)
		err := m.AddFeatures([]string{"TV", "Nope"})
		require.ErrorIs(t, err, errs.ErrColumnNotFound)
		require.Empty(t, m.Features())
	})

	t.Run("rejects repeated names", func(t *testing.T) {
		m := testModel(t)
		err := m.AddFeatures([]string{"TV", "TV"})
		require.ErrorIs(t, err, errs.ErrDuplicateFeature)
		require.Empty(t, m.Features())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeatures(nil))
		require.Empty(t, m.Features())
	})
}

func TestRemoveFeature(t *testing.T) {
	t.Run("drops feature and transform", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeature("TV", transform.Adstock(0.3)))
		require.NoError(t, m.AddFeature("Radio"))

		require.NoError(t, m.RemoveFeature("TV"))
		require.Equal(t, []string{"Radio"}, m.Features())
		_, ok := m.Transform("TV")
		require.False(t, ok)
	})

	t.Run("unknown feature", func(t *testing.T) {
		m := testModel(t)
		require.ErrorIs(t, m.RemoveFeature("TV"), errs.ErrFeatureNotFound)
	})

	t.Run("removing the last feature matches a fresh model", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeature("TV"))
		require.NoError(t, m.SetFixedCoefficient(InterceptName, 50))

		require.NoError(t, m.RemoveFeature("TV"))
		require.Empty(t, m.FixedCoefficients())

		fresh := testModel(t)
		require.Equal(t, fresh.Summary(), m.Summary())
	})
}

func TestInitialize(t *testing.T) {
	m := testModel(t)
	require.NoError(t, m.SetDateWindow(date(2024, 2, 4), date(2024, 3, 10)))
	require.NoError(t, m.AddFeature("TV"))
	require.NoError(t, m.SetFixedCoefficient("TV", 2))

	require.NoError(t, m.Initialize())

	require.Empty(t, m.Features())
	require.Empty(t, m.FixedCoefficients())

	// The date window survives a reset.
	start, end := m.Window()
	require.Equal(t, date(2024, 2, 4), start)
	require.Equal(t, date(2024, 3, 10), end)
	require.Equal(t, 6, m.FitResult().NObs)
}

func TestSetTransform(t *testing.T) {
	t.Run("changes the fitted column", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeature("TV"))

		raw, err := m.TransformedColumn("TV")
		require.NoError(t, err)
		require.InDelta(t, testTV[0], raw[0], 0)

		require.NoError(t, m.SetTransform("TV", transform.Adstock(0.5)))
		carried, err := m.TransformedColumn("TV")
		require.NoError(t, err)
		require.InDelta(t, testTV[1]+0.5*testTV[0], carried[1], 1e-12)
	})

	t.Run("invalid transform keeps the old one", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeature("TV", transform.Adstock(0.3)))

		err := m.SetTransform("TV", transform.Adstock(-0.1))
		require.ErrorIs(t, err, errs.ErrInvalidTransform)

		tr, _ := m.Transform("TV")
		require.InDelta(t, 0.3, tr.Rate, 0)
	})

	t.Run("unknown feature", func(t *testing.T) {
		m := testModel(t)
		err := m.SetTransform("TV", transform.None())
		require.ErrorIs(t, err, errs.ErrFeatureNotFound)
	})
}

func TestSetDateWindow(t *testing.T) {
	t.Run("restricts observations and recomputes statistics", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.AddFeature("TV", transform.Standardize()))

		require.NoError(t, m.SetDateWindow(date(2024, 2, 4), date(2024, 3, 10)))
		require.Equal(t, 6, m.FitResult().NObs)

		// Standardization now divides by the window mean, not the full mean.
		col, err := m.TransformedColumn("TV")
		require.NoError(t, err)
		windowMean := (25.0 + 40 + 35 + 50 + 45 + 60) / 6
		require.InDelta(t, 25.0/windowMean, col[0], 1e-12)
	})

	t.Run("clear restores the full range", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.SetDateWindow(date(2024, 2, 4), time.Time{}))
		require.Equal(t, 8, m.FitResult().NObs)

		require.NoError(t, m.ClearDateWindow())
		require.Equal(t, 12, m.FitResult().NObs)
	})

	t.Run("impossible window is rejected before mutating", func(t *testing.T) {
		m := testModel(t)
		err := m.SetDateWindow(date(2024, 3, 10), date(2024, 2, 4))
		require.ErrorIs(t, err, errs.ErrEmptyWindow)

		start, end := m.Window()
		require.True(t, start.IsZero())
		require.True(t, end.IsZero())
		require.Equal(t, 12, m.FitResult().NObs)
	})
}

func TestSummaryAndAccessors(t *testing.T) {
	m := testModel(t)
	require.NoError(t, m.AddFeature("TV"))
	require.NoError(t, m.AddFeature("Radio"))

	s := m.Summary()
	require.Len(t, s.Coefficients, 3)
	require.Contains(t, s.Coefficients, InterceptName)
	require.Equal(t, 12, s.NObs)
	require.Greater(t, s.RSquared, 0.9)
	require.GreaterOrEqual(t, s.RSquared, s.AdjRSquared)

	coef, ok := m.Coefficient("TV")
	require.True(t, ok)
	require.Equal(t, s.Coefficients["TV"], coef)

	_, ok = m.Coefficient("Nope")
	require.False(t, ok)

	require.True(t, m.HasColumn("Price"))
	require.False(t, m.HasColumn("Nope"))

	_, err := m.TransformedColumn("Price")
	require.ErrorIs(t, err, errs.ErrFeatureNotFound)

	require.Equal(t, "base", m.Name())
	require.Equal(t, "Sales", m.Target())
	require.Len(t, m.WindowIndex(), 12)
	require.Len(t, m.TargetColumn(), 12)
}

func TestFittedPlusResidualsReproducesTarget(t *testing.T) {
	m := testModel(t)
	require.NoError(t, m.AddFeature("TV"))
	require.NoError(t, m.AddFeature("Radio"))

	fit := m.FitResult()
	target := m.TargetColumn()
	require.Len(t, fit.Fitted, len(target))
	for i := range target {
		require.False(t, math.IsNaN(fit.Fitted[i]))
		require.InDelta(t, target[i], fit.Fitted[i]+fit.Residuals[i], 1e-9)
	}
}

func TestCarryoverRecovery(t *testing.T) {
	// A year of weekly sales driven by TV spend carried forward at 30%
	// per week. The materialized adstock column reproduces the generating
	// recursion value for value, so refitting on it recovers the
	// coefficients exactly.
	const weeks = 52
	tv := make([]float64, weeks)
	sales := make([]float64, weeks)
	carried := 0.0
	for i := range tv {
		tv[i] = 60 + 40*math.Sin(float64(i)/5) + 3*float64(i%7)
		carried = tv[i] + 0.3*carried
		sales[i] = 200 + 1.8*carried
	}

	ds, err := dataset.New(weeklyIndex(weeks))
	require.NoError(t, err)
	require.NoError(t, ds.AddColumn("Sales", sales))
	require.NoError(t, ds.AddColumn("TV", tv))

	m, err := New("carryover", "Sales", ds)
	require.NoError(t, err)
	baseline := m.Summary().RSquared

	name, err := m.CreateAdstockVariable("TV", 0.3)
	require.NoError(t, err)
	require.NoError(t, m.AddFeature(name))

	s := m.Summary()
	require.Equal(t, weeks, s.NObs)
	require.GreaterOrEqual(t, s.RSquared, baseline)
	require.InDelta(t, 1.0, s.RSquared, 1e-9)
	require.InDelta(t, 1.8, s.Coefficients[name], 1e-6)
	require.InDelta(t, 200.0, s.Coefficients[InterceptName], 1e-4)
	require.Positive(t, s.TStats[name])
	require.False(t, math.IsNaN(s.TStats[name]))
	require.Less(t, s.PValues[name], 0.001)
}
