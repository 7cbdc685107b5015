package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mixfit/errs"
)

func TestCreateAdstockVariable(t *testing.T) {
	t.Run("carryover recursion over the full dataset", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateAdstockVariable("TV", 0.3)
		require.NoError(t, err)
		require.Equal(t, "TV_adstock_30", name)
		require.True(t, m.HasColumn(name))

		col, err := m.WindowColumn(name)
		require.NoError(t, err)
		require.InDelta(t, 10.0, col[0], 0)
		require.InDelta(t, 20+0.3*10, col[1], 1e-12)
		require.InDelta(t, 15+0.3*(20+0.3*10), col[2], 1e-12)
	})

	t.Run("rate encodes into the name", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateAdstockVariable("TV", 0.85)
		require.NoError(t, err)
		require.Equal(t, "TV_adstock_85", name)
	})

	t.Run("recreating regenerates in place", func(t *testing.T) {
		m := testModel(t)

		first, err := m.CreateAdstockVariable("TV", 0.3)
		require.NoError(t, err)
		second, err := m.CreateAdstockVariable("TV", 0.3)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("derived column works as a feature", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateAdstockVariable("TV", 0.3)
		require.NoError(t, err)
		require.NoError(t, m.AddFeature(name))
		require.Equal(t, []string{name}, m.Features())
	})

	t.Run("visible through an active window", func(t *testing.T) {
		m := testModel(t)
		require.NoError(t, m.SetDateWindow(date(2024, 2, 4), date(2024, 3, 10)))

		name, err := m.CreateAdstockVariable("TV", 0.3)
		require.NoError(t, err)

		// The column materializes over the full dataset and the window
		// slices it, so carry-over from before the window is preserved.
		col, err := m.WindowColumn(name)
		require.NoError(t, err)
		require.Len(t, col, 6)
		full := 0.0
		for i := 0; i <= 4; i++ {
			full = testTV[i] + 0.3*full
		}
		require.InDelta(t, full, col[0], 1e-12)
	})

	t.Run("validation", func(t *testing.T) {
		m := testModel(t)

		_, err := m.CreateAdstockVariable("TV", 1.0)
		require.ErrorIs(t, err, errs.ErrInvalidTransform)
		_, err = m.CreateAdstockVariable("Nope", 0.3)
		require.ErrorIs(t, err, errs.ErrColumnNotFound)
	})
}

func TestCreateLagVariable(t *testing.T) {
	m := testModel(t)

	name, err := m.CreateLagVariable("TV", 2)
	require.NoError(t, err)
	require.Equal(t, "TV|LAG 2", name)

	col, err := m.WindowColumn(name)
	require.NoError(t, err)
	require.True(t, math.IsNaN(col[0]))
	require.True(t, math.IsNaN(col[1]))
	require.InDelta(t, testTV[0], col[2], 0)
	require.InDelta(t, testTV[len(testTV)-3], col[len(col)-1], 0)

	_, err = m.CreateLagVariable("TV", 0)
	require.ErrorIs(t, err, errs.ErrInvalidTransform)
}

func TestCreateLeadVariable(t *testing.T) {
	m := testModel(t)

	name, err := m.CreateLeadVariable("TV", 1)
	require.NoError(t, err)
	require.Equal(t, "TV|LEAD 1", name)

	col, err := m.WindowColumn(name)
	require.NoError(t, err)
	require.InDelta(t, testTV[1], col[0], 0)
	require.True(t, math.IsNaN(col[len(col)-1]))
}

func TestCreateSplitVariable(t *testing.T) {
	t.Run("zeroes rows outside the range", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateSplitVariable("TV", date(2024, 1, 7), date(2024, 1, 28), "")
		require.NoError(t, err)
		require.Equal(t, "TV|SPLIT 20240107-20240128", name)

		col, err := m.WindowColumn(name)
		require.NoError(t, err)
		for i := 0; i < 4; i++ {
			require.InDelta(t, testTV[i], col[i], 0)
		}
		for i := 4; i < len(col); i++ {
			require.InDelta(t, 0.0, col[i], 0)
		}
	})

	t.Run("custom identifier", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateSplitVariable("TV", date(2024, 1, 7), date(2024, 1, 28), "launch")
		require.NoError(t, err)
		require.Equal(t, "TV|SPLIT launch", name)
	})

	t.Run("open sides", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateSplitVariable("TV", time.Time{}, date(2024, 1, 28), "")
		require.NoError(t, err)
		require.Equal(t, "TV|SPLIT -20240128", name)

		name, err = m.CreateSplitVariable("TV", time.Time{}, time.Time{}, "")
		require.NoError(t, err)
		require.Equal(t, "TV|SPLIT split", name)
	})
}

func TestCreateProductVariable(t *testing.T) {
	t.Run("elementwise product", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateProductVariable("TV", "Radio", "")
		require.NoError(t, err)
		require.Equal(t, "TV*Radio|MULT TV*Radio", name)

		col, err := m.WindowColumn(name)
		require.NoError(t, err)
		for i := range col {
			require.InDelta(t, testTV[i]*testRadio[i], col[i], 0)
		}
	})

	t.Run("custom identifier", func(t *testing.T) {
		m := testModel(t)

		name, err := m.CreateProductVariable("TV", "Radio", "synergy")
		require.NoError(t, err)
		require.Equal(t, "TV*Radio|MULT synergy", name)
	})

	t.Run("validation", func(t *testing.T) {
		m := testModel(t)

		_, err := m.CreateProductVariable("TV", "Nope", "")
		require.ErrorIs(t, err, errs.ErrColumnNotFound)
		_, err = m.CreateProductVariable("Nope", "Radio", "")
		require.ErrorIs(t, err, errs.ErrColumnNotFound)
	})
}
