package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mixfit/errs"
)

func TestRegistry(t *testing.T) {
	t.Run("create get remove", func(t *testing.T) {
		r := NewRegistry()
		ds := testDataset(t)

		m, err := r.Create("base", "Sales", ds)
		require.NoError(t, err)
		require.Equal(t, 1, r.Len())

		got, err := r.Get("base")
		require.NoError(t, err)
		require.Same(t, m, got)

		require.NoError(t, r.Remove("base"))
		require.Equal(t, 0, r.Len())
		_, err = r.Get("base")
		require.ErrorIs(t, err, errs.ErrModelNotFound)
	})

	t.Run("duplicate names", func(t *testing.T) {
		r := NewRegistry()
		ds := testDataset(t)

		_, err := r.Create("base", "Sales", ds)
		require.NoError(t, err)
		_, err = r.Create("base", "Sales", ds)
		require.ErrorIs(t, err, errs.ErrDuplicateModel)

		m, err := New("base", "Sales", ds)
		require.NoError(t, err)
		require.ErrorIs(t, r.Put(m), errs.ErrDuplicateModel)
	})

	t.Run("invalid model construction", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Create("base", "Nope", testDataset(t))
		require.ErrorIs(t, err, errs.ErrColumnNotFound)
		require.Equal(t, 0, r.Len())
	})

	t.Run("names are sorted", func(t *testing.T) {
		r := NewRegistry()
		ds := testDataset(t)

		for _, name := range []string{"zeta", "alpha", "mid"} {
			_, err := r.Create(name, "Sales", ds)
			require.NoError(t, err)
		}
		require.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())

		require.NoError(t, r.Remove("mid"))
		require.Equal(t, []string{"alpha", "zeta"}, r.Names())

		require.ErrorIs(t, r.Remove("mid"), errs.ErrModelNotFound)
	})
}
