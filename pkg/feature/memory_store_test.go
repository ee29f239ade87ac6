package feature_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rollout/pkg/feature"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("SeedValidation", func(t *testing.T) {
		t.Parallel()
		_, err := feature.NewMemoryStore(&feature.Flag{Name: "bad name", Status: feature.StatusActive})
		assert.ErrorIs(t, err, feature.ErrInvalidFlag)
	})

	t.Run("PutGet", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore()
		require.NoError(t, err)

		flag := validFlag()
		require.NoError(t, store.Put(ctx, flag))

		got, err := store.Get(ctx, flag.Name)
		require.NoError(t, err)
		assert.Equal(t, flag, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore()
		require.NoError(t, err)

		_, err = store.Get(ctx, "nope")
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore(validFlag())
		require.NoError(t, err)

		first, err := store.Get(ctx, "checkout.redesign")
		require.NoError(t, err)
		*first.Rollout.Percentage = 99

		second, err := store.Get(ctx, "checkout.redesign")
		require.NoError(t, err)
		assert.Equal(t, 25.0, *second.Rollout.Percentage)
	})

	t.Run("PutStoresCopy", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore()
		require.NoError(t, err)

		flag := validFlag()
		require.NoError(t, store.Put(ctx, flag))
		*flag.Rollout.Percentage = 99

		got, err := store.Get(ctx, flag.Name)
		require.NoError(t, err)
		assert.Equal(t, 25.0, *got.Rollout.Percentage)
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore(validFlag())
		require.NoError(t, err)

		existed, err := store.Delete(ctx, "checkout.redesign")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = store.Delete(ctx, "checkout.redesign")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("ListKeysSortedAndFiltered", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore()
		require.NoError(t, err)
		for _, name := range []string{"checkout.v2", "checkout.v1", "billing.invoices"} {
			require.NoError(t, store.Put(ctx, &feature.Flag{Name: name, Status: feature.StatusActive}))
		}

		all, err := store.ListKeys(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"billing.invoices", "checkout.v1", "checkout.v2"}, all)

		checkout, err := store.ListKeys(ctx, "checkout.")
		require.NoError(t, err)
		assert.Equal(t, []string{"checkout.v1", "checkout.v2"}, checkout)
	})
}
