package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/inventory"
	"github.com/hackgods/vaccine-scheduling/internal/storage/memory"
)

func withLedger(t *testing.T, store *memory.Store, fn func(ctx context.Context, l *inventory.Ledger) error) error {
	t.Helper()
	return store.Do(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return fn(ctx, inventory.NewLedger(tx.Vaccines()))
	})
}

func TestLedgerIncreaseDecrease(t *testing.T) {
	store := memory.New()

	err := withLedger(t, store, func(ctx context.Context, l *inventory.Ledger) error {
		v, err := l.Increase(ctx, " Pfizer ", 3)
		require.NoError(t, err)
		assert.Equal(t, inventory.VaccineStock{Name: "Pfizer", AvailableDoses: 3}, v)

		v, err = l.Increase(ctx, "Pfizer", 2)
		require.NoError(t, err)
		assert.Equal(t, 5, v.AvailableDoses)

		v, err = l.Decrease(ctx, "Pfizer", 5)
		require.NoError(t, err)
		assert.Equal(t, 0, v.AvailableDoses)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Pfizer": 0}, store.Snapshot().Vaccines)
}

func TestLedgerInsufficientStock(t *testing.T) {
	store := memory.New()

	err := withLedger(t, store, func(ctx context.Context, l *inventory.Ledger) error {
		_, err := l.Increase(ctx, "moderna", 1)
		require.NoError(t, err)

		_, err = l.Decrease(ctx, "moderna", 2)
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

		_, err = l.Decrease(ctx, "unknown", 1)
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

		snap, err := l.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []inventory.VaccineStock{{Name: "moderna", AvailableDoses: 1}}, snap)
		return nil
	})
	require.NoError(t, err)
}

func TestLedgerRejectsBadInput(t *testing.T) {
	store := memory.New()

	err := withLedger(t, store, func(ctx context.Context, l *inventory.Ledger) error {
		_, err := l.Increase(ctx, "pfizer", 0)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

		_, err = l.Decrease(ctx, "pfizer", -1)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

		_, err = l.Increase(ctx, "  ", 1)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, store.Snapshot().Vaccines)
}

func TestLedgerEnsureAndSnapshotOrder(t *testing.T) {
	store := memory.New()

	err := withLedger(t, store, func(ctx context.Context, l *inventory.Ledger) error {
		for _, name := range []string{"pfizer", "janssen", "moderna"} {
			v, err := l.Ensure(ctx, name)
			require.NoError(t, err)
			assert.Zero(t, v.AvailableDoses)
		}
		_, err := l.Increase(ctx, "moderna", 4)
		require.NoError(t, err)

		v, err := l.Ensure(ctx, "moderna")
		require.NoError(t, err)
		assert.Equal(t, 4, v.AvailableDoses, "ensure must not reset an existing count")

		snap, err := l.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, snap, 3)
		assert.Equal(t, "janssen", snap[0].Name)
		assert.Equal(t, "moderna", snap[1].Name)
		assert.Equal(t, "pfizer", snap[2].Name)
		return nil
	})
	require.NoError(t, err)
}
