package loyalty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/venuegate/venuegate/internal/domain"
	"github.com/venuegate/venuegate/internal/repository"
	"github.com/venuegate/venuegate/internal/storage/leveldb"
)

func newTestService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()

	kv, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	store, err := repository.NewStore(context.Background(), kv)
	require.NoError(t, err)

	return New(store), store
}

func TestService_Award(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates a fresh bronze account on first award", func(t *testing.T) {
		svc, _ := newTestService(t)

		acc, err := svc.Award(ctx, 1, 1000)
		require.NoError(t, err)
		require.Equal(t, uint64(1), acc.UserID)
		require.Equal(t, uint64(150), acc.Points)
		require.Equal(t, domain.TierBronze, acc.Tier)
		require.Len(t, acc.History, 1)
		require.False(t, acc.History[0].Timestamp.IsZero())
	})

	t.Run("accumulates and upgrades tier", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Award(ctx, 1, 20000) // 3000 points
		require.NoError(t, err)

		acc, err := svc.Award(ctx, 1, 20000) // 6000 points
		require.NoError(t, err)
		require.Equal(t, uint64(6000), acc.Points)
		require.Equal(t, domain.TierGold, acc.Tier)
		require.Len(t, acc.History, 2)
	})

	t.Run("persists the account", func(t *testing.T) {
		svc, store := newTestService(t)

		_, err := svc.Award(ctx, 7, 500)
		require.NoError(t, err)

		acc, found, err := store.Loyalty().Get(ctx, 7)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint64(62), acc.Points)
	})
}

func TestService_Redeem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("fails when no account exists", func(t *testing.T) {
		svc, _ := newTestService(t)

		err := svc.Redeem(ctx, 1, 10)
		require.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("fails when balance is too low", func(t *testing.T) {
		svc, store := newTestService(t)

		_, err := svc.Award(ctx, 1, 1000) // 150 points
		require.NoError(t, err)

		err = svc.Redeem(ctx, 1, 151)
		require.ErrorIs(t, err, ErrInsufficientPoints)

		// balance untouched by the failed redemption
		acc, _, err := store.Loyalty().Get(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(150), acc.Points)
		require.Len(t, acc.History, 1)
	})

	t.Run("deducts and records the redemption", func(t *testing.T) {
		svc, store := newTestService(t)

		_, err := svc.Award(ctx, 1, 1000)
		require.NoError(t, err)

		require.NoError(t, svc.Redeem(ctx, 1, 150))

		acc, _, err := store.Loyalty().Get(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(0), acc.Points)
		require.Len(t, acc.History, 2)
		require.Equal(t, int64(-150), acc.History[1].Points)
		require.Equal(t, "Points redemption", acc.History[1].Description)
	})

	t.Run("does not recompute tier", func(t *testing.T) {
		svc, store := newTestService(t)

		_, err := svc.Award(ctx, 1, 40000) // 6000 points, gold
		require.NoError(t, err)

		require.NoError(t, svc.Redeem(ctx, 1, 5900))

		acc, _, err := store.Loyalty().Get(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(100), acc.Points)
		require.Equal(t, domain.TierGold, acc.Tier)
	})
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Get(ctx, 1)
	require.ErrorIs(t, err, ErrAccountNotFound)

	_, err = svc.Award(ctx, 1, 100)
	require.NoError(t, err)

	acc, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(10), acc.Points)
}
