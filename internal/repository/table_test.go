package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/venuegate/venuegate/internal/domain"
	"github.com/venuegate/venuegate/internal/storage/leveldb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	kv, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	store, err := NewStore(context.Background(), kv)
	require.NoError(t, err)

	return store
}

func TestTable_GetPutScan(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.Users().Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, found)

	// inserted out of id order; scan must come back ascending
	require.NoError(t, store.Users().Put(ctx, 7, domain.User{ID: 7, Username: "carol"}))
	require.NoError(t, store.Users().Put(ctx, 2, domain.User{ID: 2, Username: "alice"}))
	require.NoError(t, store.Users().Put(ctx, 5, domain.User{ID: 5, Username: "bob"}))

	u, found, err := store.Users().Get(ctx, 5)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "bob", u.Username)

	var ids []uint64
	err = store.Users().Scan(ctx, func(id uint64, _ domain.User) error {
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 5, 7}, ids)
}

func TestTable_RegionsAreIsolated(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Users().Put(ctx, 1, domain.User{ID: 1, Username: "alice"}))
	require.NoError(t, store.Events().Put(ctx, 1, domain.Event{ID: 1, Name: "gig"}))

	var users int
	err := store.Users().Scan(ctx, func(uint64, domain.User) error {
		users++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, users)

	e, found, err := store.Events().Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "gig", e.Name)
}

func TestSequence_StartsAtOneAndIncreases(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	var ids []uint64
	err := store.RunExclusive(ctx, func(ctx context.Context, seq *Sequence) error {
		for n := 0; n < 5; n++ {
			id, err := seq.Next(ctx)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, ids)
}

func TestSequence_SurvivesRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	kv, err := leveldb.Open(dir)
	require.NoError(t, err)

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)

	err = store.RunExclusive(ctx, func(ctx context.Context, seq *Sequence) error {
		for n := 0; n < 3; n++ {
			if _, err := seq.Next(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	kv, err = leveldb.Open(dir)
	require.NoError(t, err)
	defer kv.Close()

	store, err = NewStore(ctx, kv)
	require.NoError(t, err)

	err = store.RunExclusive(ctx, func(ctx context.Context, seq *Sequence) error {
		require.Equal(t, uint64(3), seq.Current())

		id, err := seq.Next(ctx)
		if err != nil {
			return err
		}
		require.Equal(t, uint64(4), id)
		require.Equal(t, uint64(4), seq.Current())
		return nil
	})
	require.NoError(t, err)
}

func TestLoyaltyOrDefault(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	acc, found, err := store.LoyaltyOrDefault(ctx, 42)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, uint64(42), acc.UserID)
	require.Equal(t, uint64(0), acc.Points)
	require.Equal(t, domain.TierBronze, acc.Tier)

	acc.Points = 100
	require.NoError(t, store.Loyalty().Put(ctx, 42, acc))

	acc, found, err = store.LoyaltyOrDefault(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(100), acc.Points)
}
