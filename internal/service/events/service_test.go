package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/venuegate/venuegate/internal/repository"
	"github.com/venuegate/venuegate/internal/storage/leveldb"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	kv, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	store, err := repository.NewStore(context.Background(), kv)
	require.NoError(t, err)

	return New(store, nil, nil, Config{})
}

var testDate = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func TestService_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects missing fields", func(t *testing.T) {
		svc := newTestService(t)

		cases := []struct {
			name, location string
			date           time.Time
			price, total   uint64
		}{
			{"", "venue", testDate, 100, 10},
			{"gig", "", testDate, 100, 10},
			{"gig", "venue", time.Time{}, 100, 10},
			{"gig", "venue", testDate, 0, 10},
			{"gig", "venue", testDate, 100, 0},
		}

		for _, tc := range cases {
			_, err := svc.Create(ctx, tc.name, tc.location, tc.date, tc.price, tc.total)
			require.ErrorIs(t, err, ErrInvalidPayload)
		}
	})

	t.Run("stores the event with zero sold", func(t *testing.T) {
		svc := newTestService(t)

		e, err := svc.Create(ctx, "gig", "venue", testDate, 100, 10)
		require.NoError(t, err)
		require.Greater(t, e.ID, uint64(0))
		require.Equal(t, uint64(0), e.TicketsSold)
		require.Equal(t, uint64(10), e.TotalTickets)
	})
}

func TestService_GetAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Get(ctx, 99)
	require.ErrorIs(t, err, ErrEventNotFound)

	first, err := svc.Create(ctx, "first", "venue", testDate, 100, 10)
	require.NoError(t, err)
	second, err := svc.Create(ctx, "second", "venue", testDate, 200, 20)
	require.NoError(t, err)

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "first", got.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)
}

func TestService_Availability(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Availability(ctx, 99)
	require.ErrorIs(t, err, ErrEventNotFound)

	e, err := svc.Create(ctx, "gig", "venue", testDate, 100, 10)
	require.NoError(t, err)

	counts, err := svc.Availability(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(0), counts.Sold)
	require.Equal(t, uint64(10), counts.Total)
	require.Equal(t, uint64(10), counts.Remaining)
}

func TestService_Seating(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t)

	t.Run("set fails for missing event", func(t *testing.T) {
		_, err := svc.SetSeating(ctx, 99, []string{"A1"}, nil, nil)
		require.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("get fails before any set", func(t *testing.T) {
		e, err := svc.Create(ctx, "gig", "venue", testDate, 100, 10)
		require.NoError(t, err)

		_, err = svc.GetSeating(ctx, e.ID)
		require.ErrorIs(t, err, ErrSeatingNotFound)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		e, err := svc.Create(ctx, "gig2", "venue", testDate, 100, 10)
		require.NoError(t, err)

		_, err = svc.SetSeating(ctx, e.ID,
			[]string{"V1", "V2"}, []string{"P1"}, []string{"S1", "S2", "S3"})
		require.NoError(t, err)

		seating, err := svc.GetSeating(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e.ID, seating.EventID)
		require.Equal(t, []string{"V1", "V2"}, seating.VIPSeats)
		require.Equal(t, []string{"P1"}, seating.PremiumSeats)
		require.Len(t, seating.StandardSeats, 3)
	})
}
