package tickets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/venuegate/venuegate/internal/domain"
	"github.com/venuegate/venuegate/internal/repository"
	"github.com/venuegate/venuegate/internal/service/events"
	"github.com/venuegate/venuegate/internal/service/loyalty"
	"github.com/venuegate/venuegate/internal/service/users"
	"github.com/venuegate/venuegate/internal/storage"
	"github.com/venuegate/venuegate/internal/storage/leveldb"
)

type testEnv struct {
	store   *repository.Store
	tickets *Service
	events  *events.Service
	users   *users.Service
	loyalty *loyalty.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kv, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	store, err := repository.NewStore(context.Background(), kv)
	require.NoError(t, err)

	return &testEnv{
		store:   store,
		tickets: New(store, nil, nil, nil),
		events:  events.New(store, nil, nil, events.Config{}),
		users:   users.New(store),
		loyalty: loyalty.New(store),
	}
}

var testDate = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func (e *testEnv) createEvent(t *testing.T, price, total uint64) *domain.Event {
	t.Helper()

	ev, err := e.events.Create(context.Background(), "gig", "venue", testDate, price, total)
	require.NoError(t, err)

	return ev
}

func TestService_Purchase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects empty seat number", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 100, 10)

		_, err := env.tickets.Purchase(ctx, ev.ID, 1, "", "")
		require.ErrorIs(t, err, ErrSeatRequired)
	})

	t.Run("fails for unknown event", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.tickets.Purchase(ctx, 99, 1, "A1", "")
		require.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("issues ticket at the flat price and increments sold", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 100, 10)

		ticket, err := env.tickets.Purchase(ctx, ev.ID, 7, "A1", "")
		require.NoError(t, err)
		require.Equal(t, ev.ID, ticket.EventID)
		require.Equal(t, uint64(7), ticket.UserID)
		require.Equal(t, "A1", ticket.SeatNumber)
		require.Equal(t, uint64(100), ticket.Price)
		require.False(t, ticket.PurchaseDate.IsZero())

		updated, _, err := env.store.Events().Get(ctx, ev.ID)
		require.NoError(t, err)
		require.Equal(t, uint64(1), updated.TicketsSold)

		stored, found, err := env.store.Tickets().Get(ctx, ticket.ID)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, ticket.ID, stored.ID)
		require.Equal(t, ticket.Price, stored.Price)
		require.True(t, stored.PurchaseDate.Equal(ticket.PurchaseDate))
	})

	t.Run("never oversells", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 100, 1)

		_, err := env.tickets.Purchase(ctx, ev.ID, 1, "A1", "")
		require.NoError(t, err)

		_, err = env.tickets.Purchase(ctx, ev.ID, 2, "A2", "")
		require.ErrorIs(t, err, ErrSoldOut)

		updated, _, err := env.store.Events().Get(ctx, ev.ID)
		require.NoError(t, err)
		require.Equal(t, uint64(1), updated.TicketsSold)
	})

	t.Run("never oversells under concurrent purchases", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 100, 5)

		const buyers = 20
		errs := make(chan error, buyers)
		for i := 0; i < buyers; i++ {
			go func(user uint64) {
				_, err := env.tickets.Purchase(ctx, ev.ID, user, "A1", "")
				errs <- err
			}(uint64(i + 1))
		}

		var sold, rejected int
		for n := 0; n < buyers; n++ {
			if err := <-errs; err == nil {
				sold++
			} else {
				require.ErrorIs(t, err, ErrSoldOut)
				rejected++
			}
		}
		require.Equal(t, 5, sold)
		require.Equal(t, 15, rejected)

		updated, _, err := env.store.Events().Get(ctx, ev.ID)
		require.NoError(t, err)
		require.Equal(t, uint64(5), updated.TicketsSold)
	})
}

func TestService_PurchaseDynamic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("fails for unknown event", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.tickets.PurchaseDynamic(ctx, 99, 1, "A1", "")
		require.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("fails when sold out", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 1000, 1)

		_, err := env.tickets.PurchaseDynamic(ctx, ev.ID, 1, "A1", "")
		require.NoError(t, err)

		_, err = env.tickets.PurchaseDynamic(ctx, ev.ID, 2, "A2", "")
		require.ErrorIs(t, err, ErrSoldOut)
	})

	t.Run("accepts an empty seat number", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 1000, 4)

		ticket, err := env.tickets.PurchaseDynamic(ctx, ev.ID, 1, "", "")
		require.NoError(t, err)
		require.Equal(t, "", ticket.SeatNumber)
	})

	t.Run("prices by demand with no account discount", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 1000, 4)

		// 0 of 4 sold: multiplier 0.5
		ticket, err := env.tickets.PurchaseDynamic(ctx, ev.ID, 1, "A1", "")
		require.NoError(t, err)
		require.Equal(t, uint64(500), ticket.Price)
	})

	t.Run("applies the purchaser's tier discount", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 1000, 4)

		// 3000 points puts the user on silver
		_, err := env.loyalty.Award(ctx, 1, 20000)
		require.NoError(t, err)

		// 0 of 4 sold: dynamic price 500, silver pays 90%
		ticket, err := env.tickets.PurchaseDynamic(ctx, ev.ID, 1, "A1", "")
		require.NoError(t, err)
		require.Equal(t, uint64(450), ticket.Price)
	})

	t.Run("awards points for the final price", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 1000, 4)

		ticket, err := env.tickets.PurchaseDynamic(ctx, ev.ID, 1, "A1", "")
		require.NoError(t, err)
		require.Equal(t, uint64(500), ticket.Price)

		acc, found, err := env.store.Loyalty().Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, found)
		// 500 earns base 50 + 25% bonus
		require.Equal(t, uint64(62), acc.Points)
		require.Equal(t, domain.TierBronze, acc.Tier)
		require.Len(t, acc.History, 1)
	})

	t.Run("demand raises the price for later buyers", func(t *testing.T) {
		env := newTestEnv(t)
		ev := env.createEvent(t, 1000, 4)

		first, err := env.tickets.PurchaseDynamic(ctx, ev.ID, 1, "A1", "")
		require.NoError(t, err)

		// 2 of 4 sold: multiplier 1.0; buyer 1 is now bronze (95%)
		_, err = env.tickets.Purchase(ctx, ev.ID, 2, "A2", "")
		require.NoError(t, err)

		second, err := env.tickets.PurchaseDynamic(ctx, ev.ID, 1, "A3", "")
		require.NoError(t, err)
		require.Equal(t, uint64(500), first.Price)
		require.Equal(t, uint64(950), second.Price)
	})
}

// gatedKV wraps a KV and, once armed, parks the caller of its n-th Put
// until released.
type gatedKV struct {
	storage.KV

	mu      sync.Mutex
	armed   bool
	puts    int
	holdAt  int
	parked  chan struct{}
	release chan struct{}
}

func (g *gatedKV) arm() {
	g.mu.Lock()
	g.armed = true
	g.mu.Unlock()
}

func (g *gatedKV) Put(ctx context.Context, key, value []byte) error {
	g.mu.Lock()
	hold := false
	if g.armed {
		g.puts++
		hold = g.puts == g.holdAt
	}
	g.mu.Unlock()

	if hold {
		close(g.parked)
		<-g.release
	}

	return g.KV.Put(ctx, key, value)
}

func TestReadersNeverObserveHalfAppliedPurchase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	kv, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	// a purchase writes the counter, the event, then the ticket; park the
	// writer between the event and ticket writes
	gated := &gatedKV{
		KV:      kv,
		holdAt:  3,
		parked:  make(chan struct{}),
		release: make(chan struct{}),
	}

	store, err := repository.NewStore(ctx, gated)
	require.NoError(t, err)

	eventsSvc := events.New(store, nil, nil, events.Config{})
	ticketsSvc := New(store, nil, nil, nil)

	ev, err := eventsSvc.Create(ctx, "gig", "venue", testDate, 100, 10)
	require.NoError(t, err)

	gated.arm()

	purchaseErr := make(chan error, 1)
	go func() {
		_, err := ticketsSvc.Purchase(ctx, ev.ID, 7, "A1", "")
		purchaseErr <- err
	}()

	<-gated.parked

	// reads started mid-purchase must wait it out rather than see the
	// incremented counter without the ticket
	type snapshot struct {
		sold    uint64
		tickets int
		err     error
	}
	read := make(chan snapshot, 1)
	go func() {
		counts, err := eventsSvc.Availability(ctx, ev.ID)
		if err != nil {
			read <- snapshot{err: err}
			return
		}
		list, err := ticketsSvc.ListForUser(ctx, 7)
		if err != nil {
			read <- snapshot{err: err}
			return
		}
		read <- snapshot{sold: counts.Sold, tickets: len(list)}
	}()

	time.Sleep(20 * time.Millisecond)
	close(gated.release)
	require.NoError(t, <-purchaseErr)

	got := <-read
	require.NoError(t, got.err)
	require.Equal(t, uint64(1), got.sold)
	require.Equal(t, 1, got.tickets)
}

func TestService_ListForUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	ev := env.createEvent(t, 100, 10)

	list, err := env.tickets.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, list)

	mine, err := env.tickets.Purchase(ctx, ev.ID, 1, "A1", "")
	require.NoError(t, err)
	_, err = env.tickets.Purchase(ctx, ev.ID, 2, "A2", "")
	require.NoError(t, err)

	list, err = env.tickets.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, mine.ID, list[0].ID)
	require.Equal(t, ev.ID, list[0].EventID)
}

func TestSharedIdentifierSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.users.Register(ctx, "alice", "a@x.com")
	require.NoError(t, err)

	ev, err := env.events.Create(ctx, "gig", "venue", testDate, 100, 10)
	require.NoError(t, err)

	ticket, err := env.tickets.Purchase(ctx, ev.ID, u.ID, "A1", "")
	require.NoError(t, err)

	// one global sequence feeds every entity kind
	require.Equal(t, uint64(1), u.ID)
	require.Equal(t, uint64(2), ev.ID)
	require.Equal(t, uint64(3), ticket.ID)
}
