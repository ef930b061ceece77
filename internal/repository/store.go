package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/venuegate/venuegate/internal/domain"
	"github.com/venuegate/venuegate/internal/storage"
)

// Store aggregates the entity tables and the shared id allocator over one
// KV backend. It is the application state: constructed once at startup and
// injected into every service.
//
// Mutating operations read-then-write shared records (inventory counters,
// point balances), so the store carries a single writer lock; RunExclusive
// is the only way to reach the allocator and is how services serialize
// their write sets. Read operations take the same lock through View.
type Store struct {
	mu sync.Mutex

	kv  storage.KV
	seq *Sequence

	users   *Table[domain.User]
	events  *Table[domain.Event]
	tickets *Table[domain.Ticket]
	loyalty *Table[domain.LoyaltyAccount]
	seating *Table[domain.EventSeating]
}

func NewStore(ctx context.Context, kv storage.KV) (*Store, error) {
	const op = "repository.NewStore"

	seq, err := loadSequence(ctx, kv)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Store{
		kv:      kv,
		seq:     seq,
		users:   NewTable[domain.User](kv, regionUsers),
		events:  NewTable[domain.Event](kv, regionEvents),
		tickets: NewTable[domain.Ticket](kv, regionTickets),
		loyalty: NewTable[domain.LoyaltyAccount](kv, regionLoyalty),
		seating: NewTable[domain.EventSeating](kv, regionSeating),
	}, nil
}

func (s *Store) Users() *Table[domain.User]             { return s.users }
func (s *Store) Events() *Table[domain.Event]           { return s.events }
func (s *Store) Tickets() *Table[domain.Ticket]         { return s.tickets }
func (s *Store) Loyalty() *Table[domain.LoyaltyAccount] { return s.loyalty }
func (s *Store) Seating() *Table[domain.EventSeating]   { return s.seating }

// RunExclusive runs fn as the sole writer. The allocator handed to fn is
// only valid for the duration of the call.
func (s *Store) RunExclusive(ctx context.Context, fn func(ctx context.Context, seq *Sequence) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(ctx, s.seq)
}

// View runs fn under the same lock as RunExclusive. Read operations go
// through here so they never observe a writer's half-applied write set.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(ctx)
}

// LoyaltyOrDefault returns the account for userID, or a fresh zero-point
// bronze account when none exists. found reports whether the account was
// persisted before the call.
func (s *Store) LoyaltyOrDefault(ctx context.Context, userID uint64) (domain.LoyaltyAccount, bool, error) {
	acc, found, err := s.loyalty.Get(ctx, userID)
	if err != nil {
		return domain.LoyaltyAccount{}, false, err
	}

	if !found {
		acc = domain.LoyaltyAccount{UserID: userID, Tier: domain.TierBronze}
	}

	return acc, found, nil
}

// Close releases the underlying KV backend.
func (s *Store) Close() error {
	return s.kv.Close()
}
