package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/venuegate/venuegate/internal/domain"
	"github.com/venuegate/venuegate/internal/pricing"
	"github.com/venuegate/venuegate/internal/redisx"
	"github.com/venuegate/venuegate/internal/repository"
	redisrepo "github.com/venuegate/venuegate/internal/repository/redis"
	"github.com/venuegate/venuegate/internal/service/loyalty"
	"github.com/venuegate/venuegate/internal/uow"
)

type Service struct {
	store   *repository.Store
	cache   *redisrepo.Cache
	pubsub  *redisx.EventsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
}

func New(
	store *repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.NewUoW(store),
	}
}

// Purchase issues a ticket at the event's flat price. The inventory check
// and the sold-counter increment happen inside one exclusive section, so
// concurrent purchases can never oversell an event.
//
// Parameters:
//   - ctx: request-scoped context.
//   - eventID: ID of the event.
//   - userID: ID of the purchasing user.
//   - seat: seat number, must be non-empty.
//   - rlKey: rate-limit bucket key, empty to skip limiting.
//
// Returns:
//   - *domain.Ticket: the issued ticket.
//   - error: tickets.ErrSeatRequired if seat is empty.
//   - error: tickets.ErrEventNotFound if the event does not exist.
//   - error: tickets.ErrSoldOut if the event has no tickets left.
func (s *Service) Purchase(
	ctx context.Context,
	eventID, userID uint64,
	seat string,
	rlKey string,
) (*domain.Ticket, error) {
	const op = "service.tickets.Purchase"

	if seat == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrSeatRequired)
	}

	if err := s.allow(ctx, rlKey); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var ticket domain.Ticket

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		seq *repository.Sequence,
		after func(uow.AfterCommit),
	) error {
		event, found, err := s.store.Events().Get(ctx, eventID)
		if err != nil {
			return err
		}
		if !found {
			return ErrEventNotFound
		}

		if event.TicketsSold >= event.TotalTickets {
			return ErrSoldOut
		}

		id, err := seq.Next(ctx)
		if err != nil {
			return err
		}

		ticket = domain.Ticket{
			ID:           id,
			EventID:      eventID,
			UserID:       userID,
			PurchaseDate: time.Now(),
			SeatNumber:   seat,
			Price:        event.TicketPrice,
		}

		event.TicketsSold++
		if err := s.store.Events().Put(ctx, eventID, event); err != nil {
			return err
		}

		if err := s.store.Tickets().Put(ctx, id, ticket); err != nil {
			return err
		}

		after(s.eventChanged(eventID))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &ticket, nil
}

// PurchaseDynamic issues a ticket priced by current demand and the
// purchaser's loyalty tier, and credits loyalty points for the final
// price as a best-effort side effect. Unlike Purchase it accepts an empty
// seat number; existence and inventory checks are the same.
//
// Parameters:
//   - ctx: request-scoped context.
//   - eventID: ID of the event.
//   - userID: ID of the purchasing user.
//   - seat: seat number, may be empty.
//   - rlKey: rate-limit bucket key, empty to skip limiting.
//
// Returns:
//   - *domain.Ticket: the issued ticket, priced dynamically.
//   - error: tickets.ErrEventNotFound if the event does not exist.
//   - error: tickets.ErrSoldOut if the event has no tickets left.
func (s *Service) PurchaseDynamic(
	ctx context.Context,
	eventID, userID uint64,
	seat string,
	rlKey string,
) (*domain.Ticket, error) {
	const op = "service.tickets.PurchaseDynamic"

	if err := s.allow(ctx, rlKey); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var ticket domain.Ticket

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		seq *repository.Sequence,
		after func(uow.AfterCommit),
	) error {
		event, found, err := s.store.Events().Get(ctx, eventID)
		if err != nil {
			return err
		}
		if !found {
			return ErrEventNotFound
		}

		if event.TicketsSold >= event.TotalTickets {
			return ErrSoldOut
		}

		price := pricing.DynamicPrice(event)

		// Purchasers without a loyalty account pay full price.
		var tier domain.Tier
		if acc, found, err := s.store.Loyalty().Get(ctx, userID); err != nil {
			return err
		} else if found {
			tier = acc.Tier
		}
		price = pricing.ApplyTierDiscount(price, tier)

		id, err := seq.Next(ctx)
		if err != nil {
			return err
		}

		ticket = domain.Ticket{
			ID:           id,
			EventID:      eventID,
			UserID:       userID,
			PurchaseDate: time.Now(),
			SeatNumber:   seat,
			Price:        price,
		}

		event.TicketsSold++
		if err := s.store.Events().Put(ctx, eventID, event); err != nil {
			return err
		}

		// Best-effort points award for the final price; failure here must
		// not fail the purchase.
		if acc, _, err := s.store.LoyaltyOrDefault(ctx, userID); err == nil {
			loyalty.ApplyAward(&acc, price, time.Now())
			_ = s.store.Loyalty().Put(ctx, userID, acc)
		}

		if err := s.store.Tickets().Put(ctx, id, ticket); err != nil {
			return err
		}

		after(s.eventChanged(eventID))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &ticket, nil
}

// ListForUser returns the user's tickets in ascending ticket-id order.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]domain.Ticket, error) {
	const op = "service.tickets.ListForUser"

	var out []domain.Ticket

	err := s.store.View(ctx, func(ctx context.Context) error {
		return s.store.Tickets().Scan(ctx, func(_ uint64, t domain.Ticket) error {
			if t.UserID == userID {
				out = append(out, t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) allow(ctx context.Context, rlKey string) error {
	if s.limiter == nil || rlKey == "" {
		return nil
	}

	ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("rate limited, retry in %s", retry)
	}

	return nil
}

func (s *Service) eventChanged(eventID uint64) uow.AfterCommit {
	return func(ctx context.Context) {
		if s.cache != nil {
			_ = s.cache.InvalidateEvent(ctx, eventID)
		}
		if s.pubsub != nil {
			_ = s.pubsub.PublishEventChanged(ctx, eventID)
		}
	}
}
