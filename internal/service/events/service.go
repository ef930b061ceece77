package events

import (
	"context"
	"fmt"
	"time"

	"github.com/venuegate/venuegate/internal/domain"
	"github.com/venuegate/venuegate/internal/redisx"
	"github.com/venuegate/venuegate/internal/repository"
	redisrepo "github.com/venuegate/venuegate/internal/repository/redis"
	"github.com/venuegate/venuegate/internal/uow"
)

type Config struct {
	EventSummaryTTL time.Duration
	AvailabilityTTL time.Duration
	SeatingTTL      time.Duration
}

type Service struct {
	store  *repository.Store
	cache  *redisrepo.Cache
	pubsub *redisx.EventsPubSub
	uow    *uow.UoW
	cfg    Config
}

func New(
	store *repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	cfg Config,
) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.SeatingTTL <= 0 {
		cfg.SeatingTTL = 60 * time.Second
	}

	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
		cfg:    cfg,
	}
}

// Create validates the payload, allocates an id and stores the event with
// zero tickets sold.
//
// Parameters:
//   - ctx: request-scoped context.
//   - name, location: event description.
//   - date: when the event takes place.
//   - ticketPrice: flat price per ticket, in whole units.
//   - totalTickets: inventory size.
//
// Returns:
//   - *domain.Event: the stored event.
//   - error: events.ErrInvalidPayload if any field is empty or zero.
func (s *Service) Create(
	ctx context.Context,
	name, location string,
	date time.Time,
	ticketPrice, totalTickets uint64,
) (*domain.Event, error) {
	const op = "service.events.Create"

	if name == "" || location == "" || date.IsZero() ||
		ticketPrice == 0 || totalTickets == 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidPayload)
	}

	var event domain.Event

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		seq *repository.Sequence,
		after func(uow.AfterCommit),
	) error {
		id, err := seq.Next(ctx)
		if err != nil {
			return err
		}

		event = domain.Event{
			ID:           id,
			Name:         name,
			Location:     location,
			Date:         date,
			TicketPrice:  ticketPrice,
			TotalTickets: totalTickets,
			TicketsSold:  0,
		}

		if err := s.store.Events().Put(ctx, id, event); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			if s.pubsub != nil {
				_ = s.pubsub.PublishEventChanged(ctx, id)
			}
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &event, nil
}

// Get retrieves an event by its ID, utilizing the cache when available.
//
// Returns:
//   - *domain.Event: the retrieved event.
//   - error: events.ErrEventNotFound if the event is not found.
func (s *Service) Get(ctx context.Context, id uint64) (*domain.Event, error) {
	const op = "service.events.Get"

	load := func(ctx context.Context) (domain.Event, error) {
		var e domain.Event

		err := s.store.View(ctx, func(ctx context.Context) error {
			got, found, err := s.store.Events().Get(ctx, id)
			if err != nil {
				return err
			}
			if !found {
				return ErrEventNotFound
			}

			e = got

			return nil
		})

		return e, err
	}

	var event domain.Event
	var err error

	if s.cache != nil {
		event, err = redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisx.KeyEventSummary(id),
			s.cfg.EventSummaryTTL,
			load,
		)
	} else {
		event, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &event, nil
}

// List returns every event in ascending id order.
func (s *Service) List(ctx context.Context) ([]domain.Event, error) {
	const op = "service.events.List"

	var out []domain.Event

	err := s.store.View(ctx, func(ctx context.Context) error {
		return s.store.Events().Scan(ctx, func(_ uint64, e domain.Event) error {
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Availability returns ticket counters for an event, utilizing the cache
// when available.
//
// Returns:
//   - *domain.EventCounts: sold/total/remaining counters.
//   - error: events.ErrEventNotFound if the event is not found.
func (s *Service) Availability(ctx context.Context, id uint64) (*domain.EventCounts, error) {
	const op = "service.events.Availability"

	load := func(ctx context.Context) (domain.EventCounts, error) {
		var counts domain.EventCounts

		err := s.store.View(ctx, func(ctx context.Context) error {
			e, found, err := s.store.Events().Get(ctx, id)
			if err != nil {
				return err
			}
			if !found {
				return ErrEventNotFound
			}

			counts = domain.EventCounts{
				Sold:      e.TicketsSold,
				Total:     e.TotalTickets,
				Remaining: e.TotalTickets - e.TicketsSold,
			}

			return nil
		})

		return counts, err
	}

	var counts domain.EventCounts
	var err error

	if s.cache != nil {
		counts, err = redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisx.KeyEventAvailability(id),
			s.cfg.AvailabilityTTL,
			load,
		)
	} else {
		counts, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &counts, nil
}

// SetSeating stores the seat categorization for an event. Seating is a
// descriptive attachment only; purchases do not consult it.
//
// Returns:
//   - error: events.ErrEventNotFound if the event is not found.
func (s *Service) SetSeating(
	ctx context.Context,
	eventID uint64,
	vip, premium, standard []string,
) (*domain.EventSeating, error) {
	const op = "service.events.SetSeating"

	var seating domain.EventSeating

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		_ *repository.Sequence,
		after func(uow.AfterCommit),
	) error {
		_, found, err := s.store.Events().Get(ctx, eventID)
		if err != nil {
			return err
		}
		if !found {
			return ErrEventNotFound
		}

		seating = domain.EventSeating{
			EventID:       eventID,
			VIPSeats:      vip,
			PremiumSeats:  premium,
			StandardSeats: standard,
		}

		if err := s.store.Seating().Put(ctx, eventID, seating); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.Del(ctx, redisx.KeyEventSeating(eventID))
			}
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &seating, nil
}

// GetSeating retrieves the seat categorization for an event.
//
// Returns:
//   - *domain.EventSeating: the seating record.
//   - error: events.ErrSeatingNotFound if no seating was set.
func (s *Service) GetSeating(ctx context.Context, eventID uint64) (*domain.EventSeating, error) {
	const op = "service.events.GetSeating"

	load := func(ctx context.Context) (domain.EventSeating, error) {
		var seating domain.EventSeating

		err := s.store.View(ctx, func(ctx context.Context) error {
			got, found, err := s.store.Seating().Get(ctx, eventID)
			if err != nil {
				return err
			}
			if !found {
				return ErrSeatingNotFound
			}

			seating = got

			return nil
		})

		return seating, err
	}

	var seating domain.EventSeating
	var err error

	if s.cache != nil {
		seating, err = redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisx.KeyEventSeating(eventID),
			s.cfg.SeatingTTL,
			load,
		)
	} else {
		seating, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &seating, nil
}
