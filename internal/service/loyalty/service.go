package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/venuegate/venuegate/internal/domain"
	"github.com/venuegate/venuegate/internal/repository"
	"github.com/venuegate/venuegate/internal/uow"
)

type Service struct {
	store *repository.Store
	uow   *uow.UoW
}

func New(store *repository.Store) *Service {
	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
	}
}

// Award credits the points earned for a purchase of the given amount to
// the user's account, creating a fresh bronze account when none exists.
//
// Parameters:
//   - ctx: request-scoped context.
//   - userID: ID of the user to credit.
//   - amount: the purchase amount the points are earned from.
//
// Returns:
//   - *domain.LoyaltyAccount: the updated account.
func (s *Service) Award(ctx context.Context, userID, amount uint64) (*domain.LoyaltyAccount, error) {
	const op = "service.loyalty.Award"

	var acc domain.LoyaltyAccount

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		_ *repository.Sequence,
		_ func(uow.AfterCommit),
	) error {
		a, _, err := s.store.LoyaltyOrDefault(ctx, userID)
		if err != nil {
			return err
		}

		ApplyAward(&a, amount, time.Now())

		if err := s.store.Loyalty().Put(ctx, userID, a); err != nil {
			return err
		}

		acc = a

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &acc, nil
}

// Redeem deducts points from the user's account and records the
// redemption. The tier is deliberately left as awarded, so an account can
// keep a high tier after redeeming down to a low balance.
//
// Parameters:
//   - ctx: request-scoped context.
//   - userID: ID of the user redeeming.
//   - points: the number of points to redeem.
//
// Returns:
//   - error: loyalty.ErrAccountNotFound if the user has no account.
//   - error: loyalty.ErrInsufficientPoints if the balance is too low.
func (s *Service) Redeem(ctx context.Context, userID, points uint64) error {
	const op = "service.loyalty.Redeem"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		_ *repository.Sequence,
		_ func(uow.AfterCommit),
	) error {
		acc, found, err := s.store.Loyalty().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if !found {
			return fmt.Errorf("%s:%w", op, ErrAccountNotFound)
		}

		if acc.Points < points {
			return fmt.Errorf("%s:%w", op, ErrInsufficientPoints)
		}

		acc.Points -= points
		acc.History = append(acc.History, domain.PointsTransaction{
			Timestamp:   time.Now(),
			Points:      -int64(points),
			Description: "Points redemption",
		})

		return s.store.Loyalty().Put(ctx, userID, acc)
	})
}

// Get retrieves the loyalty account for a user.
//
// Parameters:
//   - ctx: request-scoped context.
//   - userID: ID of the user.
//
// Returns:
//   - *domain.LoyaltyAccount: the account.
//   - error: loyalty.ErrAccountNotFound if the user has no account.
func (s *Service) Get(ctx context.Context, userID uint64) (*domain.LoyaltyAccount, error) {
	const op = "service.loyalty.Get"

	var acc domain.LoyaltyAccount

	err := s.store.View(ctx, func(ctx context.Context) error {
		a, found, err := s.store.Loyalty().Get(ctx, userID)
		if err != nil {
			return err
		}
		if !found {
			return ErrAccountNotFound
		}

		acc = a

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &acc, nil
}
