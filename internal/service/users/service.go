package users

import (
	"context"
	"fmt"

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

// Register validates the payload, allocates an id and stores the user.
//
// Parameters:
//   - ctx: request-scoped context.
//   - username: the user's display name.
//   - email: the user's email address.
//
// Returns:
//   - *domain.User: the stored user.
//   - error: users.ErrInvalidPayload if username or email is empty.
func (s *Service) Register(ctx context.Context, username, email string) (*domain.User, error) {
	const op = "service.users.Register"

	if username == "" || email == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidPayload)
	}

	var user domain.User

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		seq *repository.Sequence,
		_ func(uow.AfterCommit),
	) error {
		id, err := seq.Next(ctx)
		if err != nil {
			return err
		}

		user = domain.User{
			ID:       id,
			Username: username,
			Email:    email,
		}

		return s.store.Users().Put(ctx, id, user)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &user, nil
}
