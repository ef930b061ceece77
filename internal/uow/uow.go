package uow

import (
	"context"

	"github.com/venuegate/venuegate/internal/repository"
)

// AfterCommit is a function that runs after the exclusive section is left.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work: one operation's write set executed as the
// store's sole writer, with hooks (cache invalidation, notifications) that
// run only when the operation succeeded and the lock has been released.
type UoW struct {
	store *repository.Store
}

func NewUoW(store *repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside the store's exclusive section. After fn returns
// successfully, it executes all after-commit hooks outside the section.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, seq *repository.Sequence, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.store.RunExclusive(ctx, func(ctx context.Context, seq *repository.Sequence) error {
		return fn(ctx, seq, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
