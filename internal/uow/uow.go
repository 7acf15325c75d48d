package uow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirinyoku/eventix/internal/repository"
)

const defaultMaxRetries = 3

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// Func is the body of a unit of work. It receives the transactional scope and
// a registrar for after-commit hooks.
type Func func(ctx context.Context, tx repository.Scope, after func(AfterCommit)) error

// UoW runs check-then-act sequences atomically.
type UoW struct {
	store      repository.Store
	maxRetries int
	logger     *slog.Logger
}

type Option func(*UoW)

// WithMaxRetries bounds how many times a transaction that failed with
// repository.ErrRetryable is re-run.
func WithMaxRetries(n int) Option {
	return func(u *UoW) {
		if n >= 0 {
			u.maxRetries = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(u *UoW) {
		if logger != nil {
			u.logger = logger
		}
	}
}

func NewUoW(store repository.Store, opts ...Option) *UoW {
	u := &UoW{
		store:      store,
		maxRetries: defaultMaxRetries,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Do runs fn inside a transaction. On a retryable failure fn is run again
// from scratch with a fresh set of hooks. After a successful commit, it
// executes all after-commit hooks.
func (u *UoW) Do(ctx context.Context, fn Func) error {
	var err error

	for attempt := 0; ; attempt++ {
		var hooks []AfterCommit

		err = u.store.RunTx(ctx, func(ctx context.Context, tx repository.Scope) error {
			return fn(ctx, tx, func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil {
			for _, h := range hooks {
				h(ctx)
			}
			return nil
		}

		if !errors.Is(err, repository.ErrRetryable) || attempt >= u.maxRetries || ctx.Err() != nil {
			return err
		}

		u.logger.Debug("retrying transaction", "attempt", attempt+1, "error", err)
	}
}
