package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/eventix/internal/domain"
	"github.com/kirinyoku/eventix/internal/repository"
	"github.com/kirinyoku/eventix/internal/uow"
)

// Notifier receives committed changes. A nil Notifier disables publishing.
type Notifier interface {
	Publish(ctx context.Context, c domain.Change) error
}

type Config struct {
	MaxRetries int
	Logger     *slog.Logger
}

type Service struct {
	store    repository.Store
	notifier Notifier
	uow      *uow.UoW
	logger   *slog.Logger
}

func New(store repository.Store, notifier Notifier, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		store:    store,
		notifier: notifier,
		uow:      uow.NewUoW(store, uow.WithMaxRetries(cfg.MaxRetries), uow.WithLogger(logger)),
		logger:   logger,
	}
}

// Create registers a new event.
//
// Parameters:
//   - ctx: request-scoped context.
//   - name: event name, unique across all events.
//   - date: when the event takes place.
//
// Returns:
//   - *domain.Event: the stored event with its assigned ID.
//   - error: events.ErrEventNameTaken if the name is already in use.
func (s *Service) Create(ctx context.Context, name string, date time.Time) (*domain.Event, error) {
	const op = "service.events.Create"

	var created *domain.Event
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Scope, after func(uow.AfterCommit)) error {
		existing, err := tx.Events().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if existing != nil {
			return fmt.Errorf("%s: %w", op, ErrEventNameTaken)
		}

		created, err = tx.Events().Insert(ctx, domain.Event{Name: name, Date: date})
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrEventNameTaken)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		id := created.ID
		after(func(ctx context.Context) {
			s.publish(ctx, domain.Change{Type: domain.ChangeEventCreated, EventID: id})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// List returns every event ordered by ID.
func (s *Service) List(ctx context.Context) ([]domain.Event, error) {
	const op = "service.events.List"

	list, err := s.store.Events().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Get returns a single event.
//
// Returns:
//   - error: events.ErrEventNotFound if no event has the given ID.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.events.Get"

	e, err := s.store.Events().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if e == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
	}

	return e, nil
}

// Update replaces the name and date of an existing event. Keeping the
// current name is allowed.
//
// Returns:
//   - *domain.Event: the event after the update.
//   - error: events.ErrEventNotFound if the event does not exist.
//   - error: events.ErrEventNameTaken if another event already has the name.
func (s *Service) Update(ctx context.Context, id int64, name string, date time.Time) (*domain.Event, error) {
	const op = "service.events.Update"

	var updated *domain.Event
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Scope, after func(uow.AfterCommit)) error {
		current, err := tx.Events().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if current == nil {
			return fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}

		other, err := tx.Events().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if other != nil && other.ID != id {
			return fmt.Errorf("%s: %w", op, ErrEventNameTaken)
		}

		updated, err = tx.Events().Update(ctx, domain.Event{ID: id, Name: name, Date: date})
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrEventNameTaken)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if updated == nil {
			return fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}

		after(func(ctx context.Context) {
			s.publish(ctx, domain.Change{Type: domain.ChangeEventUpdated, EventID: id})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes an event together with its tickets.
//
// Returns:
//   - error: events.ErrEventNotFound if the event does not exist.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "service.events.Delete"

	return s.uow.Do(ctx, func(ctx context.Context, tx repository.Scope, after func(uow.AfterCommit)) error {
		deleted, err := tx.Events().Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !deleted {
			return fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}

		after(func(ctx context.Context) {
			s.publish(ctx, domain.Change{Type: domain.ChangeEventDeleted, EventID: id})
		})
		return nil
	})
}

func (s *Service) publish(ctx context.Context, c domain.Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, c); err != nil {
		s.logger.Warn("publish change failed", "type", c.Type, "event_id", c.EventID, "error", err)
	}
}
