package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/eventix/internal/clock"
	"github.com/kirinyoku/eventix/internal/domain"
	"github.com/kirinyoku/eventix/internal/repository"
	"github.com/kirinyoku/eventix/internal/uow"
)

type Notifier interface {
	Publish(ctx context.Context, c domain.Change) error
}

type Config struct {
	MaxRetries int
	Logger     *slog.Logger
}

type Service struct {
	store    repository.Store
	clock    clock.Clock
	notifier Notifier
	uow      *uow.UoW
	logger   *slog.Logger
}

func New(store repository.Store, clk clock.Clock, notifier Notifier, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.NewSystem()
	}

	return &Service{
		store:    store,
		clock:    clk,
		notifier: notifier,
		uow:      uow.NewUoW(store, uow.WithMaxRetries(cfg.MaxRetries), uow.WithLogger(logger)),
		logger:   logger,
	}
}

// ListByEvent returns the tickets of an event ordered by ID. An unknown
// event yields an empty list.
func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error) {
	const op = "service.tickets.ListByEvent"

	list, err := s.store.Tickets().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Create issues an unused ticket for an upcoming event.
//
// Parameters:
//   - ctx: request-scoped context.
//   - code: ticket code, unique within the event.
//   - owner: ticket holder.
//   - eventID: the event the ticket admits to.
//
// Returns:
//   - *domain.Ticket: the stored ticket.
//   - error: tickets.ErrEventNotFound if the event does not exist.
//   - error: tickets.ErrEventHappened if the event date is in the past.
//   - error: tickets.ErrCodeTaken if the event already has a ticket with code.
func (s *Service) Create(ctx context.Context, code, owner string, eventID int64) (*domain.Ticket, error) {
	const op = "service.tickets.Create"

	var created *domain.Ticket
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Scope, after func(uow.AfterCommit)) error {
		event, err := tx.Events().FindByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if event == nil {
			return fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		if event.HasHappened(s.clock.Now()) {
			return fmt.Errorf("%s: %w", op, ErrEventHappened)
		}

		existing, err := tx.Tickets().FindByCode(ctx, eventID, code)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if existing != nil {
			return fmt.Errorf("%s: %w", op, ErrCodeTaken)
		}

		created, err = tx.Tickets().Insert(ctx, domain.Ticket{
			Code:    code,
			Owner:   owner,
			EventID: eventID,
		})
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrCodeTaken)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		ticketID := created.ID
		after(func(ctx context.Context) {
			s.publish(ctx, domain.Change{Type: domain.ChangeTicketCreated, EventID: eventID, TicketID: ticketID})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Redeem marks a ticket as used.
//
// Returns:
//   - error: tickets.ErrTicketNotFound if the ticket does not exist.
//   - error: tickets.ErrEventHappened if the owning event is in the past.
//   - error: tickets.ErrTicketUsed if the ticket was already redeemed.
func (s *Service) Redeem(ctx context.Context, ticketID int64) error {
	const op = "service.tickets.Redeem"

	return s.uow.Do(ctx, func(ctx context.Context, tx repository.Scope, after func(uow.AfterCommit)) error {
		ticket, err := tx.Tickets().FindByID(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if ticket == nil {
			return fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}

		event, err := tx.Events().FindByID(ctx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		// tickets are removed with their event, so a dangling ticket is a storage fault
		if event == nil {
			return fmt.Errorf("%s: event %d of ticket %d is missing", op, ticket.EventID, ticketID)
		}
		if event.HasHappened(s.clock.Now()) {
			return fmt.Errorf("%s: %w", op, ErrEventHappened)
		}
		if ticket.Used {
			return fmt.Errorf("%s: %w", op, ErrTicketUsed)
		}

		ok, err := tx.Tickets().MarkUsed(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return fmt.Errorf("%s: %w", op, ErrTicketUsed)
		}

		eventID := ticket.EventID
		after(func(ctx context.Context) {
			s.publish(ctx, domain.Change{Type: domain.ChangeTicketRedeemed, EventID: eventID, TicketID: ticketID})
		})
		return nil
	})
}

func (s *Service) publish(ctx context.Context, c domain.Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, c); err != nil {
		s.logger.Warn("publish change failed",
			"type", c.Type,
			"event_id", c.EventID,
			"ticket_id", c.TicketID,
			"error", err,
		)
	}
}
