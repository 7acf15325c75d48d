package repository

import (
	"context"

	"github.com/kirinyoku/eventix/internal/domain"
)

// Events is the gateway to the events collection.
//
// Lookups report a missing record as a nil result and a nil error.
type Events interface {
	FindByID(ctx context.Context, id int64) (*domain.Event, error)
	FindByName(ctx context.Context, name string) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Insert(ctx context.Context, e domain.Event) (*domain.Event, error)
	Update(ctx context.Context, e domain.Event) (*domain.Event, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Tickets is the gateway to the tickets collection.
//
// Lookups report a missing record as a nil result and a nil error.
type Tickets interface {
	FindByID(ctx context.Context, id int64) (*domain.Ticket, error)
	FindByCode(ctx context.Context, eventID int64, code string) (*domain.Ticket, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error)
	Insert(ctx context.Context, t domain.Ticket) (*domain.Ticket, error)
	// MarkUsed flips used to true. It returns false when the ticket does not
	// exist or was already used.
	MarkUsed(ctx context.Context, id int64) (bool, error)
}

// Scope exposes both collections over one connection or transaction.
type Scope interface {
	Events() Events
	Tickets() Tickets
}

// Store is a Scope that can also open transactions.
type Store interface {
	Scope
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Scope) error) error
}
