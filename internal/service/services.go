package service

import (
	"log/slog"

	"github.com/kirinyoku/eventix/internal/clock"
	"github.com/kirinyoku/eventix/internal/repository"
	"github.com/kirinyoku/eventix/internal/service/events"
	"github.com/kirinyoku/eventix/internal/service/tickets"
)

type Services struct {
	Events  *events.Service
	Tickets *tickets.Service
}

type Config struct {
	TxMaxRetries int
	Logger       *slog.Logger
}

// Notifier fans committed changes out to subscribers. It may be nil.
type Notifier interface {
	events.Notifier
	tickets.Notifier
}

func NewServices(
	store repository.Store,
	clk clock.Clock,
	notifier Notifier,
	cfg Config,
) *Services {
	return &Services{
		Events:  events.New(store, notifier, events.Config{MaxRetries: cfg.TxMaxRetries, Logger: cfg.Logger}),
		Tickets: tickets.New(store, clk, notifier, tickets.Config{MaxRetries: cfg.TxMaxRetries, Logger: cfg.Logger}),
	}
}
