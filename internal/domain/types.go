package domain

import (
	"time"
)

// Event is a named, dated occurrence that owns zero or more tickets.
type Event struct {
	ID   int64
	Name string
	Date time.Time
}

// HasHappened reports whether the event date is earlier than now.
func (e Event) HasHappened(now time.Time) bool {
	return e.Date.Before(now)
}

// Ticket is a redeemable credential tied to exactly one event.
type Ticket struct {
	ID      int64
	Code    string
	Owner   string
	EventID int64
	Used    bool
}

type ChangeType string

const (
	ChangeEventCreated   ChangeType = "event.created"
	ChangeEventUpdated   ChangeType = "event.updated"
	ChangeEventDeleted   ChangeType = "event.deleted"
	ChangeTicketCreated  ChangeType = "ticket.created"
	ChangeTicketRedeemed ChangeType = "ticket.redeemed"
)

// Change describes a committed mutation. TicketID is zero for event changes.
type Change struct {
	Type     ChangeType
	EventID  int64
	TicketID int64
}
