package tickets

import "github.com/kirinyoku/eventix/internal/domain"

var (
	ErrEventNotFound  = domain.NewError(domain.KindNotFound, "event not found")
	ErrEventHappened  = domain.NewError(domain.KindForbidden, "event has already happened")
	ErrCodeTaken      = domain.NewError(domain.KindConflict, "ticket code already exists for this event")
	ErrTicketNotFound = domain.NewError(domain.KindNotFound, "ticket not found")
	ErrTicketUsed     = domain.NewError(domain.KindForbidden, "ticket has already been used")
)
