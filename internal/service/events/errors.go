package events

import "github.com/kirinyoku/eventix/internal/domain"

var (
	ErrEventNameTaken = domain.NewError(domain.KindConflict, "event name already exists")
	ErrEventNotFound  = domain.NewError(domain.KindNotFound, "event not found")
)
