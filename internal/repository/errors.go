package repository

import "errors"

var (
	// ErrConflict is returned when the store rejects a write on a unique key.
	ErrConflict = errors.New("conflict")
	// ErrRetryable is returned when a transaction lost a serialization race
	// and can be re-run from the start.
	ErrRetryable = errors.New("transaction must be retried")
)
