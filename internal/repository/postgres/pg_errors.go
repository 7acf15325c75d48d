package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/eventix/internal/repository"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return true
		}
	}

	return false
}

// translateDBErr maps postgres error codes onto repository sentinels. Missing
// rows are not errors at this layer and are handled by the callers.
func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if IsRetryable(err) {
		return errors.Join(repository.ErrRetryable, err)
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) && pge.Code == codeUniqueViolation {
		return errors.Join(repository.ErrConflict, err)
	}

	return err
}
