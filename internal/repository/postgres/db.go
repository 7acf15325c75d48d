package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/eventix/internal/repository"
)

// DB is satisfied by both *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		opts: pgx.TxOptions{
			IsoLevel:   pgx.Serializable,
			AccessMode: pgx.ReadWrite,
		},
	}
}

// RunTx runs fn in a serializable read-write transaction. Serialization
// failures are reported as repository.ErrRetryable.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Scope) error,
) error {
	const op = "postgres.Store.RunTx"

	tx, err := s.pool.BeginTx(ctx, s.opts)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, scope{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, translateDBErr(err))
	}

	return nil
}

func (s *Store) Events() repository.Events   { return &EventRepo{db: s.pool} }
func (s *Store) Tickets() repository.Tickets { return &TicketRepo{db: s.pool} }

type scope struct {
	db DB
}

func (s scope) Events() repository.Events   { return &EventRepo{db: s.db} }
func (s scope) Tickets() repository.Tickets { return &TicketRepo{db: s.db} }
