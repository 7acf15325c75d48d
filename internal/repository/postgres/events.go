package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/eventix/internal/domain"
)

type EventRepo struct {
	db DB
}

// FindByID retrieves an event by its ID.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - id: unique identifier of the event to retrieve.
//
// Returns:
//   - *domain.Event: the event when found, nil otherwise.
//   - error: only on database failures.
func (r *EventRepo) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.FindByID"

	return r.findOne(ctx, op,
		`SELECT id, name, date
		 FROM events WHERE id = $1`,
		id,
	)
}

// FindByName retrieves an event by its exact, case-sensitive name.
func (r *EventRepo) FindByName(ctx context.Context, name string) (*domain.Event, error) {
	const op = "postgres.EventRepo.FindByName"

	return r.findOne(ctx, op,
		`SELECT id, name, date
		 FROM events WHERE name = $1`,
		name,
	)
}

// List returns every event ordered by ID.
func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	rows, err := r.db.Query(ctx,
		`SELECT id, name, date
		 FROM events
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// Insert creates an event and returns it with its generated ID.
//
// Returns:
//   - error: repository.ErrConflict if the name is already taken.
func (r *EventRepo) Insert(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const op = "postgres.EventRepo.Insert"

	if err := r.db.QueryRow(ctx,
		`INSERT INTO events(name, date)
		 VALUES ($1, $2)
		 RETURNING id, name, date`,
		e.Name, e.Date,
	).Scan(&e.ID, &e.Name, &e.Date); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

// Update overwrites the name and date of an existing event.
//
// Returns:
//   - *domain.Event: the updated event, or nil when no event has e.ID.
//   - error: repository.ErrConflict if the name belongs to another event.
func (r *EventRepo) Update(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const op = "postgres.EventRepo.Update"

	return r.findOne(ctx, op,
		`UPDATE events
		 SET name = $2, date = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, date`,
		e.ID, e.Name, e.Date,
	)
}

// Delete removes an event. Its tickets go with it through the foreign key.
func (r *EventRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const op = "postgres.EventRepo.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected() > 0, nil
}

func (r *EventRepo) findOne(ctx context.Context, op, sql string, args ...any) (*domain.Event, error) {
	var e domain.Event
	err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.Name, &e.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}
