package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/eventix/internal/domain"
)

type TicketRepo struct {
	db DB
}

func (r *TicketRepo) FindByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.FindByID"

	return r.findOne(ctx, op,
		`SELECT id, code, owner, event_id, used
		 FROM tickets WHERE id = $1`,
		id,
	)
}

// FindByCode looks a ticket up by its code within one event.
func (r *TicketRepo) FindByCode(ctx context.Context, eventID int64, code string) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.FindByCode"

	return r.findOne(ctx, op,
		`SELECT id, code, owner, event_id, used
		 FROM tickets WHERE event_id = $1 AND code = $2`,
		eventID, code,
	)
}

func (r *TicketRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.ListByEvent"

	rows, err := r.db.Query(ctx,
		`SELECT id, code, owner, event_id, used
		 FROM tickets
		 WHERE event_id = $1
		 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.Owner, &t.EventID, &t.Used); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// Insert creates a ticket. The used flag of t is written as given.
//
// Returns:
//   - error: repository.ErrConflict if the code already exists for the event.
func (r *TicketRepo) Insert(ctx context.Context, t domain.Ticket) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.Insert"

	if err := r.db.QueryRow(ctx,
		`INSERT INTO tickets(code, owner, event_id, used)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		t.Code, t.Owner, t.EventID, t.Used,
	).Scan(&t.ID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &t, nil
}

// MarkUsed sets used = true only on a currently unused ticket.
func (r *TicketRepo) MarkUsed(ctx context.Context, id int64) (bool, error) {
	const op = "postgres.TicketRepo.MarkUsed"

	tag, err := r.db.Exec(ctx,
		`UPDATE tickets
		 SET used = TRUE, updated_at = now()
		 WHERE id = $1 AND used = FALSE`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected() == 1, nil
}

func (r *TicketRepo) findOne(ctx context.Context, op, sql string, args ...any) (*domain.Ticket, error) {
	var t domain.Ticket
	err := r.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.Code, &t.Owner, &t.EventID, &t.Used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &t, nil
}
