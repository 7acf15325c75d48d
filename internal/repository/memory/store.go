// Package memory is an in-process implementation of the repository gateway.
// It enforces the same unique keys as the postgres schema and is meant for
// tests and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kirinyoku/eventix/internal/domain"
	"github.com/kirinyoku/eventix/internal/repository"
)

type ticketKey struct {
	eventID int64
	code    string
}

type state struct {
	events       map[int64]domain.Event
	tickets      map[int64]domain.Ticket
	eventNames   map[string]int64
	ticketCodes  map[ticketKey]int64
	nextEventID  int64
	nextTicketID int64
}

func newState() *state {
	return &state{
		events:       make(map[int64]domain.Event),
		tickets:      make(map[int64]domain.Ticket),
		eventNames:   make(map[string]int64),
		ticketCodes:  make(map[ticketKey]int64),
		nextEventID:  1,
		nextTicketID: 1,
	}
}

func (s *state) clone() *state {
	cp := &state{
		events:       make(map[int64]domain.Event, len(s.events)),
		tickets:      make(map[int64]domain.Ticket, len(s.tickets)),
		eventNames:   make(map[string]int64, len(s.eventNames)),
		ticketCodes:  make(map[ticketKey]int64, len(s.ticketCodes)),
		nextEventID:  s.nextEventID,
		nextTicketID: s.nextTicketID,
	}
	for k, v := range s.events {
		cp.events[k] = v
	}
	for k, v := range s.tickets {
		cp.tickets[k] = v
	}
	for k, v := range s.eventNames {
		cp.eventNames[k] = v
	}
	for k, v := range s.ticketCodes {
		cp.ticketCodes[k] = v
	}
	return cp
}

// Store keeps every record behind a single mutex. Transactions work on a
// private copy that replaces the shared state on commit.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Events() repository.Events   { return &EventRepo{store: s} }
func (s *Store) Tickets() repository.Tickets { return &TicketRepo{store: s} }

func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Scope) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(ctx, txScope{st: work}); err != nil {
		return err
	}

	s.st = work
	return nil
}

type txScope struct {
	st *state
}

func (t txScope) Events() repository.Events   { return &EventRepo{st: t.st} }
func (t txScope) Tickets() repository.Tickets { return &TicketRepo{st: t.st} }

// view runs fn against the transaction state when bound to one, and against
// the shared state under the store lock otherwise.
func view(store *Store, st *state, fn func(st *state) error) error {
	if st != nil {
		return fn(st)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	return fn(store.st)
}

type EventRepo struct {
	store *Store
	st    *state
}

func (r *EventRepo) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	var out *domain.Event
	err := view(r.store, r.st, func(st *state) error {
		if e, ok := st.events[id]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

func (r *EventRepo) FindByName(ctx context.Context, name string) (*domain.Event, error) {
	var out *domain.Event
	err := view(r.store, r.st, func(st *state) error {
		if id, ok := st.eventNames[name]; ok {
			e := st.events[id]
			out = &e
		}
		return nil
	})
	return out, err
}

func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	out := make([]domain.Event, 0)
	err := view(r.store, r.st, func(st *state) error {
		for _, e := range st.events {
			out = append(out, e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *EventRepo) Insert(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const op = "memory.EventRepo.Insert"

	var out *domain.Event
	err := view(r.store, r.st, func(st *state) error {
		if _, taken := st.eventNames[e.Name]; taken {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		e.ID = st.nextEventID
		st.nextEventID++
		st.events[e.ID] = e
		st.eventNames[e.Name] = e.ID
		out = &e
		return nil
	})
	return out, err
}

func (r *EventRepo) Update(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const op = "memory.EventRepo.Update"

	var out *domain.Event
	err := view(r.store, r.st, func(st *state) error {
		cur, ok := st.events[e.ID]
		if !ok {
			return nil
		}
		if owner, taken := st.eventNames[e.Name]; taken && owner != e.ID {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		delete(st.eventNames, cur.Name)
		st.events[e.ID] = e
		st.eventNames[e.Name] = e.ID
		out = &e
		return nil
	})
	return out, err
}

// Delete removes the event and, like the postgres foreign key, its tickets.
func (r *EventRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := view(r.store, r.st, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return nil
		}
		delete(st.events, id)
		delete(st.eventNames, e.Name)
		for tid, t := range st.tickets {
			if t.EventID == id {
				delete(st.tickets, tid)
				delete(st.ticketCodes, ticketKey{eventID: id, code: t.Code})
			}
		}
		deleted = true
		return nil
	})
	return deleted, err
}

type TicketRepo struct {
	store *Store
	st    *state
}

func (r *TicketRepo) FindByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := view(r.store, r.st, func(st *state) error {
		if t, ok := st.tickets[id]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *TicketRepo) FindByCode(ctx context.Context, eventID int64, code string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := view(r.store, r.st, func(st *state) error {
		if id, ok := st.ticketCodes[ticketKey{eventID: eventID, code: code}]; ok {
			t := st.tickets[id]
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *TicketRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error) {
	out := make([]domain.Ticket, 0)
	err := view(r.store, r.st, func(st *state) error {
		for _, t := range st.tickets {
			if t.EventID == eventID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *TicketRepo) Insert(ctx context.Context, t domain.Ticket) (*domain.Ticket, error) {
	const op = "memory.TicketRepo.Insert"

	var out *domain.Ticket
	err := view(r.store, r.st, func(st *state) error {
		if _, ok := st.events[t.EventID]; !ok {
			return fmt.Errorf("%s: event %d does not exist", op, t.EventID)
		}
		key := ticketKey{eventID: t.EventID, code: t.Code}
		if _, taken := st.ticketCodes[key]; taken {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		t.ID = st.nextTicketID
		st.nextTicketID++
		st.tickets[t.ID] = t
		st.ticketCodes[key] = t.ID
		out = &t
		return nil
	})
	return out, err
}

func (r *TicketRepo) MarkUsed(ctx context.Context, id int64) (bool, error) {
	var updated bool
	err := view(r.store, r.st, func(st *state) error {
		t, ok := st.tickets[id]
		if !ok || t.Used {
			return nil
		}
		t.Used = true
		st.tickets[id] = t
		updated = true
		return nil
	})
	return updated, err
}
