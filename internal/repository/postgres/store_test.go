package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kirinyoku/eventix/internal/domain"
	"github.com/kirinyoku/eventix/internal/repository"
	"github.com/kirinyoku/eventix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventDate = time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)

func TestEventRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewTestPool(t))
	events := store.Events()

	created, err := events.Insert(ctx, domain.Event{Name: "Conf2025", Date: eventDate})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.True(t, created.Date.Equal(eventDate))

	_, err = events.Insert(ctx, domain.Event{Name: "Conf2025", Date: eventDate})
	require.ErrorIs(t, err, repository.ErrConflict)

	byName, err := events.FindByName(ctx, "Conf2025")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	missing, err := events.FindByName(ctx, "conf2025")
	require.NoError(t, err)
	assert.Nil(t, missing, "names are case-sensitive")

	later := eventDate.Add(24 * time.Hour)
	updated, err := events.Update(ctx, domain.Event{ID: created.ID, Name: "Conf2026", Date: later})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Conf2026", updated.Name)
	assert.True(t, updated.Date.Equal(later))

	none, err := events.Update(ctx, domain.Event{ID: created.ID + 100, Name: "x", Date: later})
	require.NoError(t, err)
	assert.Nil(t, none)

	list, err := events.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := events.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = events.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	gone, err := events.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTicketRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewTestPool(t))

	a, err := store.Events().Insert(ctx, domain.Event{Name: "A", Date: eventDate})
	require.NoError(t, err)
	b, err := store.Events().Insert(ctx, domain.Event{Name: "B", Date: eventDate})
	require.NoError(t, err)

	tickets := store.Tickets()

	tk, err := tickets.Insert(ctx, domain.Ticket{Code: "ABC123", Owner: "Alice", EventID: a.ID})
	require.NoError(t, err)
	assert.False(t, tk.Used)

	_, err = tickets.Insert(ctx, domain.Ticket{Code: "ABC123", Owner: "Bob", EventID: a.ID})
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = tickets.Insert(ctx, domain.Ticket{Code: "ABC123", Owner: "Bob", EventID: b.ID})
	require.NoError(t, err)

	found, err := tickets.FindByCode(ctx, a.ID, "ABC123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tk.ID, found.ID)

	ok, err := tickets.MarkUsed(ctx, tk.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tickets.MarkUsed(ctx, tk.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := tickets.ListByEvent(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Used)

	empty, err := tickets.ListByEvent(ctx, 999999)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.Events().Delete(ctx, a.ID)
	require.NoError(t, err)

	gone, err := tickets.FindByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStore_RunTxRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewTestPool(t))
	boom := errors.New("boom")

	err := store.RunTx(ctx, func(ctx context.Context, tx repository.Scope) error {
		if _, err := tx.Events().Insert(ctx, domain.Event{Name: "A", Date: eventDate}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	e, err := store.Events().FindByName(ctx, "A")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestStore_ConcurrentRedeemIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewTestPool(t))

	e, err := store.Events().Insert(ctx, domain.Event{Name: "A", Date: eventDate})
	require.NoError(t, err)
	tk, err := store.Tickets().Insert(ctx, domain.Ticket{Code: "C", Owner: "Alice", EventID: e.ID})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		flipped int
	)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := store.RunTx(ctx, func(ctx context.Context, tx repository.Scope) error {
				cur, err := tx.Tickets().FindByID(ctx, tk.ID)
				if err != nil || cur.Used {
					return err
				}
				ok, err := tx.Tickets().MarkUsed(ctx, tk.ID)
				if ok {
					mu.Lock()
					flipped++
					mu.Unlock()
				}
				return err
			})
			if err != nil {
				assert.True(t, errors.Is(err, repository.ErrRetryable), "unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	got, err := store.Tickets().FindByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.True(t, got.Used)
	assert.GreaterOrEqual(t, flipped, 1)
}
