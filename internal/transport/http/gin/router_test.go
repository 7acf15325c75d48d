package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/eventix/internal/clock"
	"github.com/kirinyoku/eventix/internal/domain"
	"github.com/kirinyoku/eventix/internal/repository"
	"github.com/kirinyoku/eventix/internal/repository/memory"
	redisrepo "github.com/kirinyoku/eventix/internal/repository/redis"
	"github.com/kirinyoku/eventix/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	futureDate = "2030-05-01T18:00:00Z"
	pastDate   = "2020-01-01T10:00:00Z"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, store repository.Store, opts Options) *gin.Engine {
	t.Helper()
	if store == nil {
		store = memory.NewStore()
	}
	svcs := service.NewServices(store, clock.NewFixed(testNow), nil, service.Config{})
	return NewRouter(svcs, opts)
}

func do(t *testing.T, r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createEvent(t *testing.T, r http.Handler, name, date string) EventResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/events", `{"name":"`+name+`","date":"`+date+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[EventResponse](t, w)
}

func TestRouter_Scenario(t *testing.T) {
	r := newTestRouter(t, nil, Options{})

	e := createEvent(t, r, "Show", futureDate)
	assert.Equal(t, EventResponse{ID: 1, Name: "Show", Date: "2030-05-01T18:00:00.000Z"}, e)

	w := do(t, r, http.MethodPost, "/tickets", `{"code":"ABC123","owner":"Alice","eventId":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"id":1,"code":"ABC123","owner":"Alice","eventId":1,"used":false}`, w.Body.String())

	w = do(t, r, http.MethodPut, "/tickets/use/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodPut, "/tickets/use/1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ticket has already been used", w.Body.String())

	w = do(t, r, http.MethodGet, "/tickets/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"code":"ABC123","owner":"Alice","eventId":1,"used":true}]`, w.Body.String())
}

func TestRouter_Events(t *testing.T) {
	r := newTestRouter(t, nil, Options{})

	w := do(t, r, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	createEvent(t, r, "A", futureDate)

	w = do(t, r, http.MethodPost, "/events", `{"name":"A","date":"`+futureDate+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "event name already exists", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	b := createEvent(t, r, "B", "2030-05-01T20:00:00.5+02:00")
	assert.Equal(t, "2030-05-01T18:00:00.500Z", b.Date)

	w = do(t, r, http.MethodGet, "/events/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, b, decode[EventResponse](t, w))

	w = do(t, r, http.MethodPut, "/events/2", `{"name":"A","date":"`+futureDate+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPut, "/events/2", `{"name":"B","date":"2031-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, EventResponse{ID: 2, Name: "B", Date: "2031-01-01T00:00:00.000Z"}, decode[EventResponse](t, w))

	w = do(t, r, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]EventResponse](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)

	w = do(t, r, http.MethodDelete, "/events/2", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodDelete, "/events/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "event not found", w.Body.String())
}

func TestRouter_Tickets(t *testing.T) {
	r := newTestRouter(t, nil, Options{})

	createEvent(t, r, "Upcoming", futureDate)
	createEvent(t, r, "Other", futureDate)
	createEvent(t, r, "Past", pastDate)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "created", body: `{"code":"C1","owner":"Alice","eventId":1}`, wantStatus: http.StatusCreated},
		{name: "duplicate code", body: `{"code":"C1","owner":"Bob","eventId":1}`, wantStatus: http.StatusConflict, wantBody: "ticket code already exists for this event"},
		{name: "same code other event", body: `{"code":"C1","owner":"Bob","eventId":2}`, wantStatus: http.StatusCreated},
		{name: "unknown event", body: `{"code":"C2","owner":"Bob","eventId":99}`, wantStatus: http.StatusNotFound, wantBody: "event not found"},
		{name: "past event", body: `{"code":"C3","owner":"Bob","eventId":3}`, wantStatus: http.StatusForbidden, wantBody: "event has already happened"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/tickets", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}

	w := do(t, r, http.MethodGet, "/tickets/99", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, r, http.MethodPut, "/tickets/use/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ticket not found", w.Body.String())
}

func TestRouter_RedeemPastEvent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	e, err := store.Events().Insert(ctx, domain.Event{Name: "Past", Date: testNow.Add(-time.Minute)})
	require.NoError(t, err)
	tk, err := store.Tickets().Insert(ctx, domain.Ticket{Code: "OLD", Owner: "Alice", EventID: e.ID})
	require.NoError(t, err)

	r := newTestRouter(t, store, Options{})

	w := do(t, r, http.MethodPut, "/tickets/use/1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "event has already happened", w.Body.String())

	got, err := store.Tickets().FindByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.False(t, got.Used)
}

func TestRouter_NotFound(t *testing.T) {
	r := newTestRouter(t, nil, Options{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/events/5", ""},
		{http.MethodPut, "/events/5", `{"name":"x","date":"` + futureDate + `"}`},
		{http.MethodDelete, "/events/5", ""},
		{http.MethodPut, "/tickets/use/5", ""},
	} {
		w := do(t, r, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_BadRequest(t *testing.T) {
	r := newTestRouter(t, nil, Options{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/events/abc"},
		{http.MethodGet, "/events/0"},
		{http.MethodGet, "/events/-3"},
		{http.MethodPut, "/events/1.5"},
		{http.MethodDelete, "/events/x"},
		{http.MethodGet, "/tickets/abc"},
		{http.MethodPut, "/tickets/use/abc"},
	} {
		w := do(t, r, tc.method, tc.path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_Unprocessable(t *testing.T) {
	r := newTestRouter(t, nil, Options{})
	createEvent(t, r, "A", futureDate)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "malformed json", method: http.MethodPost, path: "/events", body: `{"name":`},
		{name: "missing name", method: http.MethodPost, path: "/events", body: `{"date":"` + futureDate + `"}`},
		{name: "empty name", method: http.MethodPost, path: "/events", body: `{"name":"","date":"` + futureDate + `"}`},
		{name: "missing date", method: http.MethodPost, path: "/events", body: `{"name":"B"}`},
		{name: "bad date", method: http.MethodPost, path: "/events", body: `{"name":"B","date":"tomorrow"}`},
		{name: "update bad date", method: http.MethodPut, path: "/events/1", body: `{"name":"B","date":"01/02/2030"}`},
		{name: "ticket missing owner", method: http.MethodPost, path: "/tickets", body: `{"code":"C","eventId":1}`},
		{name: "ticket empty code", method: http.MethodPost, path: "/tickets", body: `{"code":"","owner":"A","eventId":1}`},
		{name: "ticket zero event", method: http.MethodPost, path: "/tickets", body: `{"code":"C","owner":"A","eventId":0}`},
		{name: "ticket negative event", method: http.MethodPost, path: "/tickets", body: `{"code":"C","owner":"A","eventId":-1}`},
		{name: "ticket string event", method: http.MethodPost, path: "/tickets", body: `{"code":"C","owner":"A","eventId":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		})
	}
}

func TestRouter_HealthAndUnknownRoute(t *testing.T) {
	r := newTestRouter(t, nil, Options{})

	w := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "I'm okay!", w.Body.String())

	w = do(t, r, http.MethodGet, "/nonexistent-route", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", w.Body.String())
}

func TestRouter_ETag(t *testing.T) {
	r := newTestRouter(t, nil, Options{})
	createEvent(t, r, "A", futureDate)

	w := do(t, r, http.MethodGet, "/events/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.True(t, strings.HasPrefix(tag, `W/"`), tag)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	w = do(t, r, http.MethodGet, "/events/1", "", "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodPut, "/events/1", `{"name":"A2","date":"`+futureDate+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/events/1", "", "If-None-Match", tag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, tag, w.Header().Get("ETag"))
}

type failingEvents struct {
	repository.Events
}

func (failingEvents) List(context.Context) ([]domain.Event, error) {
	return nil, errors.New("connection reset by peer")
}

type failingStore struct {
	*memory.Store
}

func (s failingStore) Events() repository.Events {
	return failingEvents{Events: s.Store.Events()}
}

func TestRouter_InternalErrorIsHidden(t *testing.T) {
	h := &capturingHandler{}
	store := failingStore{Store: memory.NewStore()}
	svcs := service.NewServices(store, clock.NewFixed(testNow), nil, service.Config{})
	r := NewRouter(svcs, Options{Logger: newCapturingLogger(h)})

	w := do(t, r, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", w.Body.String())

	rec, ok := h.find("request failed")
	require.True(t, ok)
	assert.Contains(t, rec.attrs["error"], "connection reset by peer")
}

type fakeIdempotencyStore struct {
	mu      sync.Mutex
	locks   map[string]bool
	results map[string]redisrepo.StoredResponse
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{
		locks:   make(map[string]bool),
		results: make(map[string]redisrepo.StoredResponse),
	}
}

func (f *fakeIdempotencyStore) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[key] {
		return false, nil
	}
	f.locks[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) GetResult(_ context.Context, key string) (*redisrepo.StoredResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.results[key]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeIdempotencyStore) SaveResult(_ context.Context, key string, resp redisrepo.StoredResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[key] = resp
	return nil
}

func (f *fakeIdempotencyStore) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, key)
	delete(f.results, key)
	return nil
}

func TestRouter_IdempotentCreate(t *testing.T) {
	idem := newFakeIdempotencyStore()
	r := newTestRouter(t, nil, Options{Idempotency: idem})

	body := `{"name":"A","date":"` + futureDate + `"}`

	first := do(t, r, http.MethodPost, "/events", body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "k1", first.Header().Get("Idempotency-Key"))
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := do(t, r, http.MethodPost, "/events", body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// without the key the duplicate name is rejected as usual
	w := do(t, r, http.MethodPost, "/events", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, "/events", "")
	assert.Len(t, decode[[]EventResponse](t, w), 1)
}

func TestRouter_IdempotencyFailureReleasesKey(t *testing.T) {
	idem := newFakeIdempotencyStore()
	r := newTestRouter(t, nil, Options{Idempotency: idem})

	w := do(t, r, http.MethodPost, "/tickets", `{"code":"C","owner":"A","eventId":1}`, "Idempotency-Key", "t1")
	require.Equal(t, http.StatusNotFound, w.Code)

	createEvent(t, r, "A", futureDate)

	w = do(t, r, http.MethodPost, "/tickets", `{"code":"C","owner":"A","eventId":1}`, "Idempotency-Key", "t1")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_IdempotencyInProgress(t *testing.T) {
	idem := newFakeIdempotencyStore()
	idem.locks[redisrepo.KeyIdempotency("events", "busy")] = true
	r := newTestRouter(t, nil, Options{Idempotency: idem})

	w := do(t, r, http.MethodPost, "/events", `{"name":"A","date":"`+futureDate+`"}`, "Idempotency-Key", "busy")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

type stubLimiter struct {
	allowed bool
	retry   time.Duration
	err     error
	hits    int
}

func (s *stubLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	s.hits++
	return s.allowed, s.retry, s.err
}

func TestRouter_RateLimitOnWrites(t *testing.T) {
	limiter := &stubLimiter{allowed: false, retry: 1500 * time.Millisecond}
	r := newTestRouter(t, nil, Options{RateLimiter: limiter})

	w := do(t, r, http.MethodPost, "/events", `{"name":"A","date":"`+futureDate+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	w = do(t, r, http.MethodPut, "/tickets/use/1", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(t, r, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, limiter.hits)
}
