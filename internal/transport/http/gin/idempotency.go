package httpgin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/kirinyoku/eventix/internal/repository/redis"
)

const (
	idempotencyHeader       = "Idempotency-Key"
	idempotencyReplayHeader = "Idempotent-Replayed"
	idempotencyLockTTL      = 60 * time.Second
)

// IdempotencyStore keeps the first response produced for an Idempotency-Key.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	GetResult(ctx context.Context, key string) (*redisrepo.StoredResponse, error)
	SaveResult(ctx context.Context, key string, resp redisrepo.StoredResponse) error
	Release(ctx context.Context, key string) error
}

type idempotency struct {
	store  IdempotencyStore
	logger *slog.Logger
}

// begin claims the request's Idempotency-Key. It returns the storage key to
// finish or abort later, an empty key when the request is not idempotent,
// and false when a response was already written.
func (i idempotency) begin(c *gin.Context, scope string) (string, bool) {
	if i.store == nil {
		return "", true
	}

	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	if key == "" {
		return "", true
	}

	ctx := c.Request.Context()
	storageKey := redisrepo.KeyIdempotency(scope, key)

	if i.replay(c, storageKey) {
		return "", false
	}

	locked, err := i.store.AcquireLock(ctx, storageKey, idempotencyLockTTL)
	if err != nil {
		i.logger.Warn("idempotency store unavailable", slog.String("error", err.Error()))
		return "", true
	}
	if !locked {
		if i.replay(c, storageKey) {
			return "", false
		}
		c.Header("Retry-After", "1")
		c.String(http.StatusConflict, "request with this idempotency key is in progress")
		return "", false
	}

	c.Header(idempotencyHeader, key)
	return storageKey, true
}

func (i idempotency) replay(c *gin.Context, storageKey string) bool {
	stored, err := i.store.GetResult(c.Request.Context(), storageKey)
	if err != nil || stored == nil {
		return false
	}

	c.Header(idempotencyHeader, strings.TrimSpace(c.GetHeader(idempotencyHeader)))
	c.Header(idempotencyReplayHeader, "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	return true
}

func (i idempotency) finish(c *gin.Context, storageKey string, status int, body any) {
	if storageKey == "" {
		return
	}

	b, err := json.Marshal(body)
	if err == nil {
		err = i.store.SaveResult(c.Request.Context(), storageKey, redisrepo.StoredResponse{Status: status, Body: b})
	}
	if err != nil {
		i.logger.Warn("idempotency save failed", slog.String("error", err.Error()))
		_ = i.store.Release(c.Request.Context(), storageKey)
	}
}

// abort frees the key so a failed request can be retried with it.
func (i idempotency) abort(c *gin.Context, storageKey string) {
	if storageKey == "" {
		return
	}
	_ = i.store.Release(c.Request.Context(), storageKey)
}
