package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockValue    = "LOCK"
	resultPrefix = "RES:"
)

// StoredResponse is a replayable HTTP response.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyStore remembers the outcome of a request per Idempotency-Key.
// A key is either absent, locked while the first request runs, or holds the
// stored response.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, lockValue, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, resp StoredResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, resultPrefix+string(b), s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (*StoredResponse, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	payload, ok := strings.CutPrefix(v, resultPrefix)
	if !ok {
		return nil, nil
	}

	var resp StoredResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
