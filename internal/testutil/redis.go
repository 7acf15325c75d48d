package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTestRedisAddr = "localhost:6379"
	testRedisDB          = 15
)

// NewTestRedis connects to TEST_REDIS_ADDR on a dedicated database and
// flushes it. The test is skipped when redis is unreachable.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = defaultTestRedisAddr
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: testRedisDB})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	if err := rdb.FlushDB(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Fatalf("flush redis: %v", err)
	}

	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
