package alerts

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisGuard enforces the alert dedup window across server instances. One
// SETNX with the window as TTL turns the local check-then-append sequence
// into an atomic claim: only the instance that sets the key may emit.
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard connects a guard to the Redis at addr.
func NewRedisGuard(addr string) *RedisGuard {
	return &RedisGuard{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Acquire claims the emission slot for alertType. It returns false when
// another instance already holds it within the window.
func (g *RedisGuard) Acquire(ctx context.Context, alertType string, window time.Duration) (bool, error) {
	return g.client.SetNX(ctx, "netsentry:alert-dedup:"+alertType, 1, window).Result()
}

// Ping verifies connectivity, for startup checks.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (g *RedisGuard) Close() error { return g.client.Close() }
