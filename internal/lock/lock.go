// Package lock provides a short-lived per-key mutual exclusion shared by all
// worker processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock held by another worker")

type Locker interface {
	// Acquire takes key for ttl and returns a release func.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
	logger *slog.Logger
}

func NewRedisLocker(rdb redis.UniversalClient, prefix string, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix, logger: logger.With("component", "redis_lock")}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.prefix + key
	value := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAcquired, fullKey)
	}

	release := func() {
		// Release with a fresh context: the caller's may already be done.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		deleted, err := releaseScript.Run(rctx, l.rdb, []string{fullKey}, value).Int()
		if err != nil {
			l.logger.Error("release lock", "key", fullKey, "error", err)
			return
		}
		if deleted == 0 {
			l.logger.Warn("lock expired before release", "key", fullKey)
		}
	}
	return release, nil
}

// Noop grants every request. Used when Redis is not configured.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
