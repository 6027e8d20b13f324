// Package ratelimit implements fixed-window hit counters in Redis.
//
// IsAllowed and Hit are separate round trips, so concurrent callers can overshoot
// a limit by the number of requests racing at the boundary. Counters are plain
// fixed windows: a burst straddling two windows may see up to 2x the limit.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit"

// Limiter counts hits per (action, key) in Redis.
type Limiter struct {
	redis redis.UniversalClient
}

func New(redisClient redis.UniversalClient) *Limiter {
	return &Limiter{redis: redisClient}
}

// IsAllowed reports whether fewer than limit hits were recorded for (action, key)
// in the current window. A saturated counter left without a TTL gets window as
// its expiry so it cannot block the key forever.
func (l *Limiter) IsAllowed(ctx context.Context, action, key string, limit int, window time.Duration) (bool, error) {
	count, err := l.Count(ctx, action, key)
	if err != nil {
		return false, err
	}
	if count < int64(limit) {
		return true, nil
	}

	k := counterKey(action, key)
	ttl, err := l.redis.TTL(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl == -1 {
		if err := l.redis.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return false, nil
}

// Hit records one hit and returns the count in the current window. The window
// starts with the first hit and expires window later.
func (l *Limiter) Hit(ctx context.Context, action, key string, window time.Duration) (int64, error) {
	k := counterKey(action, key)

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, k, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

// Allow checks the limit and records the hit when allowed.
func (l *Limiter) Allow(ctx context.Context, action, key string, limit int, window time.Duration) error {
	ok, err := l.IsAllowed(ctx, action, key, limit, window)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRateLimited
	}
	_, err = l.Hit(ctx, action, key, window)
	return err
}

// Count returns the hits recorded in the current window. Missing keys count as zero.
func (l *Limiter) Count(ctx context.Context, action, key string) (int64, error) {
	count, err := l.redis.Get(ctx, counterKey(action, key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// Reset clears the counter for (action, key).
func (l *Limiter) Reset(ctx context.Context, action, key string) error {
	if err := l.redis.Del(ctx, counterKey(action, key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Keys embed emails and IPs, so they are hashed before reaching Redis.
func counterKey(action, key string) string {
	sum := sha256.Sum256([]byte(key))
	return keyPrefix + ":" + action + ":" + hex.EncodeToString(sum[:16])
}
