package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return New(rdb), mr
}

func TestLimiter_BlocksAfterLimitUntilWindowRollsOver(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()
	window := 60 * time.Second

	for i := 0; i < 3; i++ {
		ok, err := l.IsAllowed(ctx, "api", "tok|10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "hit %d should be allowed", i+1)
		_, err = l.Hit(ctx, "api", "tok|10.0.0.1", window)
		require.NoError(t, err)
	}

	ok, err := l.IsAllowed(ctx, "api", "tok|10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(window - time.Second)
	ok, err = l.IsAllowed(ctx, "api", "tok|10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "still inside the window")

	mr.FastForward(2 * time.Second)
	ok, err = l.IsAllowed(ctx, "api", "tok|10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "window rolled over")
}

func TestLimiter_WindowIsFixedFromFirstHit(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	_, err := l.Hit(ctx, "login", "a@b.c|1.2.3.4", 10*time.Second)
	require.NoError(t, err)
	mr.FastForward(8 * time.Second)
	count, err := l.Hit(ctx, "login", "a@b.c|1.2.3.4", 10*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// later hits do not extend the window
	mr.FastForward(3 * time.Second)
	count, err = l.Count(ctx, "login", "a@b.c|1.2.3.4")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "api", "a", 1, time.Minute))
	assert.ErrorIs(t, l.Allow(ctx, "api", "a", 1, time.Minute), ErrRateLimited)
	assert.NoError(t, l.Allow(ctx, "api", "b", 1, time.Minute))
	assert.NoError(t, l.Allow(ctx, "login", "a", 1, time.Minute))
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	_, err := l.Hit(ctx, "login", "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx, "login", "k"))

	count, err := l.Count(ctx, "login", "k")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLimiter_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.IsAllowed(context.Background(), "api", "k", 1, time.Minute)
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestLimiter_SaturatedCounterWithoutTTLGetsExpiry(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	k := counterKey("api", "stuck")
	require.NoError(t, mr.Set(k, "9"))

	ok, err := l.IsAllowed(ctx, "api", "stuck", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(k))

	mr.FastForward(time.Minute)
	ok, err = l.IsAllowed(ctx, "api", "stuck", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
