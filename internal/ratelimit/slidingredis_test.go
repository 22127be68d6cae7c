package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) (Limiter, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Limiter{Client: client, Prefix: "test:", Now: func() time.Time { return now }}, &now
}

func TestLimiterAllowSlidingWindow(t *testing.T) {
	limiter, now := newLimiter(t)
	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		d, err := limiter.Allow(ctx, "key", window, max)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		require.Equal(t, max-(i+1), d.Remaining)
		*now = now.Add(100 * time.Millisecond)
	}

	d, err := limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
	require.WithinDuration(t, time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC), d.Reset, time.Millisecond)

	*now = now.Add(window)
	d, err = limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestLimiterRejectedEventsDoNotCount(t *testing.T) {
	limiter, now := newLimiter(t)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "k", time.Second, 1)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	for i := 0; i < 3; i++ {
		*now = now.Add(300 * time.Millisecond)
		d, err = limiter.Allow(ctx, "k", time.Second, 1)
		require.NoError(t, err)
		require.False(t, d.Allowed)
	}

	*now = now.Add(200 * time.Millisecond)
	d, err = limiter.Allow(ctx, "k", time.Second, 1)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestLimiterDisabled(t *testing.T) {
	d, err := Limiter{}.Allow(context.Background(), "k", time.Second, 3)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 3, d.Remaining)
}
