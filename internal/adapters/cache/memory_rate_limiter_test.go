package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiterBurstThenRefill(t *testing.T) {
	t.Parallel()

	limiter := NewMemoryRateLimiter(time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(ctx, "rfq:ip:1", 5, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "rfq:ip:1", 5, time.Hour)
	assert.False(t, ok, "burst exhausted")

	now = now.Add(12 * time.Minute)
	ok, _ = limiter.Allow(ctx, "rfq:ip:1", 5, time.Hour)
	assert.True(t, ok, "one token refills every window/limit")
}

func TestMemoryRateLimiterEvictsIdleKeys(t *testing.T) {
	t.Parallel()

	limiter := NewMemoryRateLimiter(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	_, _ = limiter.Allow(context.Background(), "a", 1, time.Hour)
	_, _ = limiter.Allow(context.Background(), "b", 1, time.Hour)
	now = now.Add(2 * time.Minute)
	_, _ = limiter.Allow(context.Background(), "b", 1, time.Hour)

	assert.Equal(t, 1, limiter.evictIdle())
	assert.Len(t, limiter.limiters, 1)
}
