package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := Connect(context.Background(), srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRedisRateLimiterFixedWindow(t *testing.T) {
	srv, client := newTestClient(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "lead:ip:203.0.113.9", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}
	ok, err := limiter.Allow(ctx, "lead:ip:203.0.113.9", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "fourth request in window must be rejected")

	other, err := limiter.Allow(ctx, "lead:ip:198.51.100.1", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, other, "keys are independent")

	srv.FastForward(time.Hour + time.Second)
	ok, err = limiter.Allow(ctx, "lead:ip:203.0.113.9", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "window resets after expiry")
}

func TestRedisRateLimiterSurfacesConnectionErrors(t *testing.T) {
	srv, client := newTestClient(t)
	limiter := NewRedisRateLimiter(client)
	srv.Close()

	_, err := limiter.Allow(context.Background(), "rfq:ip:x", 5, time.Hour)
	assert.Error(t, err)
}

func TestRedisLockoutStoreLocksAtThreshold(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRedisLockoutStore(client)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	state, err := store.RecordFailure(ctx, "login:admin@example.com", now, 2, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, state.FailedCount)
	assert.Nil(t, state.LockedUntil)

	state, err = store.RecordFailure(ctx, "login:admin@example.com", now, 2, 15*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, state.LockedUntil)
	assert.Equal(t, now.Add(15*time.Minute), *state.LockedUntil)

	loaded, err := store.Get(ctx, "login:admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.FailedCount)
	require.NotNil(t, loaded.LockedUntil)

	require.NoError(t, store.Clear(ctx, "login:admin@example.com"))
	cleared, err := store.Get(ctx, "login:admin@example.com")
	require.NoError(t, err)
	assert.Zero(t, cleared.FailedCount)
	assert.Nil(t, cleared.LockedUntil)
}

func TestRedisSessionRevocationStore(t *testing.T) {
	srv, client := newTestClient(t)
	store := NewRedisSessionRevocationStore(client)
	ctx := context.Background()
	id := uuid.New()

	revoked, err := store.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.MarkRevoked(ctx, id, time.Now().Add(10*time.Minute)))
	revoked, err = store.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)

	srv.FastForward(11 * time.Minute)
	revoked, err = store.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked, "marker expires with the access token")
}
