package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockoutStoreLocksAtThreshold(t *testing.T) {
	t.Parallel()

	store := NewMemoryLockoutStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

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

func TestMemoryLockoutStoreExpiresEntries(t *testing.T) {
	t.Parallel()

	store := NewMemoryLockoutStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.RecordFailure(ctx, "idle", now, 5, 15*time.Minute)
	require.NoError(t, err)
	_, err = store.RecordFailure(ctx, "locked", now, 1, 15*time.Minute)
	require.NoError(t, err)

	now = now.Add(15*time.Minute + lockoutGraceTTL)
	locked, err := store.Get(ctx, "locked")
	require.NoError(t, err)
	assert.Zero(t, locked.FailedCount, "lockout state lapses after window plus grace")

	idle, err := store.Get(ctx, "idle")
	require.NoError(t, err)
	assert.Equal(t, 1, idle.FailedCount)

	now = now.Add(lockoutIdleTTL)
	assert.Equal(t, 1, store.evictExpired())
	assert.Empty(t, store.entries)
}

func TestMemorySessionRevocationStore(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionRevocationStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	id := uuid.New()

	revoked, err := store.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.MarkRevoked(ctx, id, now.Add(10*time.Minute)))
	revoked, err = store.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(11 * time.Minute)
	revoked, err = store.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked, "marker expires with the access token")

	stale := uuid.New()
	require.NoError(t, store.MarkRevoked(ctx, stale, now.Add(-time.Minute)))
	revoked, err = store.IsRevoked(ctx, stale)
	require.NoError(t, err)
	assert.True(t, revoked, "past expiry falls back to an hour")

	now = now.Add(time.Hour)
	assert.Equal(t, 1, store.evictExpired())
}
