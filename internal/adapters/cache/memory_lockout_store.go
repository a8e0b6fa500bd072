package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nodrystarts/site-backend/internal/ports"
)

type lockoutEntry struct {
	failedCount int
	lockedUntil *time.Time
	expiresAt   time.Time
}

// MemoryLockoutStore keeps failed-login counters in process when no Redis URL is configured.
// Entries expire on the same schedule as RedisLockoutStore keys.
type MemoryLockoutStore struct {
	mu      sync.Mutex
	entries map[string]*lockoutEntry
	now     func() time.Time
}

func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]*lockoutEntry), now: time.Now}
}

func (s *MemoryLockoutStore) Get(_ context.Context, key string) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(key)
	if !ok {
		return ports.LockoutState{}, nil
	}
	return entry.state(), nil
}

func (s *MemoryLockoutStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(key)
	if !ok {
		entry = &lockoutEntry{}
		s.entries[key] = entry
	}
	entry.failedCount++

	if threshold > 0 && entry.failedCount >= threshold {
		lockedUntil := now.Add(lockoutWindow).UTC()
		entry.lockedUntil = &lockedUntil
		entry.expiresAt = s.now().Add(lockoutWindow + lockoutGraceTTL)
		return entry.state(), nil
	}
	entry.expiresAt = s.now().Add(lockoutIdleTTL)
	return entry.state(), nil
}

func (s *MemoryLockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Run drops expired counters until ctx is done.
func (s *MemoryLockoutStore) Run(ctx context.Context, interval time.Duration) {
	sweep(ctx, interval, s.evictExpired)
}

func (s *MemoryLockoutStore) evictExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted
}

// live must be called with s.mu held.
func (s *MemoryLockoutStore) live(key string) (*lockoutEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return entry, true
}

func (e *lockoutEntry) state() ports.LockoutState {
	state := ports.LockoutState{FailedCount: e.failedCount}
	if e.lockedUntil != nil {
		lockedUntil := *e.lockedUntil
		state.LockedUntil = &lockedUntil
	}
	return state
}

func sweep(ctx context.Context, interval time.Duration, evict func() int) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evict()
		}
	}
}
