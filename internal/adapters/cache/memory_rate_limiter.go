package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

// MemoryRateLimiter is the single-process fallback used when no Redis URL is configured.
// Each key gets a token bucket refilled at limit/window with a burst of limit.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	idleTTL  time.Duration
	now      func() time.Time
}

func NewMemoryRateLimiter(idleTTL time.Duration) *MemoryRateLimiter {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	return &MemoryRateLimiter{
		limiters: make(map[string]*limiterEntry),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	now := l.now()
	entryKey := key + "|" + window.String()

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.limiters[entryKey]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		l.limiters[entryKey] = entry
	}
	entry.lastAccessed = now
	return entry.limiter.AllowN(now, 1), nil
}

// Run evicts idle buckets until ctx is done.
func (l *MemoryRateLimiter) Run(ctx context.Context, interval time.Duration) {
	sweep(ctx, interval, l.evictIdle)
}

func (l *MemoryRateLimiter) evictIdle() int {
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	for key, entry := range l.limiters {
		if entry.lastAccessed.Before(cutoff) {
			delete(l.limiters, key)
			evicted++
		}
	}
	return evicted
}
