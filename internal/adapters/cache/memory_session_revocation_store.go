package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySessionRevocationStore holds logout markers in process when no Redis URL is configured.
type MemorySessionRevocationStore struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]time.Time
	now     func() time.Time
}

func NewMemorySessionRevocationStore() *MemorySessionRevocationStore {
	return &MemorySessionRevocationStore{revoked: make(map[uuid.UUID]time.Time), now: time.Now}
}

func (s *MemorySessionRevocationStore) MarkRevoked(_ context.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	now := s.now()
	if !expiresAt.After(now) {
		expiresAt = now.Add(time.Hour)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = expiresAt
	return nil
}

func (s *MemorySessionRevocationStore) IsRevoked(_ context.Context, sessionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, sessionID)
		return false, nil
	}
	return true, nil
}

// Run drops lapsed markers until ctx is done.
func (s *MemorySessionRevocationStore) Run(ctx context.Context, interval time.Duration) {
	sweep(ctx, interval, s.evictExpired)
}

func (s *MemorySessionRevocationStore) evictExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, id)
			evicted++
		}
	}
	return evicted
}
