package promoinput

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore is the process local Store, used when no redis configured
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[int64]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Set(_ context.Context, accountID int64, state State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge()

	if state == StateIdle {
		delete(s.entries, accountID)
		return nil
	}

	s.entries[accountID] = memoryEntry{state: state, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, accountID int64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[accountID]
	delete(s.entries, accountID)

	if !ok || !s.now().Before(entry.expiresAt) {
		return StateIdle, nil
	}
	return entry.state, nil
}

// Drop expired entries, caller must hold the lock
func (s *MemoryStore) purge() {
	now := s.now()
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}
