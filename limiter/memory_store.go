package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// memoryStore implements the Store interface with a mutex-guarded map.
type memoryStore struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]Entry
}

// NewMemoryStore creates an in-process store counting over fixed windows of
// the given length. Expired entries are rewritten in place by the next
// Increment rather than evicted in the background, so memory stays bounded
// by the number of distinct recently active keys.
func NewMemoryStore(window time.Duration) Store {
	return &memoryStore{
		window:  window,
		entries: make(map[string]Entry),
	}
}

// Peek implements the Store interface for memory storage. The returned entry
// is normalized against expiry but the normalization is not written back.
func (s *memoryStore) Peek(_ context.Context, key string, now time.Time) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	return s.normalize(e, exists, now), nil
}

// Increment implements the Store interface for memory storage. The whole
// normalize-increment-persist sequence runs under the store lock, so two
// concurrent calls for one key can never observe the same pre-increment
// count.
func (s *memoryStore) Increment(_ context.Context, key string, now time.Time) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	e = s.normalize(e, exists, now)
	e.Count++
	s.entries[key] = e

	log.Debug().Str("key", key).Int("count", e.Count).Time("window_start", e.WindowStart).Msg("counter incremented")
	return e, nil
}

// Clear implements the Store interface for memory storage.
func (s *memoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	log.Debug().Msg("memory store cleared")
	return nil
}

// normalize restarts an entry whose window has elapsed. Entries are value
// copies, so callers can normalize freely without touching the map.
func (s *memoryStore) normalize(e Entry, exists bool, now time.Time) Entry {
	if !exists || now.Sub(e.WindowStart) >= s.window {
		return Entry{Count: 0, WindowStart: now}
	}
	return e
}
