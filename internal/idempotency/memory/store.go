package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/checkout/internal/orders/ports"
)

type entry struct {
	response ports.StoredResponse
	storedAt time.Time
}

// Store retains create responses for replaying requests with a reused key.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates an in-memory idempotency store. A ttl of zero keeps entries forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the stored response for key, or nil when absent or expired.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return nil, nil
	}
	copy := item.response
	return &copy, nil
}

// Save stores the response for key. A live entry is never overwritten.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[key]; ok && !s.expired(item) {
		return nil
	}
	s.items[key] = entry{response: response, storedAt: s.now()}
	return nil
}

func (s *Store) expired(item entry) bool {
	return s.ttl > 0 && s.now().Sub(item.storedAt) > s.ttl
}
