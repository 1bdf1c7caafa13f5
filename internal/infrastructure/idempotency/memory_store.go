package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
)

var _ ports.IdempotencyStore = (*MemoryStore)(nil)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore IdempotencyStore en memoria con expiración perezosa.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore crea un store vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (ports.IdempotencyState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.value == pendingMarker {
			return ports.IdempotencyInFlight, "", nil
		}
		return ports.IdempotencyCompleted, e.value, nil
	}
	s.entries[key] = entry{value: pendingMarker, expiresAt: now.Add(ttl)}
	return ports.IdempotencyReserved, "", nil
}

func (s *MemoryStore) Complete(_ context.Context, key, result string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: result, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
