package store

import (
	"context"
	"sync"

	"merenda/internal/audit"
	"merenda/pkg/domain"
)

// InMemoryStore keeps entries in append order per entity.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.RequestID][]audit.Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.RequestID][]audit.Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.EntityID] = append(s.entries[entry.EntityID], *entry)
	return nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, entityID domain.RequestID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Entry, len(s.entries[entityID]))
	copy(out, s.entries[entityID])
	return out, nil
}
