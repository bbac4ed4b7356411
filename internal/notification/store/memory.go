package store

import (
	"context"
	"sort"
	"sync"

	"merenda/internal/notification"
	"merenda/pkg/domain"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	items []notification.Notification
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) CreateIfAbsent(_ context.Context, n *notification.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if !existing.Resolved && existing.EntityID == n.EntityID && existing.RecipientID == n.RecipientID && existing.Title == n.Title {
			return false, nil
		}
	}
	s.items = append(s.items, *n)
	return true, nil
}

func (s *InMemoryStore) ResolvePending(_ context.Context, title string, entity domain.RequestID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resolved := 0
	for i := range s.items {
		n := &s.items[i]
		if n.Resolved || n.Title != title || n.EntityID != entity || n.Category != notification.CategoryPendency {
			continue
		}
		n.Resolved = true
		n.Read = true
		resolved++
	}
	return resolved, nil
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, user domain.UserID, unresolvedOnly bool) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []notification.Notification
	for _, n := range s.items {
		if n.RecipientID != user || (unresolvedOnly && n.Resolved) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
