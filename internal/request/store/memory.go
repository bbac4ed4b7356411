package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"merenda/internal/request/models"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	"merenda/pkg/platform/sentinel"
)

// InMemoryStore keeps requests in a map guarded by one RWMutex, plus one
// lock per request held for the whole of Execute. Reads of other requests
// (parent lookups from guards) never wait on an Execute in progress.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*models.Request

	locksMu sync.Mutex
	locks   map[domain.RequestID]*sync.Mutex
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		requests: make(map[domain.RequestID]*models.Request),
		locks:    make(map[domain.RequestID]*sync.Mutex),
	}
}

func (s *InMemoryStore) lockFor(id domain.RequestID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *InMemoryStore) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return fmt.Errorf("request %s: %w", r.ID, sentinel.ErrConflict)
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) State(_ context.Context, id domain.RequestID) (workflow.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return r.State, nil
}

func (s *InMemoryStore) ListByOrigin(_ context.Context, origin domain.InstitutionID) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.requests {
		if r.OriginID == origin {
			out = append(out, r.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

// Execute runs fn on a private copy of the request while holding the
// request's lock, and stores the copy only when fn succeeds.
func (s *InMemoryStore) Execute(ctx context.Context, id domain.RequestID, fn func(r *models.Request) error) (*models.Request, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.requests[id] = current.Clone()
	s.mu.Unlock()
	return current, nil
}

// DeleteIf removes the request when check accepts it.
func (s *InMemoryStore) DeleteIf(ctx context.Context, id domain.RequestID, check func(r *models.Request) error) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	current, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := check(current); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.requests, id)
	s.mu.Unlock()

	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()
	return nil
}

func sortByCreation(rs []*models.Request) {
	slices.SortFunc(rs, func(a, b *models.Request) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
