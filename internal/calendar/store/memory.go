package store

import (
	"context"
	"sync"
	"time"

	"merenda/internal/calendar"
	"merenda/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	windows map[domain.InstitutionID][]calendar.SuspensionWindow
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{windows: make(map[domain.InstitutionID][]calendar.SuspensionWindow)}
}

func (s *InMemoryStore) Add(_ context.Context, w calendar.SuspensionWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[w.InstitutionID] = append(s.windows[w.InstitutionID], w)
	return nil
}

func (s *InMemoryStore) ListOverlapping(_ context.Context, institution domain.InstitutionID, from, to time.Time) ([]calendar.SuspensionWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []calendar.SuspensionWindow
	for _, w := range s.windows[institution] {
		if !day(w.End).Before(day(from)) && !day(w.Start).After(day(to)) {
			out = append(out, w)
		}
	}
	return out, nil
}

// day drops zone and clock so stored windows compare as plain dates.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
