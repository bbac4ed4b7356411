package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"merenda/internal/directory"
	"merenda/pkg/domain"
	"merenda/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu           sync.RWMutex
	institutions map[domain.InstitutionID]directory.Institution
	lots         map[directory.LotID]directory.Lot
	users        map[domain.UserID]directory.User
	emails       map[domain.InstitutionID]map[directory.ServiceModule][]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		institutions: make(map[domain.InstitutionID]directory.Institution),
		lots:         make(map[directory.LotID]directory.Lot),
		users:        make(map[domain.UserID]directory.User),
		emails:       make(map[domain.InstitutionID]map[directory.ServiceModule][]string),
	}
}

func (s *InMemoryStore) SaveInstitution(_ context.Context, inst *directory.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.institutions[inst.ID] = *inst
	return nil
}

func (s *InMemoryStore) SaveLot(_ context.Context, lot *directory.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.ID] = *lot
	return nil
}

func (s *InMemoryStore) SaveUser(_ context.Context, user *directory.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *InMemoryStore) AddContractorEmail(_ context.Context, contractor domain.InstitutionID, module directory.ServiceModule, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emails[contractor] == nil {
		s.emails[contractor] = make(map[directory.ServiceModule][]string)
	}
	if !slices.Contains(s.emails[contractor][module], email) {
		s.emails[contractor][module] = append(s.emails[contractor][module], email)
	}
	return nil
}

func (s *InMemoryStore) Institution(_ context.Context, id domain.InstitutionID) (*directory.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &inst, nil
}

func (s *InMemoryStore) Lot(_ context.Context, id directory.LotID) (*directory.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lot, ok := s.lots[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &lot, nil
}

func (s *InMemoryStore) ActiveUsersByRoles(_ context.Context, institution domain.InstitutionID, roles []domain.Role) ([]directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []directory.User
	for _, u := range s.users {
		if u.Active && (institution.IsNil() || u.InstitutionID == institution) && slices.Contains(roles, u.Role) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b directory.User) int {
		return strings.Compare(a.Email, b.Email)
	})
	return out, nil
}

func (s *InMemoryStore) ContractorEmails(_ context.Context, contractor domain.InstitutionID, module directory.ServiceModule) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.emails[contractor][module]), nil
}
