// Package directory resolves users, institutions and the school → district
// → lot → contractor chain used for snapshots and notification recipients.
package directory

import (
	"context"
	"errors"

	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/mailaddr"
	"merenda/pkg/platform/sentinel"
)

type Store interface {
	SaveInstitution(ctx context.Context, inst *Institution) error
	SaveLot(ctx context.Context, lot *Lot) error
	SaveUser(ctx context.Context, user *User) error
	AddContractorEmail(ctx context.Context, contractor domain.InstitutionID, module ServiceModule, email string) error

	Institution(ctx context.Context, id domain.InstitutionID) (*Institution, error)
	Lot(ctx context.Context, id LotID) (*Lot, error)
	// ActiveUsersByRoles matches any institution when institution is nil.
	ActiveUsersByRoles(ctx context.Context, institution domain.InstitutionID, roles []domain.Role) ([]User, error)
	ContractorEmails(ctx context.Context, contractor domain.InstitutionID, module ServiceModule) ([]string, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) Institution(ctx context.Context, id domain.InstitutionID) (*Institution, error) {
	inst, err := s.store.Institution(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load institution")
	}
	return inst, nil
}

// Chain resolves the live hierarchy above origin. Schools resolve their
// district, lot and contractor; districts resolve only themselves; other
// institutions are their own origin.
func (s *Service) Chain(ctx context.Context, origin domain.InstitutionID) (*Chain, error) {
	inst, err := s.Institution(ctx, origin)
	if err != nil {
		return nil, err
	}
	chain := &Chain{Origin: inst.ID, OriginKind: inst.Kind}
	switch inst.Kind {
	case domain.InstitutionSchool:
		chain.School = inst.ID
		chain.District = inst.DistrictID
		chain.Lot = inst.LotID
		if !inst.LotID.IsNil() {
			lot, err := s.store.Lot(ctx, inst.LotID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load lot")
			}
			if lot != nil {
				chain.Contractor = lot.ContractorID
			}
		}
	case domain.InstitutionDistrict:
		chain.District = inst.ID
	}
	return chain, nil
}

// UsersWithRoles returns the active users holding any of roles at institution.
func (s *Service) UsersWithRoles(ctx context.Context, institution domain.InstitutionID, roles ...domain.Role) ([]User, error) {
	if institution.IsNil() || len(roles) == 0 {
		return nil, nil
	}
	users, err := s.store.ActiveUsersByRoles(ctx, institution, roles)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list users by role")
	}
	return users, nil
}

// UsersWithRolesAnywhere returns active users holding any of roles at any
// institution. Used for program-wide teams such as the central office.
func (s *Service) UsersWithRolesAnywhere(ctx context.Context, roles ...domain.Role) ([]User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	users, err := s.store.ActiveUsersByRoles(ctx, domain.InstitutionID{}, roles)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list users by role")
	}
	return users, nil
}

// ContractorEmails returns the contractor's registered addresses for module.
func (s *Service) ContractorEmails(ctx context.Context, contractor domain.InstitutionID, module ServiceModule) ([]string, error) {
	if contractor.IsNil() {
		return nil, nil
	}
	emails, err := s.store.ContractorEmails(ctx, contractor, module)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list contractor emails")
	}
	return emails, nil
}

// RegisterContractorEmail adds address to the contractor's mailing list for
// module. Addresses are stored normalized so repeats collapse.
func (s *Service) RegisterContractorEmail(ctx context.Context, contractor domain.InstitutionID, module ServiceModule, address string) error {
	address = mailaddr.Normalize(address)
	if !mailaddr.Valid(address) {
		return dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	inst, err := s.Institution(ctx, contractor)
	if err != nil {
		return err
	}
	if inst.Kind != domain.InstitutionContractor {
		return dErrors.New(dErrors.CodeValidation, "mailing lists belong to contractors")
	}
	if err := s.store.AddContractorEmail(ctx, contractor, module, address); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "add contractor email")
	}
	return nil
}
