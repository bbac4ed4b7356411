package notification

import (
	"context"

	"merenda/internal/directory"
	"merenda/pkg/domain"
)

// Directory is the part of the institution directory recipient resolution
// needs.
type Directory interface {
	Institution(ctx context.Context, id domain.InstitutionID) (*directory.Institution, error)
	UsersWithRoles(ctx context.Context, institution domain.InstitutionID, roles ...domain.Role) ([]directory.User, error)
	UsersWithRolesAnywhere(ctx context.Context, roles ...domain.Role) ([]directory.User, error)
	ContractorEmails(ctx context.Context, contractor domain.InstitutionID, module directory.ServiceModule) ([]string, error)
}

// Scope is the institutional context of one request, read from its
// snapshot rather than from live relationships.
type Scope struct {
	Origin     domain.InstitutionID
	School     domain.InstitutionID
	District   domain.InstitutionID
	Contractor domain.InstitutionID
	// Counterpart is the supplier or distributor a logistics request is
	// addressed to.
	Counterpart domain.InstitutionID
}

// Audience resolves one group of recipients for a scope.
type Audience func(ctx context.Context, dir Directory, scope Scope) ([]Recipient, error)

func fromUsers(users []directory.User) []Recipient {
	out := make([]Recipient, 0, len(users))
	for _, u := range users {
		out = append(out, Recipient{UserID: u.ID, Name: u.Name, Email: u.Email})
	}
	return out
}

func staffAt(pick func(Scope) domain.InstitutionID, roles []domain.Role) Audience {
	return func(ctx context.Context, dir Directory, scope Scope) ([]Recipient, error) {
		inst := pick(scope)
		if inst.IsNil() {
			return nil, nil
		}
		users, err := dir.UsersWithRoles(ctx, inst, roles...)
		if err != nil {
			return nil, err
		}
		return fromUsers(users), nil
	}
}

// DistrictStaff is the active staff of the request's district holding roles.
func DistrictStaff(roles ...domain.Role) Audience {
	return staffAt(func(s Scope) domain.InstitutionID { return s.District }, roles)
}

func SchoolStaff(roles ...domain.Role) Audience {
	return staffAt(func(s Scope) domain.InstitutionID { return s.School }, roles)
}

// OriginStaff targets the institution that filed the request, such as a
// supplier or distributor.
func OriginStaff(roles ...domain.Role) Audience {
	return staffAt(func(s Scope) domain.InstitutionID { return s.Origin }, roles)
}

// CounterpartStaff targets the supplier or distributor a request is
// addressed to.
func CounterpartStaff(roles ...domain.Role) Audience {
	return staffAt(func(s Scope) domain.InstitutionID { return s.Counterpart }, roles)
}

// Team targets a program-wide team regardless of institution.
func Team(roles ...domain.Role) Audience {
	return func(ctx context.Context, dir Directory, _ Scope) ([]Recipient, error) {
		users, err := dir.UsersWithRolesAnywhere(ctx, roles...)
		if err != nil {
			return nil, err
		}
		return fromUsers(users), nil
	}
}

// SchoolContact is the school's single registered address. It receives
// email only.
func SchoolContact() Audience {
	return func(ctx context.Context, dir Directory, scope Scope) ([]Recipient, error) {
		if scope.School.IsNil() {
			return nil, nil
		}
		inst, err := dir.Institution(ctx, scope.School)
		if err != nil {
			return nil, err
		}
		if inst.ContactEmail == "" {
			return nil, nil
		}
		return []Recipient{{Name: inst.Name, Email: inst.ContactEmail}}, nil
	}
}

// ContractorStaff is the contractor's users holding roles plus the
// addresses it registered for module.
func ContractorStaff(module directory.ServiceModule, roles ...domain.Role) Audience {
	return func(ctx context.Context, dir Directory, scope Scope) ([]Recipient, error) {
		if scope.Contractor.IsNil() {
			return nil, nil
		}
		var out []Recipient
		if len(roles) > 0 {
			users, err := dir.UsersWithRoles(ctx, scope.Contractor, roles...)
			if err != nil {
				return nil, err
			}
			out = fromUsers(users)
		}
		emails, err := dir.ContractorEmails(ctx, scope.Contractor, module)
		if err != nil {
			return nil, err
		}
		for _, e := range emails {
			out = append(out, Recipient{Email: e})
		}
		return out, nil
	}
}
