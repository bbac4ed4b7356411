// Package directorytest seeds a small institutional hierarchy for tests.
package directorytest

import (
	"context"

	"github.com/google/uuid"

	"merenda/internal/directory"
	"merenda/pkg/domain"
)

// Fixture is one district with one lot, its contractor and one school,
// plus central, logistics, supplier and distributor institutions. Users
// holds one active user per role.
type Fixture struct {
	District    directory.Institution
	School      directory.Institution
	Contractor  directory.Institution
	Central     directory.Institution
	Logistics   directory.Institution
	Supplier    directory.Institution
	Distributor directory.Institution
	Lot         directory.Lot
	Users       map[domain.Role]directory.User
}

var roleHomes = map[domain.Role]func(f *Fixture) directory.Institution{
	domain.RoleSchoolDirector:         func(f *Fixture) directory.Institution { return f.School },
	domain.RoleSchoolAdmin:            func(f *Fixture) directory.Institution { return f.School },
	domain.RoleDistrictCoManager:      func(f *Fixture) directory.Institution { return f.District },
	domain.RoleDistrictAdmin:          func(f *Fixture) directory.Institution { return f.District },
	domain.RoleCentralMealManager:     func(f *Fixture) directory.Institution { return f.Central },
	domain.RoleCentralDietManager:     func(f *Fixture) directory.Institution { return f.Central },
	domain.RoleCentralProductManager:  func(f *Fixture) directory.Institution { return f.Central },
	domain.RoleCentralNutritionist:    func(f *Fixture) directory.Institution { return f.Central },
	domain.RoleMeasurementAdmin:       func(f *Fixture) directory.Institution { return f.Central },
	domain.RoleContractorAdmin:        func(f *Fixture) directory.Institution { return f.Contractor },
	domain.RoleContractorNutritionist: func(f *Fixture) directory.Institution { return f.Contractor },
	domain.RoleLogisticsCoordinator:   func(f *Fixture) directory.Institution { return f.Logistics },
	domain.RoleSupplyManager:          func(f *Fixture) directory.Institution { return f.Logistics },
	domain.RoleCronogramManager:       func(f *Fixture) directory.Institution { return f.Logistics },
	domain.RoleQualityManager:         func(f *Fixture) directory.Institution { return f.Logistics },
	domain.RoleInspector:              func(f *Fixture) directory.Institution { return f.Logistics },
	domain.RoleDistributorAdmin:       func(f *Fixture) directory.Institution { return f.Distributor },
	domain.RoleSupplierAdmin:          func(f *Fixture) directory.Institution { return f.Supplier },
}

func institution(kind domain.InstitutionKind, name string) directory.Institution {
	return directory.Institution{
		ID:           domain.InstitutionID(uuid.New()),
		Kind:         kind,
		Name:         name,
		Code:         name,
		ContactEmail: name + "@example.org",
	}
}

// Seed writes the fixture into store.
func Seed(ctx context.Context, store directory.Store) (*Fixture, error) {
	f := &Fixture{
		District:    institution(domain.InstitutionDistrict, "dre-butanta"),
		Contractor:  institution(domain.InstitutionContractor, "nutri-co"),
		Central:     institution(domain.InstitutionCentral, "codae"),
		Logistics:   institution(domain.InstitutionLogistics, "dilog"),
		Supplier:    institution(domain.InstitutionSupplier, "fornecedora"),
		Distributor: institution(domain.InstitutionDistributor, "distribuidora"),
		Users:       make(map[domain.Role]directory.User),
	}
	f.Lot = directory.Lot{
		ID:           directory.LotID(uuid.New()),
		Name:         "lote-1",
		DistrictID:   f.District.ID,
		ContractorID: f.Contractor.ID,
	}
	f.School = institution(domain.InstitutionSchool, "emef-paulo-freire")
	f.School.DistrictID = f.District.ID
	f.School.LotID = f.Lot.ID

	for _, inst := range []*directory.Institution{
		&f.District, &f.Contractor, &f.Central, &f.Logistics, &f.Supplier, &f.Distributor, &f.School,
	} {
		if err := store.SaveInstitution(ctx, inst); err != nil {
			return nil, err
		}
	}
	if err := store.SaveLot(ctx, &f.Lot); err != nil {
		return nil, err
	}
	for role, home := range roleHomes {
		inst := home(f)
		user := directory.User{
			ID:            domain.UserID(uuid.New()),
			Name:          string(role),
			Email:         string(role) + "@example.org",
			Role:          role,
			InstitutionID: inst.ID,
			Active:        true,
		}
		if err := store.SaveUser(ctx, &user); err != nil {
			return nil, err
		}
		f.Users[role] = user
	}
	for _, module := range []directory.ServiceModule{directory.ModuleMeals, directory.ModuleDiets, directory.ModuleProducts} {
		if err := store.AddContractorEmail(ctx, f.Contractor.ID, module, string(module)+"@nutri-co.example.org"); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Actor returns the seeded user holding role as a workflow actor.
func (f *Fixture) Actor(role domain.Role) domain.Actor {
	u := f.Users[role]
	a := domain.Actor{
		UserID:        u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
	}
	for _, inst := range []directory.Institution{
		f.District, f.Contractor, f.Central, f.Logistics, f.Supplier, f.Distributor, f.School,
	} {
		if inst.ID == u.InstitutionID {
			a.InstitutionKind = inst.Kind
		}
	}
	return a
}
