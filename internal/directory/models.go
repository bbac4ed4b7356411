package directory

import (
	"time"

	"github.com/google/uuid"

	"merenda/pkg/domain"
)

// LotID identifies a contracted service lot grouping schools of one district.
type LotID uuid.UUID

func (id LotID) String() string { return uuid.UUID(id).String() }
func (id LotID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id LotID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *LotID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// ServiceModule scopes contractor contacts to one contracted service.
type ServiceModule string

const (
	ModuleMeals    ServiceModule = "meals"
	ModuleDiets    ServiceModule = "special_diets"
	ModuleProducts ServiceModule = "products"
)

// Institution is any organization a user holds a role at.
type Institution struct {
	ID           domain.InstitutionID
	Kind         domain.InstitutionKind
	Name         string
	Code         string
	ContactEmail string
	// DistrictID and LotID are set for schools only.
	DistrictID domain.InstitutionID
	LotID      LotID
}

type Lot struct {
	ID           LotID
	Name         string
	DistrictID   domain.InstitutionID
	ContractorID domain.InstitutionID
}

// User holds one role at one institution.
type User struct {
	ID            domain.UserID
	Name          string
	Email         string
	Role          domain.Role
	InstitutionID domain.InstitutionID
	Active        bool
}

// Chain is the institutional hierarchy above a request's origin as it is
// right now. Requests copy it once into their snapshot.
type Chain struct {
	Origin     domain.InstitutionID
	OriginKind domain.InstitutionKind
	School     domain.InstitutionID
	District   domain.InstitutionID
	Lot        LotID
	Contractor domain.InstitutionID
}

// Snapshot is a request's frozen copy of its chain, captured once when the
// request first leaves its initial state. District requests also record
// the schools they cover.
type Snapshot struct {
	Chain
	Schools    []domain.InstitutionID
	CapturedAt time.Time
}
