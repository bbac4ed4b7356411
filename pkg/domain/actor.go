package domain

// Role is a profile held by a user at one institution.
type Role string

const (
	RoleSchoolDirector         Role = "school_director"
	RoleSchoolAdmin            Role = "school_admin"
	RoleDistrictCoManager      Role = "district_co_manager"
	RoleDistrictAdmin          Role = "district_admin"
	RoleCentralMealManager     Role = "central_meal_manager"
	RoleCentralDietManager     Role = "central_diet_manager"
	RoleCentralProductManager  Role = "central_product_manager"
	RoleCentralNutritionist    Role = "central_nutritionist"
	RoleMeasurementAdmin       Role = "measurement_admin"
	RoleContractorAdmin        Role = "contractor_admin"
	RoleContractorNutritionist Role = "contractor_nutritionist"
	RoleLogisticsCoordinator   Role = "logistics_coordinator"
	RoleSupplyManager          Role = "supply_manager"
	RoleCronogramManager       Role = "cronogram_manager"
	RoleQualityManager         Role = "quality_manager"
	RoleDistributorAdmin       Role = "distributor_admin"
	RoleSupplierAdmin          Role = "supplier_admin"
	RoleInspector              Role = "inspector"
	RoleSystem                 Role = "system"
)

// InstitutionKind classifies the institution a role is held at.
type InstitutionKind string

const (
	InstitutionSchool      InstitutionKind = "school"
	InstitutionDistrict    InstitutionKind = "district"
	InstitutionCentral     InstitutionKind = "central"
	InstitutionContractor  InstitutionKind = "contractor"
	InstitutionLogistics   InstitutionKind = "logistics"
	InstitutionSupplier    InstitutionKind = "supplier"
	InstitutionDistributor InstitutionKind = "distributor"
)

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	UserID          UserID
	Name            string
	Email           string
	Role            Role
	InstitutionID   InstitutionID
	InstitutionKind InstitutionKind
}

// SystemActor performs scheduled and cascading transitions.
func SystemActor() Actor {
	return Actor{Name: "system", Role: RoleSystem}
}

func (a Actor) IsSystem() bool { return a.Role == RoleSystem }

// HasRole reports whether the actor holds any of roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
