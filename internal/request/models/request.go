package models

import (
	"slices"
	"time"

	"merenda/internal/calendar"
	"merenda/internal/directory"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

// Request is one workflow-driven entity: a school meal request, a special
// diet, a product homologation, a delivery guide and so on. Kind selects the
// workflow definition; the machine only reads and writes State.
//
// Invariants:
//   - Kind and Workflow never change after construction
//   - Origin is the institution that filed the request
//   - Snapshot is captured at most once, on the first departure from the
//     initial state
type Request struct {
	ID            domain.RequestID       `json:"id"`
	Kind          string                 `json:"kind"`
	Workflow      string                 `json:"workflow"`
	State         workflow.State         `json:"state"`
	OriginID      domain.InstitutionID   `json:"origin_id"`
	CounterpartID domain.InstitutionID   `json:"counterpart_id,omitzero"`
	Parent        domain.RequestID       `json:"parent_id,omitzero"`
	Date          time.Time              `json:"event_date,omitzero"`
	Until         time.Time              `json:"end_date,omitzero"`
	Reason        string                 `json:"motive,omitempty"`
	Level         calendar.Priority      `json:"priority,omitempty"`
	Schools       []domain.InstitutionID `json:"schools,omitempty"`
	Snap          *directory.Snapshot    `json:"snapshot,omitempty"`
	CreatedBy     domain.UserID          `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Draft holds the caller-supplied fields of a new request.
type Draft struct {
	Kind        string
	Workflow    string
	Initial     workflow.State
	Counterpart domain.InstitutionID
	Parent      domain.RequestID
	EventDate   time.Time
	EndDate     time.Time
	Motive      string
	Schools     []domain.InstitutionID
}

// NewRequest builds a request in its workflow's initial state, filed by
// actor's institution.
func NewRequest(id domain.RequestID, d Draft, actor domain.Actor, now time.Time) (*Request, error) {
	if d.Kind == "" || d.Workflow == "" || d.Initial == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request requires a kind and a workflow")
	}
	if actor.InstitutionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request requires a filing institution")
	}
	if !d.EndDate.IsZero() && !d.EventDate.IsZero() && d.EndDate.Before(d.EventDate) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "end date must not precede the event date")
	}
	return &Request{
		ID:            id,
		Kind:          d.Kind,
		Workflow:      d.Workflow,
		State:         d.Initial,
		OriginID:      actor.InstitutionID,
		CounterpartID: d.Counterpart,
		Parent:        d.Parent,
		Date:          d.EventDate,
		Until:         d.EndDate,
		Reason:        d.Motive,
		Schools:       slices.Clone(d.Schools),
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (r *Request) EntityID() domain.RequestID             { return r.ID }
func (r *Request) EntityKind() string                     { return r.Kind }
func (r *Request) WorkflowState() workflow.State          { return r.State }
func (r *Request) SetWorkflowState(s workflow.State)      { r.State = s }
func (r *Request) Origin() domain.InstitutionID           { return r.OriginID }
func (r *Request) Counterpart() domain.InstitutionID      { return r.CounterpartID }
func (r *Request) EventDate() time.Time                   { return r.Date }
func (r *Request) EndDate() time.Time                     { return r.Until }
func (r *Request) Motive() string                         { return r.Reason }
func (r *Request) Priority() calendar.Priority            { return r.Level }
func (r *Request) SetPriority(p calendar.Priority)        { r.Level = p }
func (r *Request) ParentID() domain.RequestID             { return r.Parent }
func (r *Request) Snapshot() *directory.Snapshot          { return r.Snap }
func (r *Request) CoveredSchools() []domain.InstitutionID { return r.Schools }

// CaptureSnapshot stores s once. A second capture is an invariant violation.
func (r *Request) CaptureSnapshot(s directory.Snapshot) error {
	if r.Snap != nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "institutional snapshot already captured")
	}
	s.Schools = slices.Clone(s.Schools)
	r.Snap = &s
	return nil
}

// CanDiscard reports whether the request may be deleted: only requests that
// never left their initial state and have no audit entries. A self-loop on
// the initial state leaves entries that must not be orphaned.
func (r *Request) CanDiscard(initial workflow.State, trailed int) error {
	if r.State != initial {
		return dErrors.New(dErrors.CodeInvalidTransition, "only requests in their initial state can be discarded")
	}
	if trailed > 0 {
		return dErrors.New(dErrors.CodeInvalidTransition, "requests with recorded transitions cannot be discarded")
	}
	return nil
}

// programWide roles read every request regardless of institution.
var programWide = []domain.Role{
	domain.RoleSystem,
	domain.RoleCentralMealManager,
	domain.RoleCentralDietManager,
	domain.RoleCentralProductManager,
	domain.RoleCentralNutritionist,
	domain.RoleMeasurementAdmin,
	domain.RoleLogisticsCoordinator,
	domain.RoleSupplyManager,
	domain.RoleCronogramManager,
	domain.RoleQualityManager,
	domain.RoleInspector,
}

// VisibleTo reports whether actor may read the request: program-wide
// roles, the filing institution, the counterpart, the covered schools and
// every institution of the captured chain.
func (r *Request) VisibleTo(actor domain.Actor) bool {
	if actor.HasRole(programWide...) {
		return true
	}
	inst := actor.InstitutionID
	if inst.IsNil() {
		return false
	}
	if inst == r.OriginID || inst == r.CounterpartID || slices.Contains(r.Schools, inst) {
		return true
	}
	if r.Snap == nil {
		return false
	}
	return inst == r.Snap.Origin || inst == r.Snap.School || inst == r.Snap.District ||
		inst == r.Snap.Contractor || slices.Contains(r.Snap.Schools, inst)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (r *Request) Clone() *Request {
	c := *r
	c.Schools = slices.Clone(r.Schools)
	if r.Snap != nil {
		snap := *r.Snap
		snap.Schools = slices.Clone(r.Snap.Schools)
		c.Snap = &snap
	}
	return &c
}
