package hooks

import (
	"context"
	"slices"

	"merenda/internal/calendar"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

// LateFiledReason is returned when central tries to authorize a late-filed
// request without questioning the contractor.
const LateFiledReason = "central cannot authorize a late-filed request directly; question the contractor first"

// RequireRole denies actors holding none of roles.
func RequireRole(roles ...domain.Role) workflow.Guard {
	return func(_ context.Context, tc *workflow.TransitionContext) workflow.Decision {
		if tc.Actor.HasRole(roles...) {
			return workflow.Allow()
		}
		return workflow.Deny(&workflow.UnauthorizedError{Role: tc.Actor.Role, Event: tc.Event})
	}
}

// Level picks one institution of a request's scope.
type Level int

const (
	LevelOrigin Level = iota
	LevelSchool
	LevelDistrict
	LevelContractor
	LevelCounterpart
)

// RequireInstitution denies actors who do not belong to the request's
// institution at level. The snapshot is used when present so a later
// reassignment of the school does not move the request.
func RequireInstitution(level Level) workflow.Guard {
	return func(_ context.Context, tc *workflow.TransitionContext) workflow.Decision {
		if tc.Actor.IsSystem() {
			return workflow.Allow()
		}
		want := institutionAt(tc.Instance, level)
		if want.IsNil() || want == tc.Actor.InstitutionID {
			return workflow.Allow()
		}
		if level == LevelSchool {
			if s, ok := tc.Instance.(Snapshotted); ok && s.Snapshot() != nil &&
				slices.Contains(s.Snapshot().Schools, tc.Actor.InstitutionID) {
				return workflow.Allow()
			}
		}
		return workflow.Deny(&workflow.UnauthorizedError{Role: tc.Actor.Role, Event: tc.Event})
	}
}

// RequireOwnInstitution denies actors from outside the filing institution.
func RequireOwnInstitution() workflow.Guard {
	return RequireInstitution(LevelOrigin)
}

func institutionAt(inst workflow.Instance, level Level) domain.InstitutionID {
	if s, ok := inst.(Snapshotted); ok && s.Snapshot() != nil {
		snap := s.Snapshot()
		switch level {
		case LevelOrigin:
			return snap.Origin
		case LevelSchool:
			return snap.School
		case LevelDistrict:
			return snap.District
		case LevelContractor:
			return snap.Contractor
		}
	}
	switch level {
	case LevelOrigin:
		if o, ok := inst.(Originated); ok {
			return o.Origin()
		}
	case LevelCounterpart:
		if a, ok := inst.(Addressed); ok {
			return a.Counterpart()
		}
	}
	return domain.InstitutionID{}
}

// DeadlineGuard rejects action when the instance's event date falls inside
// lead business days from today, extended by the origin's suspension days.
// Instances whose motive is in exempt skip the rule.
func DeadlineGuard(cal *calendar.Calendar, action string, lead int, exempt ...string) workflow.Guard {
	return func(ctx context.Context, tc *workflow.TransitionContext) workflow.Decision {
		if exemptMotive(tc.Instance, exempt) {
			return workflow.Allow()
		}
		dated, ok := tc.Instance.(Dated)
		if !ok || dated.EventDate().IsZero() {
			return workflow.Deny(dErrors.New(dErrors.CodeInvariantViolation,
				"request has no event date for the lead-time rule"))
		}
		check, err := cal.CheckLeadTime(ctx, institutionAt(tc.Instance, LevelOrigin), dated.EventDate(), lead)
		if err != nil {
			return workflow.Deny(dErrors.Wrap(err, dErrors.CodeInternal, "compute lead time"))
		}
		if check.Allowed {
			return workflow.Allow()
		}
		return workflow.Deny(&workflow.DeadlineViolationError{
			Action:    action,
			LeadDays:  lead,
			EventDate: dated.EventDate(),
			Earliest:  check.Boundary,
		})
	}
}

func exemptMotive(inst workflow.Instance, exempt []string) bool {
	m, ok := inst.(Motivated)
	return ok && m.Motive() != "" && slices.Contains(exempt, m.Motive())
}

// LateFiledAuthorization denies direct authorization of a late-filed
// request unless the contractor already answered a questioning (the
// instance is in answered) or its motive is exempt.
func LateFiledAuthorization(answered workflow.State, exempt ...string) workflow.Guard {
	return func(_ context.Context, tc *workflow.TransitionContext) workflow.Decision {
		p, ok := tc.Instance.(Prioritized)
		if !ok || !p.Priority().LateFiled() {
			return workflow.Allow()
		}
		if tc.From == answered || exemptMotive(tc.Instance, exempt) {
			return workflow.Allow()
		}
		return workflow.Deny(&workflow.InvalidTransitionError{
			Workflow: tc.Workflow,
			State:    tc.From,
			Event:    tc.Event,
			Reason:   LateFiledReason,
		})
	}
}

// ParentLookup returns the current state of a parent request.
type ParentLookup func(ctx context.Context, id domain.RequestID) (workflow.State, error)

// ParentInState allows the event only while the instance's parent request
// is in one of states.
func ParentInState(lookup ParentLookup, states ...workflow.State) workflow.Guard {
	return func(ctx context.Context, tc *workflow.TransitionContext) workflow.Decision {
		child, ok := tc.Instance.(Child)
		if !ok || child.ParentID().IsNil() {
			return workflow.Deny(dErrors.New(dErrors.CodeInvariantViolation, "request has no parent"))
		}
		state, err := lookup(ctx, child.ParentID())
		if err != nil {
			return workflow.Deny(err)
		}
		if slices.Contains(states, state) {
			return workflow.Allow()
		}
		return workflow.Deny(&workflow.InvalidTransitionError{
			Workflow: tc.Workflow,
			State:    tc.From,
			Event:    tc.Event,
			Reason:   "parent request is in state " + string(state),
		})
	}
}

// EndDateReached allows the event only once the instance's end date lies
// before today in the calendar's zone.
func EndDateReached(cal *calendar.Calendar) workflow.Guard {
	return func(ctx context.Context, tc *workflow.TransitionContext) workflow.Decision {
		e, ok := tc.Instance.(Ended)
		if ok && !e.EndDate().IsZero() && cal.Day(e.EndDate()).Before(cal.Today(ctx)) {
			return workflow.Allow()
		}
		return workflow.Deny(&workflow.InvalidTransitionError{
			Workflow: tc.Workflow,
			State:    tc.From,
			Event:    tc.Event,
			Reason:   "end date has not been reached",
		})
	}
}
