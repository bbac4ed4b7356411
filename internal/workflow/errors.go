package workflow

import (
	"fmt"
	"time"

	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

// InvalidTransitionError reports an event that cannot fire from the
// instance's current state. It is never retried.
type InvalidTransitionError struct {
	Workflow         string
	State            State
	Event            Event
	AlreadyCancelled bool
	// Reason overrides the default message for business rules that reject
	// an otherwise declared edge.
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	switch {
	case e.AlreadyCancelled:
		return "request is already cancelled"
	case e.Reason != "":
		return e.Reason
	default:
		return fmt.Sprintf("event %s is not allowed from state %s in workflow %s", e.Event, e.State, e.Workflow)
	}
}

func (e *InvalidTransitionError) ErrorCode() dErrors.Code { return dErrors.CodeInvalidTransition }

// UnauthorizedError reports an actor whose role may not fire the event.
type UnauthorizedError struct {
	Role  domain.Role
	Event Event
}

func (e *UnauthorizedError) Error() string {
	return "you do not have permission to perform this action"
}

func (e *UnauthorizedError) ErrorCode() dErrors.Code { return dErrors.CodeUnauthorized }

// DeadlineViolationError reports a change requested too close to the
// request's event date.
type DeadlineViolationError struct {
	Action    string
	LeadDays  int
	EventDate time.Time
	Earliest  time.Time
}

func (e *DeadlineViolationError) Error() string {
	action := e.Action
	if action == "" {
		action = "this change"
	}
	return fmt.Sprintf("%s requires at least %d business day(s) of lead time", action, e.LeadDays)
}

func (e *DeadlineViolationError) ErrorCode() dErrors.Code { return dErrors.CodeDeadlineViolation }

// MissingHookError reports a generic operation invoked on a request kind
// that does not map it. It signals a caller defect.
type MissingHookError struct {
	Kind      string
	Operation string
}

func (e *MissingHookError) Error() string {
	return fmt.Sprintf("%s does not implement %s", e.Kind, e.Operation)
}

func (e *MissingHookError) ErrorCode() dErrors.Code { return dErrors.CodeMissingWorkflowHook }
