package hooks

import (
	"context"

	"merenda/internal/audit"
	"merenda/internal/workflow"
)

// AuditLog appends one entry per committed transition and exposes it on
// the transition context for later hooks. Its error aborts the unit.
func AuditLog(trail *audit.Trail) workflow.AfterHook {
	return func(ctx context.Context, tc *workflow.TransitionContext) error {
		entry, err := trail.Append(ctx, audit.Entry{
			EntityID:      tc.Instance.EntityID(),
			EntityKind:    tc.Instance.EntityKind(),
			Workflow:      tc.Workflow,
			EventCode:     string(tc.Event),
			FromState:     string(tc.From),
			ToState:       string(tc.To),
			Actor:         audit.ActorFrom(tc.Actor),
			Justification: tc.Payload.Justification,
			Attachments:   tc.Payload.Attachments,
			Response:      tc.Payload.Response,
		})
		if err != nil {
			return err
		}
		tc.Entry = entry
		return nil
	}
}
