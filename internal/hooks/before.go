package hooks

import (
	"context"

	"merenda/internal/calendar"
	"merenda/internal/directory"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	"merenda/pkg/requestcontext"
)

// ClassifyPriority stamps the request's priority from its event date.
func ClassifyPriority(cal *calendar.Calendar) workflow.BeforeHook {
	return func(ctx context.Context, tc *workflow.TransitionContext) error {
		p, ok := tc.Instance.(Prioritized)
		if !ok {
			return nil
		}
		dated, ok := tc.Instance.(Dated)
		if !ok || dated.EventDate().IsZero() {
			return nil
		}
		p.SetPriority(cal.Classify(ctx, dated.EventDate()))
		return nil
	}
}

// ChainResolver resolves the live institutional chain above an origin.
type ChainResolver interface {
	Chain(ctx context.Context, origin domain.InstitutionID) (*directory.Chain, error)
}

// SnapshotInstitution copies the live chain onto the instance on its first
// departure from the initial state. Later transitions and later edits of
// the directory never touch it.
func SnapshotInstitution(dir ChainResolver) workflow.BeforeHook {
	return func(ctx context.Context, tc *workflow.TransitionContext) error {
		if tc.From != tc.Initial || tc.To == tc.Initial {
			return nil
		}
		s, ok := tc.Instance.(Snapshotted)
		if !ok || s.Snapshot() != nil {
			return nil
		}
		o, ok := tc.Instance.(Originated)
		if !ok {
			return nil
		}
		chain, err := dir.Chain(ctx, o.Origin())
		if err != nil {
			return err
		}
		return s.CaptureSnapshot(directory.Snapshot{
			Chain:      *chain,
			Schools:    append([]domain.InstitutionID(nil), s.CoveredSchools()...),
			CapturedAt: requestcontext.Now(ctx),
		})
	}
}
