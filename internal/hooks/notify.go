package hooks

import (
	"context"
	"log/slog"

	"merenda/internal/notification"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	"merenda/pkg/platform/tx"
	"merenda/pkg/requestcontext"
)

// Notifier is the dispatcher surface the fan-out hooks use.
type Notifier interface {
	RecipientsFor(ctx context.Context, scope notification.Scope, audiences ...notification.Audience) ([]notification.Recipient, error)
	Notify(ctx context.Context, msg notification.Message) (int, error)
	ResolvePending(ctx context.Context, title string, scope domain.RequestID) (int, error)
}

// Notice is one fan-out triggered by an event.
type Notice struct {
	Category    notification.Category
	Topic       notification.Topic
	Title       string
	Description string
	Template    string
	Audiences   []notification.Audience
}

// Title scopes a notice title to one request so (title, recipient) dedupe
// never merges pendencies of different requests.
func Title(base string, id domain.RequestID) string {
	return base + " #" + id.Short()
}

// Link is the deep link of a request, relative to the notifier base URL.
func Link(id domain.RequestID) string {
	return "/requests/" + id.String()
}

// Fanout sends notices after the enclosing persistence unit commits.
// Failures are logged and never reach the transition.
type Fanout struct {
	notifier Notifier
	chains   ChainResolver
	logger   *slog.Logger
}

func NewFanout(n Notifier, chains ChainResolver, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{notifier: n, chains: chains, logger: logger}
}

// NotificationFanout returns the after hook delivering notices.
func (f *Fanout) NotificationFanout(notices ...Notice) workflow.AfterHook {
	return func(ctx context.Context, tc *workflow.TransitionContext) error {
		entity := tc.Instance.EntityID()
		event := tc.Event
		scope := f.scope(ctx, tc.Instance)
		data := map[string]any{
			"Request": entity.Short(),
			"Event":   string(event),
			"State":   string(tc.To),
		}
		if tc.Payload.Justification != "" {
			data["Justification"] = tc.Payload.Justification
		}
		tx.AfterCommit(ctx, func(ctx context.Context) {
			for _, n := range notices {
				f.deliver(ctx, entity, event, scope, n, data)
			}
		})
		return nil
	}
}

func (f *Fanout) deliver(ctx context.Context, entity domain.RequestID, event workflow.Event, scope notification.Scope, n Notice, data map[string]any) {
	recipients, err := f.notifier.RecipientsFor(ctx, scope, n.Audiences...)
	if err != nil {
		f.logFailure(ctx, entity, event, "resolve recipients", err)
		return
	}
	if len(recipients) == 0 {
		return
	}
	_, err = f.notifier.Notify(ctx, notification.Message{
		EntityID:    entity,
		Category:    n.Category,
		Topic:       n.Topic,
		Title:       Title(n.Title, entity),
		Description: n.Description,
		Link:        Link(entity),
		Template:    n.Template,
		Data:        data,
		Recipients:  recipients,
	})
	if err != nil {
		f.logFailure(ctx, entity, event, "notify", err)
	}
}

// ResolvePending resolves the request's pendencies titled base after commit.
func (f *Fanout) ResolvePending(base string) workflow.AfterHook {
	return func(ctx context.Context, tc *workflow.TransitionContext) error {
		entity := tc.Instance.EntityID()
		event := tc.Event
		tx.AfterCommit(ctx, func(ctx context.Context) {
			if _, err := f.notifier.ResolvePending(ctx, Title(base, entity), entity); err != nil {
				f.logFailure(ctx, entity, event, "resolve pendency", err)
			}
		})
		return nil
	}
}

// scope prefers the snapshot; requests without one use the live chain.
func (f *Fanout) scope(ctx context.Context, inst workflow.Instance) notification.Scope {
	var scope notification.Scope
	if a, ok := inst.(Addressed); ok {
		scope.Counterpart = a.Counterpart()
	}
	if s, ok := inst.(Snapshotted); ok && s.Snapshot() != nil {
		snap := s.Snapshot()
		scope.Origin = snap.Origin
		scope.School = snap.School
		scope.District = snap.District
		scope.Contractor = snap.Contractor
		return scope
	}
	o, ok := inst.(Originated)
	if !ok || o.Origin().IsNil() {
		return scope
	}
	scope.Origin = o.Origin()
	chain, err := f.chains.Chain(ctx, o.Origin())
	if err != nil {
		f.logger.WarnContext(ctx, "live chain unavailable for notification scope",
			"entity_id", inst.EntityID().String(),
			"error", err,
		)
		return scope
	}
	scope.School = chain.School
	scope.District = chain.District
	scope.Contractor = chain.Contractor
	return scope
}

func (f *Fanout) logFailure(ctx context.Context, entity domain.RequestID, event workflow.Event, step string, err error) {
	f.logger.ErrorContext(ctx, "notification dispatch failed",
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", entity.String(),
		"event", string(event),
		"step", step,
		"error", err,
	)
}
