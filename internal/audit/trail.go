package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/requestcontext"
)

// Store persists entries. Append joins the caller's transaction when one
// is present in ctx.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityID domain.RequestID) ([]Entry, error)
}

// Trail is the append-only transition log.
type Trail struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Trail)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) {
		t.logger = logger
	}
}

func NewTrail(store Store, opts ...Option) *Trail {
	t := &Trail{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append stamps and persists entry, returning the stored copy.
func (t *Trail) Append(ctx context.Context, entry Entry) (*Entry, error) {
	if entry.EntityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit entry requires an entity")
	}
	if entry.EventCode == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit entry requires an event code")
	}
	entry.ID = uuid.New()
	entry.CreatedAt = requestcontext.Now(ctx)
	if len(entry.Attachments) > 0 {
		entry.Attachments = append([]Attachment(nil), entry.Attachments...)
	}

	if err := t.store.Append(ctx, &entry); err != nil {
		t.logger.ErrorContext(ctx, "failed to append audit entry",
			"request_id", requestcontext.RequestID(ctx),
			"entity_id", entry.EntityID.String(),
			"event", entry.EventCode,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "append audit entry")
	}
	return &entry, nil
}

// List returns the entity's entries oldest first.
func (t *Trail) List(ctx context.Context, entityID domain.RequestID) ([]Entry, error) {
	entries, err := t.store.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list audit entries")
	}
	return entries, nil
}
