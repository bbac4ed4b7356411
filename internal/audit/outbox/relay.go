// Package outbox relays audit entries written to the transactional outbox
// table onto the audit event stream.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"merenda/pkg/requestcontext"
)

// Record is one unpublished outbox row.
type Record struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type Store interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, records []Record) error
}

type Metrics interface {
	ObservePublished(n int)
	ObservePublishFailure()
	ObserveLag(oldest time.Duration)
}

// Relay polls the outbox and publishes rows in creation order. Delivery is
// at-least-once: rows are marked only after the publisher acknowledges them.
type Relay struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   Metrics
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewRelay(store Store, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox flush failed", "error", err)
			}
		}
	}
}

// Flush publishes one batch and returns how many rows were marked.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer("merenda/audit/outbox").Start(ctx, "outbox.flush")
	defer span.End()

	records, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	span.SetAttributes(attribute.Int("outbox.batch", len(records)))

	now := requestcontext.Now(ctx)
	if r.metrics != nil {
		r.metrics.ObserveLag(now.Sub(records[0].CreatedAt))
	}

	if err := r.publisher.Publish(ctx, records); err != nil {
		if r.metrics != nil {
			r.metrics.ObservePublishFailure()
		}
		return 0, err
	}

	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	if err := r.store.MarkPublished(ctx, ids, now); err != nil {
		return 0, err
	}
	if r.metrics != nil {
		r.metrics.ObservePublished(len(records))
	}
	r.logger.DebugContext(ctx, "outbox batch published", "count", len(records))
	return len(records), nil
}
