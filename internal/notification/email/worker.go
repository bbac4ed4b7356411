package email

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"merenda/pkg/platform/sentinel"
)

type Metrics interface {
	IncrementEmailsSent()
	IncrementEmailsFailed()
}

// Worker drains a Source with a fixed pool of senders.
type Worker struct {
	source      Source
	mailer      Mailer
	concurrency int
	logger      *slog.Logger
	metrics     Metrics
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func NewWorker(source Source, mailer Mailer, opts ...Option) *Worker {
	w := &Worker{source: source, mailer: mailer, concurrency: 2, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled or the source fails permanently.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for range w.concurrency {
		g.Go(func() error { return w.loop(ctx) })
	}
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context) error {
	for {
		if err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			w.logger.ErrorContext(ctx, "email source failed", "error", err)
			return err
		}
	}
}

// ProcessOne dequeues and sends a single email. Send failures are logged
// and swallowed; only source failures are returned.
func (w *Worker) ProcessOne(ctx context.Context) error {
	email, err := w.source.Dequeue(ctx)
	if err != nil {
		return err
	}
	if err := w.mailer.Send(ctx, email); err != nil {
		w.logger.ErrorContext(ctx, "email delivery failed",
			"subject", email.Subject,
			"recipients", len(email.To),
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.IncrementEmailsFailed()
		}
		return nil
	}
	if w.metrics != nil {
		w.metrics.IncrementEmailsSent()
	}
	return nil
}
