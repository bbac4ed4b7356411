// Package notification resolves recipients and fans out in-app
// notifications and outbound email for workflow transitions.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	strs "merenda/pkg/platform/strings"
	"merenda/pkg/requestcontext"
)

type Store interface {
	// CreateIfAbsent inserts n unless an unresolved notification with the
	// same title already exists for the recipient. It reports whether n
	// was inserted.
	CreateIfAbsent(ctx context.Context, n *Notification) (bool, error)
	// ResolvePending resolves unresolved pendencies with title for entity.
	ResolvePending(ctx context.Context, title string, entity domain.RequestID) (int, error)
	ListByRecipient(ctx context.Context, user domain.UserID, unresolvedOnly bool) ([]Notification, error)
}

// EmailQueue accepts outbound email without blocking on delivery.
type EmailQueue interface {
	Enqueue(ctx context.Context, email OutboundEmail) error
}

type Renderer interface {
	Render(name string, data any) (string, error)
}

type Metrics interface {
	IncrementNotificationsCreated(topic string, n int)
	IncrementEmailsEnqueued(topic string)
	IncrementDispatchFailures(topic string)
	IncrementPendenciesResolved(n int)
}

// Config is the dispatcher's construction-time configuration.
type Config struct {
	// BaseURL prefixes relative deep links.
	BaseURL       string
	SubjectPrefix string
}

type Dispatcher struct {
	store     Store
	queue     EmailQueue
	renderer  Renderer
	directory Directory
	cfg       Config
	logger    *slog.Logger
	metrics   Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(cfg Config, store Store, queue EmailQueue, renderer Renderer, dir Directory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		queue:     queue,
		renderer:  renderer,
		directory: dir,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RecipientsFor resolves every audience against scope and merges the
// results, dropping duplicate users and duplicate email-only addresses.
func (d *Dispatcher) RecipientsFor(ctx context.Context, scope Scope, audiences ...Audience) ([]Recipient, error) {
	var (
		out    []Recipient
		users  = make(map[domain.UserID]struct{})
		emails = make(map[string]struct{})
	)
	for _, aud := range audiences {
		recipients, err := aud(ctx, d.directory, scope)
		if err != nil {
			return nil, err
		}
		for _, r := range recipients {
			if !r.UserID.IsNil() {
				if _, dup := users[r.UserID]; dup {
					continue
				}
				users[r.UserID] = struct{}{}
			} else {
				key := strings.ToLower(strings.TrimSpace(r.Email))
				if _, dup := emails[key]; dup || key == "" {
					continue
				}
				emails[key] = struct{}{}
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// Notify persists one notification per recipient that has a user account,
// skipping recipients who already hold an unresolved notification with the
// same title, and independently enqueues one email to the address list.
// It returns the number of notifications created. Failures for one
// recipient do not stop the others; all are joined into the returned error.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) (int, error) {
	if err := msg.Validate(); err != nil {
		return 0, err
	}
	link := d.absoluteLink(msg.Link)
	now := requestcontext.Now(ctx)

	var (
		errs    []error
		created int
	)
	for _, r := range msg.Recipients {
		if r.UserID.IsNil() {
			continue
		}
		n := &Notification{
			ID:          domain.NewNotificationID(),
			Category:    msg.Category,
			Topic:       msg.Topic,
			Title:       msg.Title,
			Description: msg.Description,
			RecipientID: r.UserID,
			Link:        link,
			EntityID:    msg.EntityID,
			CreatedAt:   now,
		}
		inserted, err := d.store.CreateIfAbsent(ctx, n)
		if err != nil {
			errs = append(errs, dErrors.Wrap(err, dErrors.CodeInternal, "create notification"))
			continue
		}
		if inserted {
			created++
		}
	}
	if d.metrics != nil && created > 0 {
		d.metrics.IncrementNotificationsCreated(string(msg.Topic), created)
	}

	if err := d.enqueueEmail(ctx, msg, link); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil && d.metrics != nil {
		d.metrics.IncrementDispatchFailures(string(msg.Topic))
	}
	return created, err
}

func (d *Dispatcher) enqueueEmail(ctx context.Context, msg Message, link string) error {
	addresses := msg.Emails
	if len(addresses) == 0 {
		for _, r := range msg.Recipients {
			addresses = append(addresses, r.Email)
		}
	}
	addresses = strs.DedupeAndTrimLower(addresses)
	if len(addresses) == 0 || d.queue == nil {
		return nil
	}

	template := msg.Template
	if template == "" {
		template = DefaultTemplate
	}
	body, err := d.renderer.Render(template, emailData{
		Title:       msg.Title,
		Description: msg.Description,
		Link:        link,
		Data:        msg.Data,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "render email")
	}

	subject := msg.Title
	if d.cfg.SubjectPrefix != "" {
		subject = d.cfg.SubjectPrefix + " " + subject
	}
	if err := d.queue.Enqueue(ctx, OutboundEmail{Subject: subject, To: addresses, HTMLBody: body}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "enqueue email")
	}
	if d.metrics != nil {
		d.metrics.IncrementEmailsEnqueued(string(msg.Topic))
	}
	return nil
}

// ResolvePending marks the unresolved pendencies titled title for the
// scope entity as resolved and read. A scope is required so a resolution
// never leaks across requests.
func (d *Dispatcher) ResolvePending(ctx context.Context, title string, scope domain.RequestID) (int, error) {
	if title == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "pendency title is required")
	}
	if scope.IsNil() {
		return 0, dErrors.New(dErrors.CodeValidation, "pendency scope is required")
	}
	n, err := d.store.ResolvePending(ctx, title, scope)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "resolve pendencies")
	}
	if d.metrics != nil && n > 0 {
		d.metrics.IncrementPendenciesResolved(n)
	}
	return n, nil
}

// ListFor returns a user's notifications, newest first.
func (d *Dispatcher) ListFor(ctx context.Context, user domain.UserID, unresolvedOnly bool) ([]Notification, error) {
	list, err := d.store.ListByRecipient(ctx, user, unresolvedOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications")
	}
	return list, nil
}

func (d *Dispatcher) absoluteLink(link string) string {
	if link == "" || d.cfg.BaseURL == "" || strings.Contains(link, "://") {
		return link
	}
	return strings.TrimRight(d.cfg.BaseURL, "/") + "/" + strings.TrimLeft(link, "/")
}
