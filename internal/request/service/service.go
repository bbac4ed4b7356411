package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"merenda/internal/audit"
	"merenda/internal/hooks"
	reqmetrics "merenda/internal/request/metrics"
	"merenda/internal/request/models"
	"merenda/internal/workflow"
	"merenda/internal/workflow/catalog"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/platform/sentinel"
	"merenda/pkg/platform/tx"
	"merenda/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error)
	State(ctx context.Context, id domain.RequestID) (workflow.State, error)
	ListByOrigin(ctx context.Context, origin domain.InstitutionID) ([]*models.Request, error)
	Execute(ctx context.Context, id domain.RequestID, fn func(r *models.Request) error) (*models.Request, error)
	DeleteIf(ctx context.Context, id domain.RequestID, check func(r *models.Request) error) error
}

// Catalog resolves the machine and generic operations of a request kind.
type Catalog interface {
	Machine(kind catalog.Kind) (*workflow.Machine, error)
	Operation(kind catalog.Kind, op catalog.Operation) (workflow.Event, error)
}

type TrailReader interface {
	List(ctx context.Context, entityID domain.RequestID) ([]audit.Entry, error)
}

// CreateInput carries the caller-supplied fields of a new request.
type CreateInput struct {
	Kind        catalog.Kind
	Counterpart domain.InstitutionID
	Parent      domain.RequestID
	EventDate   time.Time
	EndDate     time.Time
	Motive      string
	Schools     []domain.InstitutionID
}

// Service drives requests through their workflows. Each transition is one
// persistence unit: the row lock, the state change, the audit entry and the
// pendency bookkeeping commit together, and notifications go out only after
// the commit.
type Service struct {
	requests Store
	catalog  Catalog
	trail    TrailReader
	tx       tx.Runner
	logger   *slog.Logger
	metrics  *reqmetrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *reqmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner sets the persistence unit runner. Defaults to
// tx.LocalRunner, which suits the in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func New(requests Store, cat Catalog, trail TrailReader, opts ...Option) *Service {
	s := &Service{
		requests: requests,
		catalog:  cat,
		trail:    trail,
		tx:       tx.LocalRunner{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("merenda/request"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParentLookup adapts a store to the parent-state guard of sub-workflows.
func ParentLookup(requests interface {
	State(ctx context.Context, id domain.RequestID) (workflow.State, error)
}) hooks.ParentLookup {
	return func(ctx context.Context, id domain.RequestID) (workflow.State, error) {
		state, err := requests.State(ctx, id)
		if err != nil {
			return "", wrapRequestErr(err, "parent request")
		}
		return state, nil
	}
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "request.create", trace.WithAttributes(
		attribute.String("kind", string(in.Kind)),
	))
	defer span.End()

	if actor.IsSystem() {
		return nil, dErrors.New(dErrors.CodeForbidden, "requests must be filed by a user")
	}
	m, err := s.catalog.Machine(in.Kind)
	if err != nil {
		return nil, err
	}
	def := m.Definition()
	if err := s.validateLinks(ctx, def.Name(), in); err != nil {
		return nil, err
	}

	r, err := models.NewRequest(domain.NewRequestID(), models.Draft{
		Kind:        string(in.Kind),
		Workflow:    def.Name(),
		Initial:     def.Initial(),
		Counterpart: in.Counterpart,
		Parent:      in.Parent,
		EventDate:   in.EventDate,
		EndDate:     in.EndDate,
		Motive:      in.Motive,
		Schools:     in.Schools,
	}, actor, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}

	if err := s.requests.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "request already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}

	s.logger.InfoContext(ctx, "request created",
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", r.ID.String(),
		"kind", r.Kind,
		"workflow", r.Workflow,
		"actor_id", actor.UserID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated(r.Kind)
	}
	return r, nil
}

// validateLinks checks the fields some families depend on: district requests
// list their schools; delivery changes and guides hang off an existing
// delivery request; delivery requests name their distributor.
func (s *Service) validateLinks(ctx context.Context, workflowName string, in CreateInput) error {
	switch workflowName {
	case catalog.DistrictRequest:
		if len(in.Schools) == 0 {
			return dErrors.New(dErrors.CodeValidation, "district request must list the schools it covers")
		}
	case catalog.DeliveryChange, catalog.DeliveryGuide:
		if in.Parent.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "parent delivery request is required")
		}
		parent, err := s.requests.FindByID(ctx, in.Parent)
		if err != nil {
			return wrapRequestErr(err, "parent request")
		}
		if parent.Workflow != catalog.DeliveryRequest {
			return dErrors.New(dErrors.CodeValidation, "parent must be a delivery request")
		}
	case catalog.DeliveryRequest:
		if in.Counterpart.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "distributor is required")
		}
	}
	return nil
}

// Get loads a request the actor may read. Requests outside the actor's
// reach are reported as not found.
func (s *Service) Get(ctx context.Context, id domain.RequestID, actor domain.Actor) (*models.Request, error) {
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRequestErr(err, "request")
	}
	if !r.VisibleTo(actor) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	return r, nil
}

// List returns the requests filed by the actor's institution, oldest first.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]*models.Request, error) {
	rs, err := s.requests.ListByOrigin(ctx, actor.InstitutionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return rs, nil
}

// Fire applies ev to the request.
func (s *Service) Fire(ctx context.Context, id domain.RequestID, ev workflow.Event, actor domain.Actor, payload workflow.Payload) (*models.Request, *workflow.Result, error) {
	return s.transition(ctx, id, fixedEvent(ev), actor, payload, false)
}

// Replay re-runs the side effects of a declared self-loop, such as resending
// a cancellation notice, without moving the request.
func (s *Service) Replay(ctx context.Context, id domain.RequestID, ev workflow.Event, actor domain.Actor, payload workflow.Payload) (*models.Request, *workflow.Result, error) {
	return s.transition(ctx, id, fixedEvent(ev), actor, payload, true)
}

// Submit starts the request's flow with its kind's submit event.
func (s *Service) Submit(ctx context.Context, id domain.RequestID, actor domain.Actor, payload workflow.Payload) (*models.Request, *workflow.Result, error) {
	return s.transition(ctx, id, s.operation(catalog.OpSubmit), actor, payload, false)
}

// Cancel fires the kind's cancellation event with the given justification.
func (s *Service) Cancel(ctx context.Context, id domain.RequestID, actor domain.Actor, justification string) (*models.Request, *workflow.Result, error) {
	return s.transition(ctx, id, s.operation(catalog.OpCancel), actor, workflow.Payload{Justification: justification}, false)
}

// Acknowledge fires the kind's contractor acknowledgment event.
func (s *Service) Acknowledge(ctx context.Context, id domain.RequestID, actor domain.Actor) (*models.Request, *workflow.Result, error) {
	return s.transition(ctx, id, s.operation(catalog.OpAcknowledge), actor, workflow.Payload{}, false)
}

type eventResolver func(r *models.Request) (workflow.Event, error)

func fixedEvent(ev workflow.Event) eventResolver {
	return func(*models.Request) (workflow.Event, error) { return ev, nil }
}

func (s *Service) operation(op catalog.Operation) eventResolver {
	return func(r *models.Request) (workflow.Event, error) {
		return s.catalog.Operation(catalog.Kind(r.Kind), op)
	}
}

func (s *Service) transition(ctx context.Context, id domain.RequestID, resolve eventResolver, actor domain.Actor, payload workflow.Payload, replay bool) (*models.Request, *workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "request.transition", trace.WithAttributes(
		attribute.String("entity_id", id.String()),
		attribute.Bool("replay", replay),
	))
	defer span.End()

	var (
		updated *models.Request
		result  *workflow.Result
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.requests.Execute(txCtx, id, func(r *models.Request) error {
			m, err := s.catalog.Machine(catalog.Kind(r.Kind))
			if err != nil {
				return err
			}
			ev, err := resolve(r)
			if err != nil {
				return err
			}
			span.SetAttributes(attribute.String("event", string(ev)))
			if replay {
				result, err = m.ReplaySideEffects(txCtx, r, ev, actor, payload)
			} else {
				result, err = m.Fire(txCtx, r, ev, actor, payload)
			}
			if err != nil {
				return err
			}
			r.UpdatedAt = requestcontext.Now(txCtx)
			return nil
		})
		if err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, nil, wrapRequestErr(err, "request")
	}
	return updated, result, nil
}

// Discard deletes a request that never left its initial state and has no
// trail. Only the filing institution may discard it.
func (s *Service) Discard(ctx context.Context, id domain.RequestID, actor domain.Actor) error {
	var kind string
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.requests.DeleteIf(txCtx, id, func(r *models.Request) error {
			if r.OriginID != actor.InstitutionID {
				return &workflow.UnauthorizedError{Role: actor.Role, Event: "discard"}
			}
			m, err := s.catalog.Machine(catalog.Kind(r.Kind))
			if err != nil {
				return err
			}
			entries, err := s.trail.List(txCtx, id)
			if err != nil {
				return err
			}
			kind = r.Kind
			return r.CanDiscard(m.Definition().Initial(), len(entries))
		})
	})
	if err != nil {
		return wrapRequestErr(err, "request")
	}
	s.logger.InfoContext(ctx, "request discarded",
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", id.String(),
		"actor_id", actor.UserID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementRequestsDiscarded(kind)
	}
	return nil
}

// Trail returns the request's audit entries oldest first.
func (s *Service) Trail(ctx context.Context, id domain.RequestID, actor domain.Actor) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.trail.List(ctx, id)
}

// wrapRequestErr translates store sentinels; domain errors pass through.
func wrapRequestErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" was modified concurrently")
	case dErrors.CodeOf(err) != "":
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
	}
}
