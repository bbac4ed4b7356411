package workflow

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"merenda/internal/audit"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

// Instance is the entity a Machine drives. Domain data stays on the entity;
// the machine only reads and writes its state.
type Instance interface {
	EntityID() domain.RequestID
	EntityKind() string
	WorkflowState() State
	SetWorkflowState(State)
}

// Payload is the event-specific input carried by a transition.
type Payload struct {
	Justification string
	Attachments   []audit.Attachment
	Response      *bool
}

// TransitionContext is shared by every guard and hook of one transition.
// After hooks may read Entry once the audit hook has set it.
type TransitionContext struct {
	Instance Instance
	Workflow string
	Initial  State
	Event    Event
	From     State
	To       State
	Actor    domain.Actor
	Payload  Payload
	Entry    *audit.Entry
	Replay   bool
}

type (
	// Guard decides whether a transition may proceed. It must not mutate.
	Guard func(ctx context.Context, tc *TransitionContext) Decision
	// BeforeHook runs after all guards pass and before the state changes.
	// Returning an error aborts the transition.
	BeforeHook func(ctx context.Context, tc *TransitionContext) error
	// AfterHook runs once the state has changed. Only persistence failures
	// may be returned; they abort the enclosing persistence unit.
	AfterHook func(ctx context.Context, tc *TransitionContext) error
)

// Result is the outcome of a committed transition.
type Result struct {
	Event    Event
	From     State
	To       State
	Entry    *audit.Entry
	Replayed bool
}

type Metrics interface {
	ObserveTransition(workflow, event, outcome string, start time.Time)
}

// Machine binds a Definition to its guards and hooks. Attachments for one
// event run in registration order; attaching twice to the same event
// composes, nothing is overridden.
type Machine struct {
	def       *Definition
	guards    map[Event][]Guard
	before    map[Event][]BeforeHook
	afterEach []AfterHook
	after     map[Event][]AfterHook
	logger    *slog.Logger
	metrics   Metrics
	tracer    trace.Tracer
}

type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Machine) { m.metrics = metrics }
}

func NewMachine(def *Definition, opts ...Option) *Machine {
	m := &Machine{
		def:    def,
		guards: make(map[Event][]Guard),
		before: make(map[Event][]BeforeHook),
		after:  make(map[Event][]AfterHook),
		logger: slog.Default(),
		tracer: otel.Tracer("merenda/workflow"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Definition() *Definition { return m.def }

// Guard attaches g to each of events.
func (m *Machine) Guard(g Guard, events ...Event) *Machine {
	for _, ev := range events {
		m.guards[ev] = append(m.guards[ev], g)
	}
	return m
}

// Before attaches h to each of events.
func (m *Machine) Before(h BeforeHook, events ...Event) *Machine {
	for _, ev := range events {
		m.before[ev] = append(m.before[ev], h)
	}
	return m
}

// After attaches h to each of events. Per-event after hooks run after the
// AfterEach hooks, so they can read the audit entry.
func (m *Machine) After(h AfterHook, events ...Event) *Machine {
	for _, ev := range events {
		m.after[ev] = append(m.after[ev], h)
	}
	return m
}

// AfterEach attaches h to every event that is not silent.
func (m *Machine) AfterEach(h AfterHook) *Machine {
	m.afterEach = append(m.afterEach, h)
	return m
}

// BeforeEach attaches h to every declared event.
func (m *Machine) BeforeEach(h BeforeHook) *Machine {
	for _, ev := range m.def.Events() {
		m.before[ev] = append(m.before[ev], h)
	}
	return m
}

// CanFire reports whether ev is declared from inst's current state. Guards
// are not evaluated.
func (m *Machine) CanFire(inst Instance, ev Event) bool {
	_, ok := m.def.Resolve(inst.WorkflowState(), ev)
	return ok
}

// Fire validates and executes ev on inst.
//
// Order: resolve the edge, run guards, run before hooks, move the state,
// run after hooks. Nothing is mutated unless every guard and before hook
// passes. If an after hook fails the previous state is restored and the
// error is returned so the caller rolls back its persistence unit.
func (m *Machine) Fire(ctx context.Context, inst Instance, ev Event, actor domain.Actor, payload Payload) (*Result, error) {
	return m.run(ctx, inst, ev, actor, payload, false)
}

// ReplaySideEffects re-runs the audit and notification hooks of a declared
// self-loop without changing state. Events that would move the instance
// are rejected with InvalidTransitionError.
func (m *Machine) ReplaySideEffects(ctx context.Context, inst Instance, ev Event, actor domain.Actor, payload Payload) (*Result, error) {
	return m.run(ctx, inst, ev, actor, payload, true)
}

func (m *Machine) run(ctx context.Context, inst Instance, ev Event, actor domain.Actor, payload Payload, replay bool) (_ *Result, err error) {
	start := time.Now()
	from := inst.WorkflowState()
	op := "workflow.fire"
	if replay {
		op = "workflow.replay"
	}
	ctx, span := m.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("workflow", m.def.Name()),
		attribute.String("event", string(ev)),
		attribute.String("from_state", string(from)),
		attribute.String("entity_id", inst.EntityID().String()),
	))
	defer func() {
		outcome := "committed"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if m.metrics != nil {
			m.metrics.ObserveTransition(m.def.Name(), string(ev), outcome, start)
		}
		span.End()
	}()

	tr, ok := m.def.Resolve(from, ev)
	if !ok {
		return nil, m.invalid(from, ev)
	}
	if replay && !tr.SelfLoop(from) {
		return nil, &InvalidTransitionError{
			Workflow: m.def.Name(),
			State:    from,
			Event:    ev,
			Reason:   "event " + string(ev) + " changes state and cannot be replayed",
		}
	}

	tc := &TransitionContext{
		Instance: inst,
		Workflow: m.def.Name(),
		Initial:  m.def.Initial(),
		Event:    ev,
		From:     from,
		To:       tr.Target,
		Actor:    actor,
		Payload:  payload,
		Replay:   replay,
	}

	for _, g := range m.guards[ev] {
		if d := g(ctx, tc); !d.Allowed() {
			m.logger.InfoContext(ctx, "transition denied",
				"workflow", m.def.Name(),
				"event", string(ev),
				"state", string(from),
				"entity_id", inst.EntityID().String(),
				"reason", d.Reason().Error(),
			)
			return nil, d.Reason()
		}
	}

	if !replay {
		for _, h := range m.before[ev] {
			if err := h(ctx, tc); err != nil {
				return nil, err
			}
		}
		inst.SetWorkflowState(tr.Target)
	}

	hooks := m.after[ev]
	if !m.def.Silent(ev) {
		hooks = append(append([]AfterHook(nil), m.afterEach...), hooks...)
	}
	for _, h := range hooks {
		if err := h(ctx, tc); err != nil {
			inst.SetWorkflowState(from)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record transition")
		}
	}

	return &Result{
		Event:    ev,
		From:     from,
		To:       tr.Target,
		Entry:    tc.Entry,
		Replayed: replay,
	}, nil
}

func (m *Machine) invalid(from State, ev Event) error {
	err := &InvalidTransitionError{Workflow: m.def.Name(), State: from, Event: ev}
	if m.def.Kind(from) == KindCancelled && m.def.cancels(ev) {
		err.AlreadyCancelled = true
	}
	return err
}
