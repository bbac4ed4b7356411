// Package workflow is the generic state machine behind every request
// lifecycle. A Definition declares states and transitions once; a Machine
// attaches guards and hooks to a Definition and executes transitions.
package workflow

import (
	"fmt"
	"slices"
	"strings"
)

// State is a symbolic label within one Definition.
type State string

// Event names a transition. Events are namespaced by the definition's
// family ("school.cancel", "guide.school_receives") so codes from unrelated
// workflows never collide in the audit log.
type Event string

// Namespace returns the family prefix of the event code.
func (e Event) Namespace() string {
	ns, _, _ := strings.Cut(string(e), ".")
	return ns
}

// StateKind classifies a state for reporting and cancellation checks.
type StateKind string

const (
	KindActive    StateKind = "active"
	KindApproved  StateKind = "approved"
	KindDenied    StateKind = "denied"
	KindCancelled StateKind = "cancelled"
)

// Transition is a named move from any of Sources to Target.
type Transition struct {
	Event   Event
	Sources []State
	Target  State
}

// SelfLoop reports whether firing from s would leave the state unchanged.
func (t Transition) SelfLoop(s State) bool {
	return t.Target == s && slices.Contains(t.Sources, s)
}

type stateDecl struct {
	label string
	kind  StateKind
}

// Definition is an immutable workflow declaration.
//
// Invariants:
//   - the initial state and every transition endpoint are declared states
//   - an (event, source) pair resolves to at most one transition
//   - every event code carries the definition's namespace
type Definition struct {
	name        string
	namespace   string
	initial     State
	order       []State
	states      map[State]stateDecl
	transitions []Transition
	silent      map[Event]struct{}
}

func (d *Definition) Name() string      { return d.name }
func (d *Definition) Namespace() string { return d.namespace }
func (d *Definition) Initial() State    { return d.initial }

// States returns the declared states in declaration order.
func (d *Definition) States() []State {
	return slices.Clone(d.order)
}

func (d *Definition) HasState(s State) bool {
	_, ok := d.states[s]
	return ok
}

func (d *Definition) Label(s State) string {
	return d.states[s].label
}

func (d *Definition) Kind(s State) StateKind {
	return d.states[s].kind
}

// Transitions returns the declared transitions in declaration order.
func (d *Definition) Transitions() []Transition {
	out := make([]Transition, len(d.transitions))
	for i, t := range d.transitions {
		t.Sources = slices.Clone(t.Sources)
		out[i] = t
	}
	return out
}

// Events returns each declared event once, in first-declaration order.
func (d *Definition) Events() []Event {
	var out []Event
	for _, t := range d.transitions {
		if !slices.Contains(out, t.Event) {
			out = append(out, t.Event)
		}
	}
	return out
}

func (d *Definition) HasEvent(ev Event) bool {
	for _, t := range d.transitions {
		if t.Event == ev {
			return true
		}
	}
	return false
}

// Resolve finds the transition fired by ev from state from.
func (d *Definition) Resolve(from State, ev Event) (Transition, bool) {
	for _, t := range d.transitions {
		if t.Event == ev && slices.Contains(t.Sources, from) {
			return t, true
		}
	}
	return Transition{}, false
}

// Available lists the events that can fire from s.
func (d *Definition) Available(s State) []Event {
	var out []Event
	for _, t := range d.transitions {
		if slices.Contains(t.Sources, s) && !slices.Contains(out, t.Event) {
			out = append(out, t.Event)
		}
	}
	return out
}

// Terminal reports whether no transition leaves s.
func (d *Definition) Terminal(s State) bool {
	for _, t := range d.transitions {
		if t.Target != s && slices.Contains(t.Sources, s) {
			return false
		}
	}
	return true
}

// Silent reports whether ev is a system-only transition that leaves no
// audit entry and triggers no notification.
func (d *Definition) Silent(ev Event) bool {
	_, ok := d.silent[ev]
	return ok
}

// cancels reports whether ev leads into a cancelled state from anywhere.
func (d *Definition) cancels(ev Event) bool {
	for _, t := range d.transitions {
		if t.Event == ev && d.states[t.Target].kind == KindCancelled {
			return true
		}
	}
	return false
}

// Builder accumulates a Definition. Errors are collected and reported by Build.
type Builder struct {
	def  *Definition
	errs []string
}

// Define starts a definition whose events must be prefixed by namespace.
func Define(name, namespace string, initial State) *Builder {
	return &Builder{def: &Definition{
		name:      name,
		namespace: namespace,
		initial:   initial,
		states:    make(map[State]stateDecl),
		silent:    make(map[Event]struct{}),
	}}
}

func (b *Builder) State(s State, label string, kind StateKind) *Builder {
	if _, dup := b.def.states[s]; dup {
		b.errs = append(b.errs, fmt.Sprintf("state %s declared twice", s))
		return b
	}
	b.def.states[s] = stateDecl{label: label, kind: kind}
	b.def.order = append(b.def.order, s)
	return b
}

// Transition declares ev moving from any of sources to target. The same
// event may be declared again with other sources.
func (b *Builder) Transition(ev Event, target State, sources ...State) *Builder {
	b.def.transitions = append(b.def.transitions, Transition{
		Event:   ev,
		Sources: slices.Clone(sources),
		Target:  target,
	})
	return b
}

// Silent marks system-only events that are not audited.
func (b *Builder) Silent(events ...Event) *Builder {
	for _, ev := range events {
		b.def.silent[ev] = struct{}{}
	}
	return b
}

func (b *Builder) Build() (*Definition, error) {
	d := b.def
	errs := slices.Clone(b.errs)
	if !d.HasState(d.initial) {
		errs = append(errs, fmt.Sprintf("initial state %s is not declared", d.initial))
	}
	seen := make(map[string]struct{})
	for _, t := range d.transitions {
		if t.Event.Namespace() != d.namespace || !strings.Contains(string(t.Event), ".") {
			errs = append(errs, fmt.Sprintf("event %s is outside namespace %s", t.Event, d.namespace))
		}
		if !d.HasState(t.Target) {
			errs = append(errs, fmt.Sprintf("event %s targets undeclared state %s", t.Event, t.Target))
		}
		if len(t.Sources) == 0 {
			errs = append(errs, fmt.Sprintf("event %s has no source states", t.Event))
		}
		for _, src := range t.Sources {
			if !d.HasState(src) {
				errs = append(errs, fmt.Sprintf("event %s leaves undeclared state %s", t.Event, src))
			}
			key := string(t.Event) + "|" + string(src)
			if _, dup := seen[key]; dup {
				errs = append(errs, fmt.Sprintf("event %s declared twice from %s", t.Event, src))
			}
			seen[key] = struct{}{}
		}
	}
	for ev := range d.silent {
		if !d.HasEvent(ev) {
			errs = append(errs, fmt.Sprintf("silent event %s is not declared", ev))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("workflow %s: %s", d.name, strings.Join(errs, "; "))
	}
	return d, nil
}

// MustBuild panics on an invalid declaration. Catalog declarations are
// static, so a failure is a programming error caught by tests.
func (b *Builder) MustBuild() *Definition {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
