package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"merenda/internal/audit"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

const (
	draft     State = "DRAFT"
	review    State = "REVIEW"
	approved  State = "APPROVED"
	cancelled State = "CANCELLED"

	submit  Event = "doc.submit"
	approve Event = "doc.approve"
	remind  Event = "doc.remind"
	cancel  Event = "doc.cancel"
	sweep   Event = "doc.sweep"
)

type doc struct {
	id    domain.RequestID
	state State
}

func (d *doc) EntityID() domain.RequestID { return d.id }
func (d *doc) EntityKind() string         { return "doc" }
func (d *doc) WorkflowState() State       { return d.state }
func (d *doc) SetWorkflowState(s State)   { d.state = s }

func docDefinition() *Definition {
	return Define("doc", "doc", draft).
		State(draft, "Draft", KindActive).
		State(review, "In review", KindActive).
		State(approved, "Approved", KindApproved).
		State(cancelled, "Cancelled", KindCancelled).
		Transition(submit, review, draft).
		Transition(approve, approved, review).
		Transition(remind, review, review).
		Transition(cancel, cancelled, review, approved).
		Transition(sweep, review, review).
		Silent(sweep).
		MustBuild()
}

type MachineSuite struct {
	suite.Suite
	machine    *Machine
	entries    []audit.Entry
	dispatched []Event
	ctx        context.Context
	actor      domain.Actor
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	s.entries = nil
	s.dispatched = nil
	s.ctx = context.Background()
	s.actor = domain.Actor{UserID: domain.UserID(uuid.New()), Name: "Ana", Role: domain.RoleSchoolDirector}
	s.machine = NewMachine(docDefinition())
	s.machine.AfterEach(func(_ context.Context, tc *TransitionContext) error {
		entry := audit.Entry{
			EntityID:  tc.Instance.EntityID(),
			EventCode: string(tc.Event),
			Actor:     audit.ActorFrom(tc.Actor),
		}
		s.entries = append(s.entries, entry)
		tc.Entry = &s.entries[len(s.entries)-1]
		return nil
	})
	s.machine.After(func(_ context.Context, tc *TransitionContext) error {
		s.dispatched = append(s.dispatched, tc.Event)
		return nil
	}, submit, approve, remind, cancel)
}

func (s *MachineSuite) newDoc(state State) *doc {
	return &doc{id: domain.NewRequestID(), state: state}
}

func (s *MachineSuite) TestFireMovesStateAndRecordsOnce() {
	d := s.newDoc(draft)

	res, err := s.machine.Fire(s.ctx, d, submit, s.actor, Payload{Justification: "ready"})
	s.Require().NoError(err)
	s.Equal(review, d.state)
	s.Equal(draft, res.From)
	s.Equal(review, res.To)
	s.Require().NotNil(res.Entry)
	s.Equal(string(submit), res.Entry.EventCode)
	s.Equal(s.actor.UserID, res.Entry.Actor.UserID)
	s.Len(s.entries, 1)
	s.Equal([]Event{submit}, s.dispatched)
}

func (s *MachineSuite) TestUndeclaredEventLeavesEveryStateUntouched() {
	def := s.machine.Definition()
	for _, st := range def.States() {
		for _, ev := range def.Events() {
			if _, ok := def.Resolve(st, ev); ok {
				continue
			}
			d := s.newDoc(st)
			s.False(s.machine.CanFire(d, ev))

			_, err := s.machine.Fire(s.ctx, d, ev, s.actor, Payload{})
			var invalid *InvalidTransitionError
			s.Require().ErrorAs(err, &invalid, "%s from %s", ev, st)
			s.Equal(st, invalid.State)
			s.Equal(ev, invalid.Event)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
			s.Equal(st, d.state)
		}
	}
	s.Empty(s.entries)
	s.Empty(s.dispatched)
}

func (s *MachineSuite) TestUnknownEvent() {
	d := s.newDoc(draft)
	_, err := s.machine.Fire(s.ctx, d, Event("doc.teleport"), s.actor, Payload{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Contains(err.Error(), "doc.teleport")
}

func (s *MachineSuite) TestGuardsRunInOrderAndFirstDenialWins() {
	first := &UnauthorizedError{Role: s.actor.Role, Event: approve}
	var calls []string
	s.machine.Guard(func(context.Context, *TransitionContext) Decision {
		calls = append(calls, "first")
		return Deny(first)
	}, approve)
	s.machine.Guard(func(context.Context, *TransitionContext) Decision {
		calls = append(calls, "second")
		return Allow()
	}, approve)

	d := s.newDoc(review)
	_, err := s.machine.Fire(s.ctx, d, approve, s.actor, Payload{})
	s.Require().ErrorIs(err, first)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal([]string{"first"}, calls)
	s.Equal(review, d.state)
	s.Empty(s.entries)
}

func (s *MachineSuite) TestBeforeHookAbortsWithoutMutation() {
	boom := errors.New("directory unavailable")
	s.machine.Before(func(context.Context, *TransitionContext) error { return boom }, submit)

	d := s.newDoc(draft)
	_, err := s.machine.Fire(s.ctx, d, submit, s.actor, Payload{})
	s.Require().ErrorIs(err, boom)
	s.Equal(draft, d.state)
	s.Empty(s.entries)
}

func (s *MachineSuite) TestAfterHookFailureRestoresState() {
	boom := errors.New("insert failed")
	s.machine.After(func(context.Context, *TransitionContext) error { return boom }, approve)

	d := s.newDoc(review)
	_, err := s.machine.Fire(s.ctx, d, approve, s.actor, Payload{})
	s.Require().ErrorIs(err, boom)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(review, d.state)
}

func (s *MachineSuite) TestSelfLoopTwiceRecordsTwice() {
	d := s.newDoc(review)

	for range 2 {
		res, err := s.machine.Fire(s.ctx, d, remind, s.actor, Payload{})
		s.Require().NoError(err)
		s.Equal(review, res.To)
	}
	s.Equal(review, d.state)
	s.Len(s.entries, 2)
	s.Equal([]Event{remind, remind}, s.dispatched)
}

func (s *MachineSuite) TestReplaySideEffects() {
	s.Run("replays a declared self-loop without before hooks", func() {
		beforeRan := false
		s.machine.Before(func(context.Context, *TransitionContext) error {
			beforeRan = true
			return nil
		}, remind)

		d := s.newDoc(review)
		res, err := s.machine.ReplaySideEffects(s.ctx, d, remind, s.actor, Payload{})
		s.Require().NoError(err)
		s.True(res.Replayed)
		s.False(beforeRan)
		s.Equal(review, d.state)
		s.Len(s.entries, 1)
	})

	s.Run("rejects events that change state", func() {
		d := s.newDoc(review)
		_, err := s.machine.ReplaySideEffects(s.ctx, d, approve, s.actor, Payload{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		s.Equal(review, d.state)
	})
}

func (s *MachineSuite) TestCancellingTwiceSaysAlreadyCancelled() {
	d := s.newDoc(review)
	_, err := s.machine.Fire(s.ctx, d, cancel, s.actor, Payload{})
	s.Require().NoError(err)

	_, err = s.machine.Fire(s.ctx, d, cancel, s.actor, Payload{})
	var invalid *InvalidTransitionError
	s.Require().ErrorAs(err, &invalid)
	s.True(invalid.AlreadyCancelled)
	s.Equal("request is already cancelled", err.Error())

	_, err = s.machine.Fire(s.ctx, s.newDoc(draft), cancel, s.actor, Payload{})
	s.Require().ErrorAs(err, &invalid)
	s.False(invalid.AlreadyCancelled)
}

func (s *MachineSuite) TestSilentEventSkipsAudit() {
	d := s.newDoc(review)
	res, err := s.machine.Fire(s.ctx, d, sweep, domain.SystemActor(), Payload{})
	s.Require().NoError(err)
	s.Nil(res.Entry)
	s.Empty(s.entries)
	s.Empty(s.dispatched)
}
