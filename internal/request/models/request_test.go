package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merenda/internal/directory"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

func TestNewRequest(t *testing.T) {
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	actor := domain.Actor{
		UserID:        domain.UserID(uuid.New()),
		Role:          domain.RoleSchoolDirector,
		InstitutionID: domain.InstitutionID(uuid.New()),
	}
	valid := Draft{Kind: "special_diet", Workflow: "special_diet", Initial: "DRAFT"}

	tests := []struct {
		name   string
		mutate func(d *Draft, a *domain.Actor)
	}{
		{"missing kind", func(d *Draft, _ *domain.Actor) { d.Kind = "" }},
		{"missing initial state", func(d *Draft, _ *domain.Actor) { d.Initial = "" }},
		{"no filing institution", func(_ *Draft, a *domain.Actor) { a.InstitutionID = domain.InstitutionID{} }},
		{"end before start", func(d *Draft, _ *domain.Actor) {
			d.EventDate = now.AddDate(0, 0, 10)
			d.EndDate = now.AddDate(0, 0, 5)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, a := valid, actor
			tt.mutate(&d, &a)
			_, err := NewRequest(domain.NewRequestID(), d, a, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}

	t.Run("filed by the actor's institution in the initial state", func(t *testing.T) {
		r, err := NewRequest(domain.NewRequestID(), valid, actor, now)
		require.NoError(t, err)
		assert.Equal(t, actor.InstitutionID, r.Origin())
		assert.Equal(t, actor.UserID, r.CreatedBy)
		assert.EqualValues(t, "DRAFT", r.WorkflowState())
		assert.Equal(t, now, r.CreatedAt)
	})
}

func TestSnapshotCapturedOnce(t *testing.T) {
	r := &Request{ID: domain.NewRequestID(), State: "DRAFT"}
	schools := []domain.InstitutionID{domain.InstitutionID(uuid.New())}

	require.NoError(t, r.CaptureSnapshot(directory.Snapshot{Schools: schools}))
	schools[0] = domain.InstitutionID{}
	assert.False(t, r.Snapshot().Schools[0].IsNil())

	err := r.CaptureSnapshot(directory.Snapshot{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestCanDiscard(t *testing.T) {
	r := &Request{State: "DRAFT"}
	assert.NoError(t, r.CanDiscard("DRAFT", 0))
	assert.True(t, dErrors.HasCode(r.CanDiscard("DRAFT", 1), dErrors.CodeInvalidTransition), "a self-loop left entries")
	r.State = "DISTRICT_TO_VALIDATE"
	assert.True(t, dErrors.HasCode(r.CanDiscard("DRAFT", 0), dErrors.CodeInvalidTransition))
}

func TestVisibleTo(t *testing.T) {
	origin := domain.InstitutionID(uuid.New())
	district := domain.InstitutionID(uuid.New())
	contractor := domain.InstitutionID(uuid.New())
	covered := domain.InstitutionID(uuid.New())
	supplier := domain.InstitutionID(uuid.New())
	at := func(inst domain.InstitutionID, role domain.Role) domain.Actor {
		return domain.Actor{UserID: domain.UserID(uuid.New()), Role: role, InstitutionID: inst}
	}

	r := &Request{OriginID: origin, CounterpartID: supplier}
	assert.True(t, r.VisibleTo(at(origin, domain.RoleSchoolDirector)))
	assert.True(t, r.VisibleTo(at(supplier, domain.RoleSupplierAdmin)))
	assert.False(t, r.VisibleTo(at(district, domain.RoleDistrictCoManager)), "no chain before the snapshot")
	assert.True(t, r.VisibleTo(at(domain.InstitutionID{}, domain.RoleCentralMealManager)))
	assert.True(t, r.VisibleTo(domain.SystemActor()))
	assert.False(t, r.VisibleTo(at(domain.InstitutionID{}, domain.RoleSchoolAdmin)))

	r.Snap = &directory.Snapshot{
		Chain:   directory.Chain{Origin: origin, School: origin, District: district, Contractor: contractor},
		Schools: []domain.InstitutionID{covered},
	}
	assert.True(t, r.VisibleTo(at(district, domain.RoleDistrictCoManager)))
	assert.True(t, r.VisibleTo(at(contractor, domain.RoleContractorNutritionist)))
	assert.True(t, r.VisibleTo(at(covered, domain.RoleSchoolDirector)))
	assert.False(t, r.VisibleTo(at(domain.InstitutionID(uuid.New()), domain.RoleSchoolDirector)), "another school")
	assert.False(t, r.VisibleTo(at(domain.InstitutionID(uuid.New()), domain.RoleContractorAdmin)), "another contractor")
}

func TestCloneIsDeep(t *testing.T) {
	r := &Request{
		Schools: []domain.InstitutionID{domain.InstitutionID(uuid.New())},
		Snap:    &directory.Snapshot{Schools: []domain.InstitutionID{domain.InstitutionID(uuid.New())}},
	}
	c := r.Clone()
	c.Schools[0] = domain.InstitutionID{}
	c.Snap.Schools[0] = domain.InstitutionID{}
	c.Snap.CapturedAt = time.Now()

	assert.False(t, r.Schools[0].IsNil())
	assert.False(t, r.Snap.Schools[0].IsNil())
	assert.True(t, r.Snap.CapturedAt.IsZero())
}
