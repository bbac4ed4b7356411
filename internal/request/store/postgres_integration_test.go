//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"merenda/internal/calendar"
	"merenda/internal/directory"
	"merenda/internal/request/models"
	"merenda/internal/request/store"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	"merenda/pkg/platform/sentinel"
	"merenda/pkg/platform/tx"
	"merenda/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	origin   domain.InstitutionID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "requests"))
	s.origin = domain.InstitutionID(uuid.New())
}

func (s *PostgresStoreSuite) newRequest(createdAt time.Time) *models.Request {
	r, err := models.NewRequest(domain.NewRequestID(), models.Draft{
		Kind:      "menu_change",
		Workflow:  "school_request",
		Initial:   "DRAFT",
		EventDate: createdAt.AddDate(0, 0, 10),
		Motive:    "field trip",
		Schools:   []domain.InstitutionID{domain.InstitutionID(uuid.New())},
	}, domain.Actor{UserID: domain.UserID(uuid.New()), InstitutionID: s.origin}, createdAt)
	s.Require().NoError(err)
	return r
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	r := s.newRequest(now)
	s.Require().NoError(s.store.Create(ctx, r))

	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, got.ID)
	s.Equal(r.OriginID, got.OriginID)
	s.Equal(r.Schools, got.Schools)
	s.Equal("field trip", got.Reason)
	s.Equal(time.Date(2026, time.October, 29, 0, 0, 0, 0, time.UTC), got.Date.UTC(), "stored as a calendar date")
	s.Nil(got.Snap)
	s.True(got.CounterpartID.IsNil())

	s.ErrorIs(s.store.Create(ctx, r), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestEventDateKeepsItsDayInAnyZone() {
	ctx := context.Background()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	s.Require().NoError(err)
	r := s.newRequest(time.Date(2026, time.October, 19, 22, 30, 0, 0, loc))
	s.Require().NoError(s.store.Create(ctx, r))

	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	y, m, d := got.Date.Date()
	s.Equal([]int{2026, 10, 29}, []int{y, int(m), d})
}

func (s *PostgresStoreSuite) TestExecutePersistsStatePriorityAndSnapshot() {
	ctx := context.Background()
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	r := s.newRequest(now)
	s.Require().NoError(s.store.Create(ctx, r))

	district := domain.InstitutionID(uuid.New())
	_, err := s.store.Execute(ctx, r.ID, func(r *models.Request) error {
		r.State = "DISTRICT_TO_VALIDATE"
		r.SetPriority(calendar.PriorityLimit)
		r.UpdatedAt = now.Add(time.Minute)
		return r.CaptureSnapshot(directory.Snapshot{
			Chain:      directory.Chain{Origin: r.OriginID, District: district},
			CapturedAt: now,
		})
	})
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(workflow.State("DISTRICT_TO_VALIDATE"), got.State)
	s.Equal(calendar.PriorityLimit, got.Level)
	s.Require().NotNil(got.Snap)
	s.Equal(district, got.Snap.District)
}

func (s *PostgresStoreSuite) TestExecuteFailureLeavesRowUntouched() {
	ctx := context.Background()
	r := s.newRequest(time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, r))

	_, err := s.store.Execute(ctx, r.ID, func(r *models.Request) error {
		r.State = "HALFWAY"
		return errors.New("guard denied")
	})
	s.Require().Error(err)

	state, err := s.store.State(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(workflow.State("DRAFT"), state)
}

// TestConcurrentExecuteCommitsOnce checks that the row lock makes the second
// caller see the state written by the first.
func (s *PostgresStoreSuite) TestConcurrentExecuteCommitsOnce() {
	ctx := context.Background()
	r := s.newRequest(time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, r))
	runner := tx.NewSQLRunner(s.postgres.DB, 5*time.Second)

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		committed atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.RunInTx(ctx, func(ctx context.Context) error {
				_, err := s.store.Execute(ctx, r.ID, func(r *models.Request) error {
					if r.State != "DRAFT" {
						return errors.New("already submitted")
					}
					r.State = "DISTRICT_TO_VALIDATE"
					return nil
				})
				return err
			})
			if err == nil {
				committed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), committed.Load())
}

func (s *PostgresStoreSuite) TestListAndDelete() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	first := s.newRequest(now)
	second := s.newRequest(now.Add(time.Second))
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, first))

	list, err := s.store.ListByOrigin(ctx, s.origin)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)

	s.Require().NoError(s.store.DeleteIf(ctx, first.ID, func(r *models.Request) error {
		return r.CanDiscard("DRAFT", 0)
	}))
	_, err = s.store.FindByID(ctx, first.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
