package calendar_test

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"merenda/internal/calendar"
	"merenda/internal/calendar/store"
	"merenda/pkg/domain"
	"merenda/pkg/requestcontext"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	monday    = date(2026, time.October, 19)
	tuesday   = date(2026, time.October, 20)
	wednesday = date(2026, time.October, 21)
	thursday  = date(2026, time.October, 22)
	friday    = date(2026, time.October, 23)
)

func TestBusinessDaysAfter(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		n    int
		want time.Time
	}{
		{"zero days", monday, 0, monday},
		{"within the week", monday, 2, wednesday},
		{"friday skips the weekend", friday, 1, date(2026, time.October, 26)},
		{"thursday plus two lands on monday", thursday, 2, date(2026, time.October, 26)},
		{"saturday counts from monday", date(2026, time.October, 24), 1, date(2026, time.October, 26)},
		{"two weeks", monday, 10, date(2026, time.November, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calendar.BusinessDaysAfter(tt.ref, tt.n))
		})
	}
}

type CalendarSuite struct {
	suite.Suite
	store  *store.InMemoryStore
	cal    *calendar.Calendar
	school domain.InstitutionID
	ctx    context.Context
}

func TestCalendarSuite(t *testing.T) {
	suite.Run(t, new(CalendarSuite))
}

func (s *CalendarSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.cal = calendar.New(calendar.Config{Location: time.UTC}, s.store)
	s.school = domain.InstitutionID(uuid.New())
	s.ctx = requestcontext.WithTime(context.Background(), monday.Add(9*time.Hour))
}

func (s *CalendarSuite) TestLeadTimeBoundary() {
	check, err := s.cal.CheckLeadTime(s.ctx, s.school, wednesday, 2)
	s.Require().NoError(err)
	s.False(check.Allowed, "wednesday is exactly at the boundary")
	s.Equal(wednesday, check.Boundary)
	s.Zero(check.SuspensionDays)

	check, err = s.cal.CheckLeadTime(s.ctx, s.school, thursday, 2)
	s.Require().NoError(err)
	s.True(check.Allowed)
}

func (s *CalendarSuite) TestSuspensionDaysExtendTheWindow() {
	s.Require().NoError(s.store.Add(s.ctx, calendar.SuspensionWindow{
		ID:            uuid.New(),
		InstitutionID: s.school,
		Start:         tuesday,
		End:           tuesday,
		Reason:        "staff planning day",
	}))

	days, err := s.cal.SuspensionDaysFor(s.ctx, s.school, monday, wednesday)
	s.Require().NoError(err)
	s.Equal(1, days)

	check, err := s.cal.CheckLeadTime(s.ctx, s.school, thursday, 2)
	s.Require().NoError(err)
	s.False(check.Allowed)
	s.Equal(thursday, check.Boundary)
	s.Equal(1, check.SuspensionDays)

	check, err = s.cal.CheckLeadTime(s.ctx, s.school, friday, 2)
	s.Require().NoError(err)
	s.True(check.Allowed)
}

func (s *CalendarSuite) TestDeclaredWeekendDaysCount() {
	s.ctx = requestcontext.WithTime(context.Background(), friday.Add(9*time.Hour))
	s.Require().NoError(s.store.Add(s.ctx, calendar.SuspensionWindow{
		InstitutionID: s.school,
		Start:         date(2026, time.October, 24),
		End:           date(2026, time.October, 25),
		Reason:        "weekend school fair",
	}))
	s.Require().NoError(s.store.Add(s.ctx, calendar.SuspensionWindow{
		InstitutionID: domain.InstitutionID(uuid.New()),
		Start:         date(2026, time.October, 26),
		End:           date(2026, time.October, 30),
	}))

	days, err := s.cal.SuspensionDaysFor(s.ctx, s.school, friday, date(2026, time.October, 27))
	s.Require().NoError(err)
	s.Equal(2, days)

	check, err := s.cal.CheckLeadTime(s.ctx, s.school, date(2026, time.October, 29), 2)
	s.Require().NoError(err)
	s.False(check.Allowed)
	s.Equal(date(2026, time.October, 29), check.Boundary)
	s.Equal(2, check.SuspensionDays)
}

func (s *CalendarSuite) TestOverlappingWindowsCountOnce() {
	for _, w := range []calendar.SuspensionWindow{
		{InstitutionID: s.school, Start: monday, End: wednesday},
		{InstitutionID: s.school, Start: tuesday, End: thursday},
	} {
		s.Require().NoError(s.store.Add(s.ctx, w))
	}
	days, err := s.cal.SuspensionDaysFor(s.ctx, s.school, monday, friday)
	s.Require().NoError(err)
	s.Equal(4, days)
}

func (s *CalendarSuite) TestClassify() {
	s.Equal(calendar.PriorityUrgent, s.cal.Classify(s.ctx, wednesday))
	s.Equal(calendar.PriorityLimit, s.cal.Classify(s.ctx, thursday))
	s.Equal(calendar.PriorityLimit, s.cal.Classify(s.ctx, date(2026, time.October, 26)))
	s.Equal(calendar.PriorityRegular, s.cal.Classify(s.ctx, date(2026, time.October, 27)))
	s.True(calendar.PriorityLimit.LateFiled())
	s.False(calendar.PriorityRegular.LateFiled())
}

func TestTodayUsesConfiguredZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	cal := calendar.New(calendar.Config{Location: loc}, nil)

	// 01:00 UTC on Tuesday is still Monday evening in São Paulo.
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, time.October, 20, 1, 0, 0, 0, time.UTC))
	today := cal.Today(ctx)
	assert.Equal(t, time.Monday, today.Weekday())
}

func TestEventDatesKeepTheirDayOutsideUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	windows := store.NewInMemory()
	cal := calendar.New(calendar.Config{Location: loc}, windows)
	school := domain.InstitutionID(uuid.New())
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, time.October, 19, 10, 0, 0, 0, loc))

	parse := func(v string) time.Time {
		d, err := time.Parse(time.DateOnly, v)
		require.NoError(t, err)
		return d
	}

	check, err := cal.CheckLeadTime(ctx, school, parse("2026-10-22"), 2)
	require.NoError(t, err)
	assert.True(t, check.Allowed, "thursday is past a two-day lead from monday")
	assert.Equal(t, time.Date(2026, time.October, 21, 0, 0, 0, 0, loc), check.Boundary)

	check, err = cal.CheckLeadTime(ctx, school, parse("2026-10-21"), 2)
	require.NoError(t, err)
	assert.False(t, check.Allowed)

	assert.Equal(t, calendar.PriorityUrgent, cal.Classify(ctx, parse("2026-10-21")))
	assert.Equal(t, calendar.PriorityLimit, cal.Classify(ctx, parse("2026-10-22")))
	assert.Equal(t, calendar.PriorityRegular, cal.Classify(ctx, parse("2026-10-27")))

	require.NoError(t, windows.Add(ctx, calendar.SuspensionWindow{
		InstitutionID: school,
		Start:         parse("2026-10-20"),
		End:           parse("2026-10-20"),
	}))
	check, err = cal.CheckLeadTime(ctx, school, parse("2026-10-22"), 2)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, 1, check.SuspensionDays)
}
