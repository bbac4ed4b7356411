// Package calendar implements business-day and suspension-window arithmetic
// for lead-time rules. Only the weekend rule is modeled; holidays and
// recesses are declared per institution as suspension windows.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"merenda/pkg/domain"
	"merenda/pkg/requestcontext"
)

// Priority classifies how close a request's event date is to today.
type Priority string

const (
	PriorityUrgent  Priority = "PRIORITY"
	PriorityLimit   Priority = "LIMIT"
	PriorityRegular Priority = "REGULAR"
)

// Lead-time thresholds, in business days.
const (
	UrgentLeadDays = 2
	LimitLeadDays  = 5
)

// LateFiled reports whether a request with this priority was filed inside
// the regular window.
func (p Priority) LateFiled() bool {
	return p == PriorityUrgent || p == PriorityLimit
}

// SuspensionWindow is a declared period of inactivity at one institution.
// Start and End are dates, both inclusive.
type SuspensionWindow struct {
	ID            uuid.UUID
	InstitutionID domain.InstitutionID
	Start         time.Time
	End           time.Time
	Reason        string
}

type SuspensionStore interface {
	Add(ctx context.Context, w SuspensionWindow) error
	ListOverlapping(ctx context.Context, institution domain.InstitutionID, from, to time.Time) ([]SuspensionWindow, error)
}

// Config is the calendar's construction-time configuration.
type Config struct {
	Location *time.Location
}

type Calendar struct {
	loc   *time.Location
	store SuspensionStore
}

func New(cfg Config, store SuspensionStore) *Calendar {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, store: store}
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Today is the current date in the calendar's time zone.
func (c *Calendar) Today(ctx context.Context) time.Time {
	return c.Date(requestcontext.Now(ctx))
}

// Date truncates the instant t to midnight of its day in the calendar's
// time zone. Use it for clocks, not for stored dates.
func (c *Calendar) Date(t time.Time) time.Time {
	return c.Day(t.In(c.loc))
}

// Day reads t as a calendar date: its own year, month and day, whatever
// zone it carries, at midnight in the calendar's zone. Event dates parsed
// from YYYY-MM-DD or scanned from DATE columns arrive as UTC midnight and
// must keep their day.
func (c *Calendar) Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// BusinessDaysAfter advances ref by n weekdays.
func (c *Calendar) BusinessDaysAfter(ref time.Time, n int) time.Time {
	return BusinessDaysAfter(c.Date(ref), n)
}

// BusinessDaysAfter advances ref by n weekdays, skipping Saturday and Sunday.
// The time of day of ref is kept.
func BusinessDaysAfter(ref time.Time, n int) time.Time {
	d := ref
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			added++
		}
	}
	return d
}

func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// SuspensionDaysFor counts the distinct days in [from, to] on which the
// institution has a declared suspension. Weekend days count too when a
// window declares them.
func (c *Calendar) SuspensionDaysFor(ctx context.Context, institution domain.InstitutionID, from, to time.Time) (int, error) {
	if institution.IsNil() || c.store == nil {
		return 0, nil
	}
	from, to = c.Day(from), c.Day(to)
	windows, err := c.store.ListOverlapping(ctx, institution, from, to)
	if err != nil {
		return 0, fmt.Errorf("list suspension windows: %w", err)
	}
	suspended := make(map[time.Time]struct{})
	for _, w := range windows {
		start, end := c.Day(w.Start), c.Day(w.End)
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			suspended[d] = struct{}{}
		}
	}
	return len(suspended), nil
}

// EarliestPermitted returns the first date that is not inside the lead-time
// window: business_days_after(today, lead + suspension days). An event on
// or before this date is too close. The suspension count is also returned.
func (c *Calendar) EarliestPermitted(ctx context.Context, institution domain.InstitutionID, lead int) (time.Time, int, error) {
	today := c.Today(ctx)
	suspended, err := c.SuspensionDaysFor(ctx, institution, today, c.BusinessDaysAfter(today, lead))
	if err != nil {
		return time.Time{}, 0, err
	}
	return c.BusinessDaysAfter(today, lead+suspended), suspended, nil
}

// LeadTimeCheck is the outcome of CheckLeadTime.
type LeadTimeCheck struct {
	Allowed        bool
	Boundary       time.Time
	SuspensionDays int
}

// CheckLeadTime rejects when business_days_after(today, lead + suspension)
// is on or after eventDate.
func (c *Calendar) CheckLeadTime(ctx context.Context, institution domain.InstitutionID, eventDate time.Time, lead int) (LeadTimeCheck, error) {
	boundary, suspended, err := c.EarliestPermitted(ctx, institution, lead)
	if err != nil {
		return LeadTimeCheck{}, err
	}
	return LeadTimeCheck{
		Allowed:        boundary.Before(c.Day(eventDate)),
		Boundary:       boundary,
		SuspensionDays: suspended,
	}, nil
}

// Classify assigns the priority of a request for eventDate filed today.
func (c *Calendar) Classify(ctx context.Context, eventDate time.Time) Priority {
	today := c.Today(ctx)
	event := c.Day(eventDate)
	switch {
	case !event.After(c.BusinessDaysAfter(today, UrgentLeadDays)):
		return PriorityUrgent
	case !event.After(c.BusinessDaysAfter(today, LimitLeadDays)):
		return PriorityLimit
	default:
		return PriorityRegular
	}
}
