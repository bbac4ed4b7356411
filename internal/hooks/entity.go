// Package hooks holds the reusable guards and hooks the catalog attaches to
// workflow machines. Hooks read request data through the small interfaces
// below, so they work for any instance that exposes the data they need.
package hooks

import (
	"time"

	"merenda/internal/calendar"
	"merenda/internal/directory"
	"merenda/pkg/domain"
)

// Originated instances know the institution that filed them.
type Originated interface {
	Origin() domain.InstitutionID
}

// Addressed instances are directed at a supplier or distributor.
type Addressed interface {
	Counterpart() domain.InstitutionID
}

// Dated instances carry the representative date used by lead-time rules.
type Dated interface {
	EventDate() time.Time
}

type Motivated interface {
	Motive() string
}

type Prioritized interface {
	Priority() calendar.Priority
	SetPriority(calendar.Priority)
}

// Ended instances expire on their end date.
type Ended interface {
	EndDate() time.Time
}

// Child instances are sub-workflows of a parent request.
type Child interface {
	ParentID() domain.RequestID
}

// Snapshotted instances hold an institutional snapshot. CaptureSnapshot
// fails once a snapshot is present.
type Snapshotted interface {
	Snapshot() *directory.Snapshot
	CaptureSnapshot(directory.Snapshot) error
	// CoveredSchools lists the schools a district request applies to.
	CoveredSchools() []domain.InstitutionID
}
