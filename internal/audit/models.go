package audit

import (
	"time"

	"github.com/google/uuid"

	"merenda/pkg/domain"
)

// Entry is the immutable record of one committed transition.
//
// Invariants:
//   - EntityID and EventCode are always set
//   - entries are never updated or deleted once appended
//   - CreatedAt is assigned by the trail, never by callers
type Entry struct {
	ID            uuid.UUID
	EntityID      domain.RequestID
	EntityKind    string
	Workflow      string
	EventCode     string
	FromState     string
	ToState       string
	Actor         Actor
	Justification string
	Attachments   []Attachment
	Response      *bool
	CreatedAt     time.Time
}

// Actor is the denormalized caller recorded on an entry so the log stays
// readable after users change roles or leave.
type Actor struct {
	UserID domain.UserID `json:"user_id"`
	Name   string        `json:"name"`
	Role   domain.Role   `json:"role"`
}

func ActorFrom(a domain.Actor) Actor {
	return Actor{UserID: a.UserID, Name: a.Name, Role: a.Role}
}

// Attachment references a file uploaded with a transition.
type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}
