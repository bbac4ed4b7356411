package httptransport

import (
	"time"

	"merenda/internal/audit"
	"merenda/internal/notification"
	"merenda/internal/request/models"
	"merenda/internal/request/service"
	"merenda/internal/workflow"
	"merenda/internal/workflow/catalog"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

const dateLayout = time.DateOnly

type createRequestBody struct {
	Kind          string   `json:"kind"`
	CounterpartID string   `json:"counterpart_id,omitempty"`
	ParentID      string   `json:"parent_id,omitempty"`
	EventDate     string   `json:"event_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Motive        string   `json:"motive,omitempty"`
	Schools       []string `json:"schools,omitempty"`
}

func (b createRequestBody) toInput() (service.CreateInput, error) {
	in := service.CreateInput{
		Kind:   catalog.Kind(b.Kind),
		Motive: b.Motive,
	}
	if b.Kind == "" {
		return in, dErrors.New(dErrors.CodeValidation, "kind is required")
	}
	var err error
	if b.CounterpartID != "" {
		if in.Counterpart, err = domain.ParseInstitutionID(b.CounterpartID); err != nil {
			return in, err
		}
	}
	if b.ParentID != "" {
		if in.Parent, err = domain.ParseRequestID(b.ParentID); err != nil {
			return in, err
		}
	}
	if in.EventDate, err = parseDate("event_date", b.EventDate); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDate("end_date", b.EndDate); err != nil {
		return in, err
	}
	for _, s := range b.Schools {
		school, err := domain.ParseInstitutionID(s)
		if err != nil {
			return in, err
		}
		in.Schools = append(in.Schools, school)
	}
	return in, nil
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be YYYY-MM-DD")
	}
	return t, nil
}

// eventBody is the optional payload of a transition.
type eventBody struct {
	Justification string             `json:"justification,omitempty"`
	Attachments   []audit.Attachment `json:"attachments,omitempty"`
	Response      *bool              `json:"response,omitempty"`
}

func (b eventBody) payload() workflow.Payload {
	return workflow.Payload{
		Justification: b.Justification,
		Attachments:   b.Attachments,
		Response:      b.Response,
	}
}

type requestResponse struct {
	*models.Request
	StateLabel string           `json:"state_label"`
	Available  []workflow.Event `json:"available_events"`
}

type transitionResponse struct {
	Request    requestResponse `json:"request"`
	Event      workflow.Event  `json:"event"`
	From       workflow.State  `json:"from"`
	To         workflow.State  `json:"to"`
	Replayed   bool            `json:"replayed,omitempty"`
	TrailEntry *entryResponse  `json:"trail_entry,omitempty"`
}

type entryResponse struct {
	ID            string             `json:"id"`
	EventCode     string             `json:"event"`
	FromState     string             `json:"from"`
	ToState       string             `json:"to"`
	Actor         audit.Actor        `json:"actor"`
	Justification string             `json:"justification,omitempty"`
	Attachments   []audit.Attachment `json:"attachments,omitempty"`
	Response      *bool              `json:"response,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func toEntryResponse(e audit.Entry) entryResponse {
	return entryResponse{
		ID:            e.ID.String(),
		EventCode:     e.EventCode,
		FromState:     e.FromState,
		ToState:       e.ToState,
		Actor:         e.Actor,
		Justification: e.Justification,
		Attachments:   e.Attachments,
		Response:      e.Response,
		CreatedAt:     e.CreatedAt,
	}
}

type notificationResponse struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
	EntityID    string `json:"entity_id,omitempty"`
	Resolved    bool   `json:"resolved"`
	CreatedAt   string `json:"created_at"`
}

func toNotificationResponse(n notification.Notification) notificationResponse {
	out := notificationResponse{
		ID:          n.ID.String(),
		Category:    string(n.Category),
		Title:       n.Title,
		Description: n.Description,
		Link:        n.Link,
		Resolved:    n.Resolved,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}
	if !n.EntityID.IsNil() {
		out.EntityID = n.EntityID.String()
	}
	return out
}

type stateView struct {
	Name     workflow.State     `json:"name"`
	Label    string             `json:"label"`
	Kind     workflow.StateKind `json:"kind"`
	Terminal bool               `json:"terminal"`
}

type transitionView struct {
	Event   workflow.Event   `json:"event"`
	Sources []workflow.State `json:"sources"`
	Target  workflow.State   `json:"target"`
	Silent  bool             `json:"silent,omitempty"`
}

type workflowView struct {
	Name        string           `json:"name"`
	Namespace   string           `json:"namespace"`
	Initial     workflow.State   `json:"initial"`
	States      []stateView      `json:"states,omitempty"`
	Transitions []transitionView `json:"transitions,omitempty"`
}

func summarize(def *workflow.Definition) workflowView {
	return workflowView{Name: def.Name(), Namespace: def.Namespace(), Initial: def.Initial()}
}

func describe(def *workflow.Definition) workflowView {
	v := summarize(def)
	for _, s := range def.States() {
		v.States = append(v.States, stateView{
			Name:     s,
			Label:    def.Label(s),
			Kind:     def.Kind(s),
			Terminal: def.Terminal(s),
		})
	}
	for _, t := range def.Transitions() {
		v.Transitions = append(v.Transitions, transitionView{
			Event:   t.Event,
			Sources: t.Sources,
			Target:  t.Target,
			Silent:  def.Silent(t.Event),
		})
	}
	return v
}
