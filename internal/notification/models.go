package notification

import (
	"time"

	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

// Category is how the notification is presented to its recipient.
type Category string

const (
	CategoryPendency Category = "pendency"
	CategoryWarning  Category = "warning"
	CategoryAlert    Category = "alert"
	CategoryNotice   Category = "notice"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryPendency, CategoryWarning, CategoryAlert, CategoryNotice:
		return true
	}
	return false
}

// Topic is the program area a notification belongs to.
type Topic string

const (
	TopicMealRequest      Topic = "meal_request"
	TopicSpecialDiet      Topic = "special_diet"
	TopicProduct          Topic = "product"
	TopicDeliveryRequest  Topic = "delivery_request"
	TopicDeliveryChange   Topic = "delivery_change"
	TopicDeliveryGuide    Topic = "delivery_guide"
	TopicMeasurement      Topic = "measurement"
	TopicCronogram        Topic = "cronogram"
	TopicCronogramChange  Topic = "cronogram_change"
	TopicPackagingLayout  Topic = "packaging_layout"
	TopicReceiptDocuments Topic = "receipt_documents"
	TopicTechnicalSheet   Topic = "technical_sheet"
	TopicOccurrenceNotice Topic = "occurrence_notice"
)

// Notification is an in-app message for one user.
//
// Invariants:
//   - Title and RecipientID are always set
//   - at most one unresolved notification exists per (Title, RecipientID)
//   - Resolved only moves from false to true
type Notification struct {
	ID          domain.NotificationID
	Category    Category
	Topic       Topic
	Title       string
	Description string
	RecipientID domain.UserID
	Link        string
	EntityID    domain.RequestID
	Read        bool
	Resolved    bool
	CreatedAt   time.Time
}

// Recipient is a resolved addressee. Recipients without a UserID (a
// school's registered contact address) receive email only.
type Recipient struct {
	UserID domain.UserID
	Name   string
	Email  string
}

// Message is one fan-out request built by a transition hook.
type Message struct {
	EntityID    domain.RequestID
	Category    Category
	Topic       Topic
	Title       string
	Description string
	Link        string
	Template    string
	Data        map[string]any
	Recipients  []Recipient
	// Emails overrides the outbound address list; when empty the
	// recipients' addresses are used.
	Emails []string
}

func (m Message) Validate() error {
	if m.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "notification title is required")
	}
	if !m.Category.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid notification category")
	}
	return nil
}

// OutboundEmail is queued for asynchronous delivery.
type OutboundEmail struct {
	Subject  string   `json:"subject"`
	To       []string `json:"to"`
	HTMLBody string   `json:"html_body"`
}
