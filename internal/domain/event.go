package domain

import (
	"context"
	"time"
)

// EventState is the publication state of an event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// OwnerStateAction is a state action the event's initiator may request.
type OwnerStateAction string

const (
	OwnerRejectEvent  OwnerStateAction = "REJECT_EVENT"
	OwnerCancelReview OwnerStateAction = "CANCEL_REVIEW"
	OwnerSendToReview OwnerStateAction = "SEND_TO_REVIEW"
	// OwnerPublishEvent is accepted by the parser so the service can report
	// it as a conflict rather than a malformed action: owners may ask, but
	// publication is an admin-only transition.
	OwnerPublishEvent OwnerStateAction = "PUBLISH_EVENT"
)

// ParseOwnerStateAction maps a wire action string to an OwnerStateAction.
// Unknown strings return ErrInvalidInput.
func ParseOwnerStateAction(s string) (OwnerStateAction, error) {
	switch OwnerStateAction(s) {
	case OwnerRejectEvent, OwnerCancelReview, OwnerSendToReview, OwnerPublishEvent:
		return OwnerStateAction(s), nil
	}
	return "", ErrInvalidInput
}

// AdminStateAction is a state action an administrator may request.
type AdminStateAction string

const (
	AdminPublishEvent AdminStateAction = "PUBLISH_EVENT"
	AdminRejectEvent  AdminStateAction = "REJECT_EVENT"
)

// ParseAdminStateAction maps a wire action string to an AdminStateAction.
// Unknown strings return ErrInvalidInput.
func ParseAdminStateAction(s string) (AdminStateAction, error) {
	switch AdminStateAction(s) {
	case AdminPublishEvent, AdminRejectEvent:
		return AdminStateAction(s), nil
	}
	return "", ErrInvalidInput
}

// Location is a latitude/longitude pair attached to an event.
type Location struct {
	ID  string  `json:"id,omitempty"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event represents a user-organized event.
// Invariant: PublishedOn is non-nil iff State is PUBLISHED.
type Event struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	CategoryID        string     `json:"category_id"`
	InitiatorID       string     `json:"initiator_id"`
	Location          *Location  `json:"location,omitempty"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	RequestModeration bool       `json:"request_moderation"`
	State             EventState `json:"state"`
	EventDate         time.Time  `json:"event_date"`
	CreatedOn         time.Time  `json:"created_on"`
	PublishedOn       *time.Time `json:"published_on,omitempty"`
}

// NewEventDraft carries the fields for creating an event. Participant limit 0
// means unlimited capacity.
type NewEventDraft struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        string
	Location          *Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	EventDate         time.Time
}

// EventPatch is a partial update of an event. A nil field means the caller
// omitted it; the stored value stays untouched.
type EventPatch struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *string
	Location          *Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	EventDate         *time.Time
}

// EventWithCount bundles an event with the count of its confirmed requests.
type EventWithCount struct {
	Event             *Event `json:"event"`
	ConfirmedRequests int    `json:"confirmed_requests"`
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByInitiatorID(ctx context.Context, initiatorID string, params PaginationParams) ([]*Event, int, error)
	Save(ctx context.Context, event *Event) error
}

// EventService defines the event publication lifecycle operations.
type EventService interface {
	CreateEvent(ctx context.Context, ownerID string, draft *NewEventDraft) (*Event, error)
	OwnerUpdateEvent(ctx context.Context, ownerID, eventID string, patch *EventPatch, action *OwnerStateAction) (*Event, error)
	AdminUpdateEvent(ctx context.Context, eventID string, patch *EventPatch, action *AdminStateAction) (*Event, error)
	ListOwnerEvents(ctx context.Context, ownerID string, params PaginationParams) ([]*Event, int, error)
	GetOwnerEvent(ctx context.Context, ownerID, eventID string) (*EventWithCount, error)
	// GetPublishedEvent is the public detail view. It records a telemetry
	// hit for the given uri and ip and hides non-published events.
	GetPublishedEvent(ctx context.Context, eventID, uri, ip string) (*EventWithCount, error)
}
