package domain

import (
	"context"
	"time"
)

// RequestStatus is the state of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestAccepted  RequestStatus = "ACCEPTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// CapacityConsumingStatuses are the statuses that count against an event's
// participant limit.
var CapacityConsumingStatuses = []RequestStatus{RequestConfirmed, RequestAccepted}

// ParseModerationStatus maps a wire status string to a bulk-moderation
// target. Only CONFIRMED and REJECTED are legal targets; anything else
// returns ErrInvalidInput.
func ParseModerationStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case RequestConfirmed, RequestRejected:
		return RequestStatus(s), nil
	}
	return "", ErrInvalidInput
}

// ParticipationRequest represents a third party's request to participate in
// an event. Requests are never deleted, only status-transitioned.
type ParticipationRequest struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	RequesterID string        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	Created     time.Time     `json:"created"`
}

// RequestModerationResult partitions a moderated batch by final status.
type RequestModerationResult struct {
	ConfirmedRequests []*ParticipationRequest `json:"confirmed_requests"`
	RejectedRequests  []*ParticipationRequest `json:"rejected_requests"`
}

// AdmissionTx is the transactional scope of one admission decision. All reads
// observe the same snapshot as the eventual write, and the event row stays
// locked until the transaction ends.
type AdmissionTx interface {
	// Event returns the event row as read under the lock.
	Event() *Event
	CountByStatuses(ctx context.Context, statuses ...RequestStatus) (int, error)
	ListByIDs(ctx context.Context, ids []string) ([]*ParticipationRequest, error)
	ListPending(ctx context.Context) ([]*ParticipationRequest, error)
	GetActiveByRequester(ctx context.Context, requesterID string) (*ParticipationRequest, error)
	Create(ctx context.Context, req *ParticipationRequest) error
	SaveAll(ctx context.Context, reqs []*ParticipationRequest) error
}

// RequestRepository defines the interface for participation request storage.
type RequestRepository interface {
	GetByID(ctx context.Context, id string) (*ParticipationRequest, error)
	ListByEventID(ctx context.Context, eventID string) ([]*ParticipationRequest, error)
	ListByRequesterID(ctx context.Context, requesterID string) ([]*ParticipationRequest, error)
	CountByEventAndStatuses(ctx context.Context, eventID string, statuses []RequestStatus) (int, error)
	Save(ctx context.Context, req *ParticipationRequest) error
	// WithEventLock runs fn inside a transaction that holds a row lock on
	// the event, serializing admission decisions per event. The transaction
	// commits when fn returns nil and rolls back otherwise. Returns
	// ErrNotFound when the event does not exist.
	WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx AdmissionTx) error) error
}

// RequestService defines participation request admission operations.
type RequestService interface {
	CreateRequest(ctx context.Context, requesterID, eventID string) (*ParticipationRequest, error)
	CancelRequest(ctx context.Context, requesterID, requestID string) (*ParticipationRequest, error)
	// ModerateRequests is the owner's bulk confirm/reject of pending
	// requests. target must be CONFIRMED or REJECTED.
	ModerateRequests(ctx context.Context, ownerID, eventID string, requestIDs []string, target RequestStatus) (*RequestModerationResult, error)
	ListEventRequests(ctx context.Context, ownerID, eventID string) ([]*ParticipationRequest, error)
	ListUserRequests(ctx context.Context, requesterID string) ([]*ParticipationRequest, error)
}
