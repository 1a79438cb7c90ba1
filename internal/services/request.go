package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventboard/internal/domain"
)

type requestService struct {
	requestRepo    domain.RequestRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	ledger         CapacityLedger
	notifier       *DecisionNotifier
	contextTimeout time.Duration
}

// NewRequestService creates a RequestService. notifier may be nil, in which
// case moderation decisions are not announced by email.
func NewRequestService(
	requestRepo domain.RequestRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	notifier *DecisionNotifier,
	timeout time.Duration,
) domain.RequestService {
	return &requestService{
		requestRepo:    requestRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		contextTimeout: timeout,
	}
}

func (s *requestService) CreateRequest(ctx context.Context, requesterID, eventID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}

	var req *domain.ParticipationRequest
	err := s.requestRepo.WithEventLock(ctx, eventID, func(ctx context.Context, tx domain.AdmissionTx) error {
		event := tx.Event()
		if event.InitiatorID == requesterID {
			return fmt.Errorf("%w: the initiator cannot request participation in their own event", domain.ErrConflict)
		}
		if event.State != domain.EventPublished {
			return fmt.Errorf("%w: event is not published", domain.ErrConflict)
		}
		if _, err := tx.GetActiveByRequester(ctx, requesterID); err == nil {
			return fmt.Errorf("%w: a request for this event already exists", domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get active request: %w", err)
		}
		consumed, err := s.ledger.ConsumedCount(ctx, tx)
		if err != nil {
			return fmt.Errorf("count consumed capacity: %w", err)
		}
		if !s.ledger.HasRoom(event, consumed) {
			return fmt.Errorf("%w: participation limit exceeded", domain.ErrConflict)
		}

		req = &domain.ParticipationRequest{
			EventID:     eventID,
			RequesterID: requesterID,
			Status:      newRequestStatus(event),
			Created:     time.Now(),
		}
		if err := tx.Create(ctx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// newRequestStatus is the creation rule: unlimited events confirm
// immediately, unmoderated events accept immediately, everything else waits
// for moderation.
func newRequestStatus(event *domain.Event) domain.RequestStatus {
	if event.ParticipantLimit == 0 {
		return domain.RequestConfirmed
	}
	if !event.RequestModeration {
		return domain.RequestAccepted
	}
	return domain.RequestPending
}

func (s *requestService) CancelRequest(ctx context.Context, requesterID, requestID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req.RequesterID != requesterID {
		return nil, fmt.Errorf("%w: request does not belong to user %s", domain.ErrConflict, requesterID)
	}

	// Cancellation always succeeds, even for a confirmed request; the freed
	// slot becomes visible to the next admission decision's recount.
	req.Status = domain.RequestCanceled
	if err := s.requestRepo.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}
	return req, nil
}

func (s *requestService) ModerateRequests(ctx context.Context, ownerID, eventID string, requestIDs []string, target domain.RequestStatus) (*domain.RequestModerationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if target != domain.RequestConfirmed && target != domain.RequestRejected {
		return nil, fmt.Errorf("%w: target status must be CONFIRMED or REJECTED", domain.ErrInvalidInput)
	}

	result := &domain.RequestModerationResult{
		ConfirmedRequests: []*domain.ParticipationRequest{},
		RejectedRequests:  []*domain.ParticipationRequest{},
	}
	var event *domain.Event

	// overflowErr is set when the batch hits the participant limit. The
	// transaction still commits in that case: the mass rejection of the
	// remaining pending requests is a mandated side effect of the failed
	// batch, not a rollback.
	var overflowErr error

	err := s.requestRepo.WithEventLock(ctx, eventID, func(ctx context.Context, tx domain.AdmissionTx) error {
		event = tx.Event()
		if event.InitiatorID != ownerID {
			return fmt.Errorf("%w: user %s is not the initiator of event %s", domain.ErrConflict, ownerID, eventID)
		}
		reqs, err := s.loadBatch(ctx, tx, requestIDs)
		if err != nil {
			return err
		}
		consumed, err := s.ledger.ConsumedCount(ctx, tx)
		if err != nil {
			return fmt.Errorf("count consumed capacity: %w", err)
		}

		batch := make([]*domain.ParticipationRequest, 0, len(reqs))
		for _, req := range reqs {
			switch req.Status {
			case domain.RequestPending, domain.RequestConfirmed, domain.RequestRejected:
			default:
				return fmt.Errorf("%w: request %s has invalid status %s", domain.ErrInvalidInput, req.ID, req.Status)
			}

			if target == domain.RequestConfirmed && event.ParticipantLimit > 0 && consumed >= event.ParticipantLimit {
				overflowErr = fmt.Errorf("%w: participation limit exceeded", domain.ErrConflict)
				return s.rejectRemainingPending(ctx, tx)
			}
			if target == domain.RequestRejected && req.Status == domain.RequestConfirmed {
				return fmt.Errorf("%w: a confirmed request cannot be rejected through moderation", domain.ErrConflict)
			}

			req.Status = target
			if target == domain.RequestConfirmed {
				consumed++
				result.ConfirmedRequests = append(result.ConfirmedRequests, req)
			} else {
				result.RejectedRequests = append(result.RejectedRequests, req)
			}
			batch = append(batch, req)
		}
		if err := tx.SaveAll(ctx, batch); err != nil {
			return fmt.Errorf("save requests: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if overflowErr != nil {
		return nil, overflowErr
	}

	if s.notifier != nil {
		s.notifier.NotifyModerated(event, result)
	}
	return result, nil
}

// loadBatch loads the targeted requests and returns them in the order the
// ids were given. Any id that does not resolve to a request of this event
// fails the whole batch.
func (s *requestService) loadBatch(ctx context.Context, tx domain.AdmissionTx, requestIDs []string) ([]*domain.ParticipationRequest, error) {
	reqs, err := tx.ListByIDs(ctx, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	byID := make(map[string]*domain.ParticipationRequest, len(reqs))
	for _, req := range reqs {
		byID[req.ID] = req
	}
	ordered := make([]*domain.ParticipationRequest, 0, len(requestIDs))
	for _, id := range requestIDs {
		req, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: request %s not found for this event", domain.ErrInvalidInput, id)
		}
		ordered = append(ordered, req)
	}
	return ordered, nil
}

// rejectRemainingPending marks every still-pending request of the locked
// event REJECTED. The batch's own mutations are not persisted; only this
// cascade is, committed before the conflict surfaces.
func (s *requestService) rejectRemainingPending(ctx context.Context, tx domain.AdmissionTx) error {
	pending, err := tx.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending requests: %w", err)
	}
	for _, req := range pending {
		req.Status = domain.RequestRejected
	}
	if len(pending) == 0 {
		return nil
	}
	if err := tx.SaveAll(ctx, pending); err != nil {
		return fmt.Errorf("reject pending requests: %w", err)
	}
	return nil
}

func (s *requestService) ListEventRequests(ctx context.Context, ownerID, eventID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.InitiatorID != ownerID {
		return nil, fmt.Errorf("%w: user %s is not the initiator of event %s", domain.ErrConflict, ownerID, eventID)
	}
	reqs, err := s.requestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}

func (s *requestService) ListUserRequests(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	reqs, err := s.requestRepo.ListByRequesterID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}

func (s *requestService) requireUser(ctx context.Context, userID string) error {
	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}
