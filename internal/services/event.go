package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventboard/internal/domain"
)

// editCutoff is the minimum distance between now and an event's scheduled
// time for the event to still be editable.
const editCutoff = 2 * time.Hour

type eventService struct {
	eventRepo      domain.EventRepository
	requestRepo    domain.RequestRepository
	userRepo       domain.UserRepository
	categoryRepo   domain.CategoryRepository
	locationRepo   domain.LocationRepository
	stats          domain.TelemetrySink
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given collaborators.
func NewEventService(
	eventRepo domain.EventRepository,
	requestRepo domain.RequestRepository,
	userRepo domain.UserRepository,
	categoryRepo domain.CategoryRepository,
	locationRepo domain.LocationRepository,
	stats domain.TelemetrySink,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		requestRepo:    requestRepo,
		userRepo:       userRepo,
		categoryRepo:   categoryRepo,
		locationRepo:   locationRepo,
		stats:          stats,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, ownerID string, draft *domain.NewEventDraft) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	exists, err := s.userRepo.ExistsByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	if _, err := s.categoryRepo.GetByID(ctx, draft.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	if time.Until(draft.EventDate) < editCutoff {
		return nil, fmt.Errorf("%w: event date must be at least 2 hours away", domain.ErrInvalidInput)
	}

	event := &domain.Event{
		Title:             draft.Title,
		Annotation:        draft.Annotation,
		Description:       draft.Description,
		CategoryID:        draft.CategoryID,
		InitiatorID:       ownerID,
		Location:          draft.Location,
		ParticipantLimit:  0,
		RequestModeration: true,
		State:             domain.EventPending,
		EventDate:         draft.EventDate,
		CreatedOn:         time.Now(),
	}
	if draft.Paid != nil {
		event.Paid = *draft.Paid
	}
	if draft.ParticipantLimit != nil {
		event.ParticipantLimit = *draft.ParticipantLimit
	}
	if draft.RequestModeration != nil {
		event.RequestModeration = *draft.RequestModeration
	}
	if err := s.saveLocation(ctx, event); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) OwnerUpdateEvent(ctx context.Context, ownerID, eventID string, patch *domain.EventPatch, action *domain.OwnerStateAction) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.InitiatorID != ownerID {
		return nil, fmt.Errorf("%w: user %s is not the initiator of event %s", domain.ErrConflict, ownerID, eventID)
	}
	if time.Until(event.EventDate) < editCutoff {
		return nil, fmt.Errorf("%w: less than 2 hours before the event starts", domain.ErrInvalidInput)
	}
	if event.State == domain.EventPublished {
		return nil, fmt.Errorf("%w: published events cannot be edited by the initiator", domain.ErrConflict)
	}

	if err := s.applyPatch(ctx, event, patch); err != nil {
		return nil, err
	}
	if action != nil {
		switch *action {
		case domain.OwnerPublishEvent:
			return nil, fmt.Errorf("%w: publication is an admin-only transition", domain.ErrConflict)
		case domain.OwnerRejectEvent, domain.OwnerCancelReview:
			event.State = domain.EventCanceled
		case domain.OwnerSendToReview:
			event.State = domain.EventPending
		default:
			return nil, domain.ErrInvalidInput
		}
	}
	if time.Until(event.EventDate) < editCutoff {
		return nil, fmt.Errorf("%w: less than 2 hours before the event starts", domain.ErrInvalidInput)
	}

	if err := s.saveLocation(ctx, event); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (s *eventService) AdminUpdateEvent(ctx context.Context, eventID string, patch *domain.EventPatch, action *domain.AdminStateAction) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if time.Until(event.EventDate) < editCutoff {
		return nil, fmt.Errorf("%w: less than 2 hours before the event starts", domain.ErrConflict)
	}
	if event.State != domain.EventPending {
		return nil, fmt.Errorf("%w: event is not pending review", domain.ErrConflict)
	}

	if err := s.applyPatch(ctx, event, patch); err != nil {
		return nil, err
	}
	if action != nil {
		switch *action {
		case domain.AdminPublishEvent:
			now := time.Now()
			event.State = domain.EventPublished
			event.PublishedOn = &now
		case domain.AdminRejectEvent:
			event.State = domain.EventCanceled
		default:
			return nil, domain.ErrInvalidInput
		}
	}
	if event.EventDate.Before(time.Now()) {
		return nil, fmt.Errorf("%w: event has already ended", domain.ErrInvalidInput)
	}

	if err := s.saveLocation(ctx, event); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListOwnerEvents(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	exists, err := s.userRepo.ExistsByID(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, 0, domain.ErrNotFound
	}
	events, total, err := s.eventRepo.ListByInitiatorID(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *eventService) GetOwnerEvent(ctx context.Context, ownerID, eventID string) (*domain.EventWithCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.InitiatorID != ownerID {
		return nil, fmt.Errorf("%w: user %s is not the initiator of event %s", domain.ErrConflict, ownerID, eventID)
	}
	return s.withConfirmedCount(ctx, event)
}

func (s *eventService) GetPublishedEvent(ctx context.Context, eventID, uri, ip string) (*domain.EventWithCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.stats.RecordHit(domain.StatsHit{URI: uri, IP: ip, Timestamp: time.Now()})

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.State != domain.EventPublished {
		return nil, domain.ErrNotFound
	}
	return s.withConfirmedCount(ctx, event)
}

func (s *eventService) withConfirmedCount(ctx context.Context, event *domain.Event) (*domain.EventWithCount, error) {
	confirmed, err := s.requestRepo.CountByEventAndStatuses(ctx, event.ID, []domain.RequestStatus{domain.RequestConfirmed})
	if err != nil {
		return nil, fmt.Errorf("count confirmed requests: %w", err)
	}
	return &domain.EventWithCount{Event: event, ConfirmedRequests: confirmed}, nil
}

func (s *eventService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) applyPatch(ctx context.Context, event *domain.Event, patch *domain.EventPatch) error {
	if patch == nil {
		return nil
	}
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Annotation != nil {
		event.Annotation = *patch.Annotation
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *patch.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get category: %w", err)
		}
		event.CategoryID = *patch.CategoryID
	}
	if patch.Location != nil {
		event.Location = patch.Location
	}
	if patch.Paid != nil {
		event.Paid = *patch.Paid
	}
	if patch.ParticipantLimit != nil {
		event.ParticipantLimit = *patch.ParticipantLimit
	}
	if patch.RequestModeration != nil {
		event.RequestModeration = *patch.RequestModeration
	}
	if patch.EventDate != nil {
		event.EventDate = *patch.EventDate
	}
	return nil
}

func (s *eventService) saveLocation(ctx context.Context, event *domain.Event) error {
	if event.Location == nil {
		return nil
	}
	if err := s.locationRepo.Save(ctx, event.Location); err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}
