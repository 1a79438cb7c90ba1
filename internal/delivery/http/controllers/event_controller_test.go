package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventboard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger so the tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID    = "11111111-1111-1111-1111-111111111111"
	testEventID   = "22222222-2222-2222-2222-222222222222"
	testRequestID = "33333333-3333-3333-3333-333333333333"
	testCatID     = "44444444-4444-4444-4444-444444444444"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err   error
	event *domain.Event
	view  *domain.EventWithCount

	events []*domain.Event
	total  int

	lastOwnerID     string
	lastEventID     string
	lastDraft       *domain.NewEventDraft
	lastPatch       *domain.EventPatch
	lastOwnerAction *domain.OwnerStateAction
	lastAdminAction *domain.AdminStateAction
	lastURI         string
	lastIP          string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, ownerID string, draft *domain.NewEventDraft) (*domain.Event, error) {
	f.lastOwnerID = ownerID
	f.lastDraft = draft
	return f.event, f.err
}

func (f *fakeEventService) OwnerUpdateEvent(ctx context.Context, ownerID, eventID string, patch *domain.EventPatch, action *domain.OwnerStateAction) (*domain.Event, error) {
	f.lastOwnerID = ownerID
	f.lastEventID = eventID
	f.lastPatch = patch
	f.lastOwnerAction = action
	return f.event, f.err
}

func (f *fakeEventService) AdminUpdateEvent(ctx context.Context, eventID string, patch *domain.EventPatch, action *domain.AdminStateAction) (*domain.Event, error) {
	f.lastEventID = eventID
	f.lastPatch = patch
	f.lastAdminAction = action
	return f.event, f.err
}

func (f *fakeEventService) ListOwnerEvents(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastOwnerID = ownerID
	return f.events, f.total, f.err
}

func (f *fakeEventService) GetOwnerEvent(ctx context.Context, ownerID, eventID string) (*domain.EventWithCount, error) {
	f.lastOwnerID = ownerID
	f.lastEventID = eventID
	return f.view, f.err
}

func (f *fakeEventService) GetPublishedEvent(ctx context.Context, eventID, uri, ip string) (*domain.EventWithCount, error) {
	f.lastEventID = eventID
	f.lastURI = uri
	f.lastIP = ip
	return f.view, f.err
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeEnvelope(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error object, got %v", body)
	return errObj["code"].(string)
}

func TestEventController_CreateEvent(t *testing.T) {
	eventDate := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	t.Run("created", func(t *testing.T) {
		svc := &fakeEventService{event: &domain.Event{ID: testEventID, State: domain.EventPending}}
		c := NewEventController(testLogger, svc)

		payload := map[string]any{
			"title":       "meetup",
			"category_id": testCatID,
			"event_date":  eventDate,
			"location":    map[string]any{"lat": 55.75, "lon": 37.62},
		}
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, "/users/"+testUserID+"/events", bytes.NewReader(body))
		req.SetPathValue("userID", testUserID)
		rec := httptest.NewRecorder()

		c.CreateEvent(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, testUserID, svc.lastOwnerID)
		require.NotNil(t, svc.lastDraft)
		assert.Equal(t, "meetup", svc.lastDraft.Title)
		require.NotNil(t, svc.lastDraft.Location)
		assert.Equal(t, 55.75, svc.lastDraft.Location.Lat)
		assert.True(t, svc.lastDraft.EventDate.Equal(eventDate))
	})

	t.Run("validation failure", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{})

		body, _ := json.Marshal(map[string]any{"title": "  ", "category_id": "nope"})
		req := httptest.NewRequest(http.MethodPost, "/users/"+testUserID+"/events", bytes.NewReader(body))
		req.SetPathValue("userID", testUserID)
		rec := httptest.NewRecorder()

		c.CreateEvent(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", errorCode(t, rec))
	})

	t.Run("malformed user id", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{})

		req := httptest.NewRequest(http.MethodPost, "/users/not-a-uuid/events", bytes.NewReader([]byte(`{}`)))
		req.SetPathValue("userID", "not-a-uuid")
		rec := httptest.NewRecorder()

		c.CreateEvent(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service error mapping", func(t *testing.T) {
		svc := &fakeEventService{err: domain.ErrNotFound}
		c := NewEventController(testLogger, svc)

		payload := map[string]any{"title": "meetup", "category_id": testCatID, "event_date": eventDate}
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, "/users/"+testUserID+"/events", bytes.NewReader(body))
		req.SetPathValue("userID", testUserID)
		rec := httptest.NewRecorder()

		c.CreateEvent(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", errorCode(t, rec))
	})
}

func TestEventController_OwnerUpdateEvent(t *testing.T) {
	t.Run("patch with state action", func(t *testing.T) {
		svc := &fakeEventService{event: &domain.Event{ID: testEventID, State: domain.EventCanceled}}
		c := NewEventController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"title": "renamed", "state_action": "CANCEL_REVIEW"})
		req := httptest.NewRequest(http.MethodPatch, "/users/"+testUserID+"/events/"+testEventID, bytes.NewReader(body))
		req.SetPathValue("userID", testUserID)
		req.SetPathValue("eventID", testEventID)
		rec := httptest.NewRecorder()

		c.OwnerUpdateEvent(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.lastPatch)
		require.NotNil(t, svc.lastPatch.Title)
		assert.Equal(t, "renamed", *svc.lastPatch.Title)
		assert.Nil(t, svc.lastPatch.Annotation)
		require.NotNil(t, svc.lastOwnerAction)
		assert.Equal(t, domain.OwnerCancelReview, *svc.lastOwnerAction)
	})

	t.Run("unknown state action", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{})

		body, _ := json.Marshal(map[string]any{"state_action": "EXPLODE"})
		req := httptest.NewRequest(http.MethodPatch, "/users/"+testUserID+"/events/"+testEventID, bytes.NewReader(body))
		req.SetPathValue("userID", testUserID)
		req.SetPathValue("eventID", testEventID)
		rec := httptest.NewRecorder()

		c.OwnerUpdateEvent(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict from the service", func(t *testing.T) {
		svc := &fakeEventService{err: domain.ErrConflict}
		c := NewEventController(testLogger, svc)

		req := httptest.NewRequest(http.MethodPatch, "/users/"+testUserID+"/events/"+testEventID, bytes.NewReader([]byte(`{}`)))
		req.SetPathValue("userID", testUserID)
		req.SetPathValue("eventID", testEventID)
		rec := httptest.NewRecorder()

		c.OwnerUpdateEvent(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", errorCode(t, rec))
	})
}

func TestEventController_AdminUpdateEvent(t *testing.T) {
	t.Run("publish", func(t *testing.T) {
		now := time.Now()
		svc := &fakeEventService{event: &domain.Event{ID: testEventID, State: domain.EventPublished, PublishedOn: &now}}
		c := NewEventController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"state_action": "PUBLISH_EVENT"})
		req := httptest.NewRequest(http.MethodPatch, "/admin/events/"+testEventID, bytes.NewReader(body))
		req.SetPathValue("eventID", testEventID)
		rec := httptest.NewRecorder()

		c.AdminUpdateEvent(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.lastAdminAction)
		assert.Equal(t, domain.AdminPublishEvent, *svc.lastAdminAction)
	})

	t.Run("owner-only action is unknown to the admin endpoint", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{})

		body, _ := json.Marshal(map[string]any{"state_action": "SEND_TO_REVIEW"})
		req := httptest.NewRequest(http.MethodPatch, "/admin/events/"+testEventID, bytes.NewReader(body))
		req.SetPathValue("eventID", testEventID)
		rec := httptest.NewRecorder()

		c.AdminUpdateEvent(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEventController_GetPublishedEvent(t *testing.T) {
	t.Run("passes uri and client ip", func(t *testing.T) {
		svc := &fakeEventService{view: &domain.EventWithCount{Event: &domain.Event{ID: testEventID}, ConfirmedRequests: 4}}
		c := NewEventController(testLogger, svc)

		req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID, nil)
		req.SetPathValue("eventID", testEventID)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()

		c.GetPublishedEvent(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/events/"+testEventID, svc.lastURI)
		assert.Equal(t, "203.0.113.7", svc.lastIP)

		body := decodeEnvelope(t, rec)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(4), data["confirmed_requests"])
	})

	t.Run("not published reads as not found", func(t *testing.T) {
		svc := &fakeEventService{err: domain.ErrNotFound}
		c := NewEventController(testLogger, svc)

		req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID, nil)
		req.SetPathValue("eventID", testEventID)
		rec := httptest.NewRecorder()

		c.GetPublishedEvent(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEventController_ListOwnerEvents(t *testing.T) {
	svc := &fakeEventService{
		events: []*domain.Event{{ID: testEventID}},
		total:  7,
	}
	c := NewEventController(testLogger, svc)

	req := httptest.NewRequest(http.MethodGet, "/users/"+testUserID+"/events?page=2&page_size=5", nil)
	req.SetPathValue("userID", testUserID)
	rec := httptest.NewRecorder()

	c.ListOwnerEvents(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]any)
	pagination := data["pagination"].(map[string]any)
	assert.Equal(t, float64(7), pagination["total"])
	assert.Equal(t, float64(2), pagination["page"])
}
