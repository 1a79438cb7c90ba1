package controllers

import (
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"eventboard/internal/delivery/http/helpers"
	"eventboard/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// LocationDTO is a lat/lon pair in request bodies.
type LocationDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CreateEventRequest is the request body for POST /users/{userID}/events.
type CreateEventRequest struct {
	Title             string       `json:"title"`
	Annotation        string       `json:"annotation"`
	Description       string       `json:"description"`
	CategoryID        string       `json:"category_id"`
	Location          *LocationDTO `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participant_limit"`
	RequestModeration *bool        `json:"request_moderation"`
	EventDate         time.Time    `json:"event_date"`
}

// Validate implements helpers.Validator.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, "title is required")
	}
	if !uuidRegex.MatchString(r.CategoryID) {
		errs = append(errs, "category_id must be a UUID")
	}
	if r.EventDate.IsZero() {
		errs = append(errs, "event_date is required")
	}
	if r.ParticipantLimit != nil && *r.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

// UpdateEventRequest is the partial-update body for the owner and admin PATCH
// endpoints. Omitted fields leave the stored values untouched.
type UpdateEventRequest struct {
	Title             *string      `json:"title"`
	Annotation        *string      `json:"annotation"`
	Description       *string      `json:"description"`
	CategoryID        *string      `json:"category_id"`
	Location          *LocationDTO `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participant_limit"`
	RequestModeration *bool        `json:"request_moderation"`
	EventDate         *time.Time   `json:"event_date"`
	StateAction       *string      `json:"state_action"`
}

// Validate implements helpers.Validator.
func (r *UpdateEventRequest) Validate() []string {
	var errs []string
	if r.CategoryID != nil && !uuidRegex.MatchString(*r.CategoryID) {
		errs = append(errs, "category_id must be a UUID")
	}
	if r.ParticipantLimit != nil && *r.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

func (r *UpdateEventRequest) patch() *domain.EventPatch {
	p := &domain.EventPatch{
		Title:             r.Title,
		Annotation:        r.Annotation,
		Description:       r.Description,
		CategoryID:        r.CategoryID,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: r.RequestModeration,
		EventDate:         r.EventDate,
	}
	if r.Location != nil {
		p.Location = &domain.Location{Lat: r.Location.Lat, Lon: r.Location.Lon}
	}
	return p
}

// CreateEvent godoc
// @Summary Create an event draft
// @Description Creates a new event in PENDING state on behalf of the user in the path. The event date must be at least 2 hours away.
// @Tags events
// @Accept json
// @Produce json
// @Param userID path string true "Owner ID (UUID)"
// @Param body body controllers.CreateEventRequest true "Event draft"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	draft := &domain.NewEventDraft{
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: req.RequestModeration,
		EventDate:         req.EventDate,
	}
	if req.Location != nil {
		draft.Location = &domain.Location{Lat: req.Location.Lat, Lon: req.Location.Lon}
	}

	event, err := c.Service.CreateEvent(r.Context(), userID, draft)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListOwnerEvents godoc
// @Summary List the user's own events
// @Tags events
// @Produce json
// @Param userID path string true "Owner ID (UUID)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse
// @Router /users/{userID}/events [get]
func (c *EventController) ListOwnerEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListOwnerEvents(r.Context(), userID, params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]any{
		"events":     events,
		"pagination": helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetOwnerEvent godoc
// @Summary Get one of the user's own events with its confirmed request count
// @Tags events
// @Produce json
// @Param userID path string true "Owner ID (UUID)"
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /users/{userID}/events/{eventID} [get]
func (c *EventController) GetOwnerEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	ev, err := c.Service.GetOwnerEvent(r.Context(), userID, eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ev)
}

// OwnerUpdateEvent godoc
// @Summary Update the user's own pending event
// @Description Partial update plus an optional state action (SEND_TO_REVIEW, CANCEL_REVIEW, REJECT_EVENT). Fails once the event is published or starts within 2 hours.
// @Tags events
// @Accept json
// @Produce json
// @Param userID path string true "Owner ID (UUID)"
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.UpdateEventRequest true "Patch"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /users/{userID}/events/{eventID} [patch]
func (c *EventController) OwnerUpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var action *domain.OwnerStateAction
	if req.StateAction != nil {
		parsed, err := domain.ParseOwnerStateAction(*req.StateAction)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown state_action")
			return
		}
		action = &parsed
	}

	event, err := c.Service.OwnerUpdateEvent(r.Context(), userID, eventID, req.patch(), action)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// AdminUpdateEvent godoc
// @Summary Moderate a pending event
// @Description Partial update plus an optional state action (PUBLISH_EVENT, REJECT_EVENT). Publication stamps published_on.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.UpdateEventRequest true "Patch"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /admin/events/{eventID} [patch]
func (c *EventController) AdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var action *domain.AdminStateAction
	if req.StateAction != nil {
		parsed, err := domain.ParseAdminStateAction(*req.StateAction)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown state_action")
			return
		}
		action = &parsed
	}

	event, err := c.Service.AdminUpdateEvent(r.Context(), eventID, req.patch(), action)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetPublishedEvent godoc
// @Summary Get a published event
// @Description Public detail view. Records a telemetry hit; non-published events are reported as not found.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetPublishedEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	ev, err := c.Service.GetPublishedEvent(r.Context(), eventID, r.URL.Path, clientIP(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ev)
}

func (c *EventController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if helpers.WriteDomainError(w, err) {
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
}

// pathUUID reads and validates a UUID path value; on failure it writes a 400
// and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if !uuidRegex.MatchString(v) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return v, true
}

// clientIP returns the originating client address, preferring the first
// X-Forwarded-For entry when present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
