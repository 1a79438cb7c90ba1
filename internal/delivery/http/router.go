package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventboard/internal/auth"
	"eventboard/internal/delivery/http/controllers"
	"eventboard/internal/delivery/http/middleware"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	eventController *controllers.EventController,
	requestController *controllers.RequestController,
	adminVerifier auth.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin(adminVerifier)

	// Owner surface
	mux.HandleFunc("POST /users/{userID}/events", eventController.CreateEvent)
	mux.HandleFunc("GET /users/{userID}/events", eventController.ListOwnerEvents)
	mux.HandleFunc("GET /users/{userID}/events/{eventID}", eventController.GetOwnerEvent)
	mux.HandleFunc("PATCH /users/{userID}/events/{eventID}", eventController.OwnerUpdateEvent)
	mux.HandleFunc("GET /users/{userID}/events/{eventID}/requests", requestController.ListEventRequests)
	mux.HandleFunc("PATCH /users/{userID}/events/{eventID}/requests", requestController.ModerateRequests)

	// Participant surface
	mux.HandleFunc("POST /users/{userID}/requests", requestController.CreateRequest)
	mux.HandleFunc("GET /users/{userID}/requests", requestController.ListUserRequests)
	mux.HandleFunc("PATCH /users/{userID}/requests/{requestID}/cancel", requestController.CancelRequest)

	// Admin surface
	mux.HandleFunc("PATCH /admin/events/{eventID}", admin(eventController.AdminUpdateEvent))

	// Public surface
	mux.HandleFunc("GET /events/{eventID}", eventController.GetPublishedEvent)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
