package domain

import "errors"

// Sentinel errors shared across services. Controllers map these to HTTP
// status codes; anything else is treated as an internal error.
var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the input was malformed or named an illegal action.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict means a business rule was violated: time-window breach,
	// capacity overflow, state or ownership mismatch, duplicate request.
	ErrConflict = errors.New("conflict")
)
