package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the inventory, repo, and service layers
// wraps exactly one of these, so handlers can map a failure to an HTTP status
// with errors.Is without knowing which operation produced it.
var (
	// ErrNotFound is returned when a trip, session, or booking does not exist.
	// Handlers should map this to HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the requested transition collides with the
	// current state (seat already held or booked, session already committed).
	// Handlers should map this to HTTP 409.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned when input fails business rule validation
	// (bad passenger field, seat count out of range, unknown enum value).
	// Handlers should map this to HTTP 422 Unprocessable Entity.
	ErrValidation = errors.New("validation error")

	// ErrExpired is returned when a reservation session is past its TTL.
	// Handlers should map this to HTTP 410 Gone.
	ErrExpired = errors.New("expired")

	// ErrAlreadyCancelled is returned when cancelling a booking that is
	// already cancelled. Handlers should map this to HTTP 409.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrUnauthorized is returned when credentials do not identify a user.
	// Handlers should map this to HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// Specific errors. Each wraps its kind, so both
// errors.Is(err, ErrSeatUnavailable) and errors.Is(err, ErrConflict) hold.
var (
	ErrTripNotFound    = fmt.Errorf("trip %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrAlreadyInitialized = fmt.Errorf("%w: seats already initialized for trip", ErrConflict)
	ErrSeatUnavailable    = fmt.Errorf("%w: seat unavailable", ErrConflict)
	ErrSessionCommitted   = fmt.Errorf("%w: session already committed", ErrConflict)
	ErrBookingNotActive   = fmt.Errorf("%w: booking is not confirmed", ErrConflict)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrSeatLimitExceeded          = fmt.Errorf("%w: seat limit exceeded", ErrValidation)
	ErrPassengerDetailInvalid     = fmt.Errorf("%w: invalid passenger detail", ErrValidation)
	ErrIncompletePassengerDetails = fmt.Errorf("%w: passenger details incomplete", ErrValidation)

	ErrSessionExpired = fmt.Errorf("session %w", ErrExpired)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)
