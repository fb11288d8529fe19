// Package handler implements the HTTP surface of the booking API.
// All handlers are methods on Server; routes are registered by Routes.
package handler

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/service"
)

// SessionServicer is the reservation workflow the handlers drive.
type SessionServicer interface {
	Open(ctx context.Context, userID string, tripID uuid.UUID, seats []int) (domain.ReservationSession, error)
	AttachPassengers(ctx context.Context, userID string, sessionID uuid.UUID, passengers []domain.PassengerDetail) (domain.ReservationSession, error)
	Confirm(ctx context.Context, userID string, sessionID uuid.UUID, method domain.PaymentMethod) (domain.Booking, error)
	Release(ctx context.Context, userID string, sessionID uuid.UUID) error
	Get(ctx context.Context, userID string, sessionID uuid.UUID) (domain.ReservationSession, error)
}

// BookingServicer is the ledger surface exposed to booking owners.
type BookingServicer interface {
	Get(ctx context.Context, userID string, bookingID uuid.UUID) (domain.Booking, error)
	Cancel(ctx context.Context, userID string, bookingID uuid.UUID) (domain.Refund, error)
	Ticket(ctx context.Context, userID string, bookingID uuid.UUID) (string, error)
}

// QueryServicer is the read-only facade.
type QueryServicer interface {
	SearchTrips(ctx context.Context, f domain.TripFilter, p domain.PageRequest) ([]service.TripAvailability, int64, error)
	GetTrip(ctx context.Context, tripID uuid.UUID) (service.TripAvailability, error)
	SeatMap(ctx context.Context, tripID uuid.UUID) ([]domain.Seat, error)
	ListBookings(ctx context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error)
}

// CatalogServicer publishes trips.
type CatalogServicer interface {
	Publish(ctx context.Context, trip domain.Trip) (domain.Trip, error)
}

// AuthServicer registers accounts and exchanges credentials for tokens.
type AuthServicer interface {
	Register(ctx context.Context, reg domain.Registration) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	sessions SessionServicer
	bookings BookingServicer
	query    QueryServicer
	catalog  CatalogServicer
	auth     AuthServicer
	log      *slog.Logger
}

// NewServer constructs the Server. A nil logger falls back to slog.Default.
func NewServer(sessions SessionServicer, bookings BookingServicer, query QueryServicer, catalog CatalogServicer, auth AuthServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		sessions: sessions,
		bookings: bookings,
		query:    query,
		catalog:  catalog,
		auth:     auth,
		log:      log,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil, nil)
}
