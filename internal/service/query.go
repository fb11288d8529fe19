package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/repo"
)

// TripAvailability is a trip with its current number of Available seats.
type TripAvailability struct {
	Trip           domain.Trip
	AvailableSeats int
}

// QueryService is the read-only facade over the catalog, the seat inventory,
// and the ledger. It never mutates state.
type QueryService struct {
	trips  repo.TripRepo
	seats  SeatInventory
	ledger *LedgerService
}

// NewQueryService constructs a QueryService.
func NewQueryService(trips repo.TripRepo, seats SeatInventory, ledger *LedgerService) *QueryService {
	return &QueryService{trips: trips, seats: seats, ledger: ledger}
}

// SearchTrips returns one page of trips matching f, each with its available
// seat count, plus the total number of matches.
func (s *QueryService) SearchTrips(ctx context.Context, f domain.TripFilter, p domain.PageRequest) ([]TripAvailability, int64, error) {
	ctx, span := startSpan(ctx, "QueryService.SearchTrips")
	defer span.End()

	trips, total, err := s.trips.Search(ctx, f, p)
	if err != nil {
		return nil, 0, recordErr(span, fmt.Errorf("service.QueryService.SearchTrips: %w", err))
	}

	out := make([]TripAvailability, 0, len(trips))
	for _, t := range trips {
		counts, err := s.seats.Counts(t.ID)
		if err != nil {
			return nil, 0, recordErr(span, fmt.Errorf("service.QueryService.SearchTrips: trip %s: %w", t.ID, err))
		}
		out = append(out, TripAvailability{Trip: t, AvailableSeats: counts.Available})
	}
	return out, total, nil
}

// GetTrip returns one trip with its available seat count.
func (s *QueryService) GetTrip(ctx context.Context, tripID uuid.UUID) (TripAvailability, error) {
	ctx, span := startSpan(ctx, "QueryService.GetTrip")
	defer span.End()

	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return TripAvailability{}, recordErr(span, fmt.Errorf("service.QueryService.GetTrip: %w", err))
	}
	counts, err := s.seats.Counts(t.ID)
	if err != nil {
		return TripAvailability{}, recordErr(span, fmt.Errorf("service.QueryService.GetTrip: %w", err))
	}
	return TripAvailability{Trip: t, AvailableSeats: counts.Available}, nil
}

// SeatMap returns every seat of tripID with its tier and state.
func (s *QueryService) SeatMap(ctx context.Context, tripID uuid.UUID) ([]domain.Seat, error) {
	ctx, span := startSpan(ctx, "QueryService.SeatMap")
	defer span.End()

	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, recordErr(span, fmt.Errorf("service.QueryService.SeatMap: %w", err))
	}
	seats, err := s.seats.Snapshot(tripID)
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("service.QueryService.SeatMap: %w", err))
	}
	return seats, nil
}

// ListBookings returns one page of userID's bookings, newest first.
func (s *QueryService) ListBookings(ctx context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error) {
	return s.ledger.ListByUser(ctx, userID, p)
}
