package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samuelmuhia/booking-website/internal/clock"
	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/repo"
)

// CatalogService publishes trips and keeps the seat inventory in step with
// the catalog.
type CatalogService struct {
	trips repo.TripRepo
	seats SeatInventory
	clock clock.Clock
	log   *slog.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(trips repo.TripRepo, seats SeatInventory, clk clock.Clock, log *slog.Logger) *CatalogService {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = slog.Default()
	}
	return &CatalogService{trips: trips, seats: seats, clock: clk, log: log}
}

// Publish validates trip, stores it, and initializes its seats.
func (s *CatalogService) Publish(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	ctx, span := startSpan(ctx, "CatalogService.Publish")
	defer span.End()

	trip = normalizeTrip(trip)
	if err := trip.Validate(); err != nil {
		return domain.Trip{}, recordErr(span, fmt.Errorf("service.CatalogService.Publish: %w", err))
	}

	created, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, recordErr(span, fmt.Errorf("service.CatalogService.Publish: %w", err))
	}
	if err := s.seats.Initialize(created); err != nil {
		return domain.Trip{}, recordErr(span, fmt.Errorf("service.CatalogService.Publish: %w", err))
	}

	s.log.InfoContext(ctx, "trip published",
		"trip_id", created.ID, "origin", created.Origin, "destination", created.Destination,
		"service_date", created.ServiceDateString(), "capacity", created.Capacity)
	return created, nil
}

// SeedDemo publishes a small set of routes when the catalog is empty and
// reports how many were added.
func (s *CatalogService) SeedDemo(ctx context.Context) (int, error) {
	existing, err := s.trips.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.CatalogService.SeedDemo: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	added := 0
	for day := 0; day < 3; day++ {
		date := today.AddDate(0, 0, day+1)
		for _, t := range demoTrips {
			t.ServiceDate = date
			if _, err := s.Publish(ctx, t); err != nil {
				return added, fmt.Errorf("service.CatalogService.SeedDemo: %w", err)
			}
			added++
		}
	}
	return added, nil
}

var demoTrips = []domain.Trip{
	{OperatorName: "Modern Coast", Category: domain.CategoryLuxury, Origin: "Nairobi", Destination: "Mombasa",
		DepartureTime: "08:00", ArrivalTime: "16:00", Capacity: 40, BaseFare: 150000},
	{OperatorName: "Easy Coach", Category: domain.CategoryStandard, Origin: "Nairobi", Destination: "Kisumu",
		DepartureTime: "07:30", ArrivalTime: "14:30", Capacity: 36, BaseFare: 120000},
	{OperatorName: "Mash Poa", Category: domain.CategoryStandard, Origin: "Mombasa", Destination: "Nairobi",
		DepartureTime: "21:00", ArrivalTime: "05:30", Capacity: 40, BaseFare: 140000},
	{OperatorName: "Guardian Angel", Category: domain.CategoryLuxury, Origin: "Nairobi", Destination: "Eldoret",
		DepartureTime: "09:15", ArrivalTime: "14:45", Capacity: 30, BaseFare: 100000},
}

func normalizeTrip(t domain.Trip) domain.Trip {
	t.OperatorName = strings.TrimSpace(t.OperatorName)
	t.Origin = strings.TrimSpace(t.Origin)
	t.Destination = strings.TrimSpace(t.Destination)
	if !t.ServiceDate.IsZero() {
		y, m, d := t.ServiceDate.Date()
		t.ServiceDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Bootstrap rebuilds seat state at startup: every catalog trip gets a seat
// map and every Confirmed booking's seats are marked Booked again.
func Bootstrap(ctx context.Context, trips repo.TripRepo, bookings repo.BookingRepo, seats SeatInventory, log *slog.Logger) error {
	all, err := trips.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("service.Bootstrap: %w", err)
	}
	for _, t := range all {
		if err := seats.Initialize(t); err != nil && !errors.Is(err, domain.ErrAlreadyInitialized) {
			return fmt.Errorf("service.Bootstrap: trip %s: %w", t.ID, err)
		}
	}

	confirmed, err := bookings.ListConfirmed(ctx)
	if err != nil {
		return fmt.Errorf("service.Bootstrap: %w", err)
	}
	for _, b := range confirmed {
		if err := seats.Restore(b.TripID, b.ID, b.Seats); err != nil {
			return fmt.Errorf("service.Bootstrap: booking %s: %w", b.ID, err)
		}
	}

	log.InfoContext(ctx, "seat inventory restored", "trips", len(all), "bookings", len(confirmed))
	return nil
}
