package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/samuelmuhia/booking-website/internal/clock"
	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/events"
	"github.com/samuelmuhia/booking-website/internal/inventory"
	"github.com/samuelmuhia/booking-website/internal/repo"
	"github.com/samuelmuhia/booking-website/internal/service"
)

// mockBookingRepo wraps a real BookingRepo. Set a function field to override
// one method; unset fields delegate to the wrapped repo.
type mockBookingRepo struct {
	repo.BookingRepo
	create        func(ctx context.Context, b domain.Booking) error
	markCancelled func(ctx context.Context, id uuid.UUID, at time.Time, refund, fee domain.Money) (domain.Booking, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, b domain.Booking) error {
	if m.create != nil {
		return m.create(ctx, b)
	}
	return m.BookingRepo.Create(ctx, b)
}

func (m *mockBookingRepo) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, refund, fee domain.Money) (domain.Booking, error) {
	if m.markCancelled != nil {
		return m.markCancelled(ctx, id, at, refund, fee)
	}
	return m.BookingRepo.MarkCancelled(ctx, id, at, refund, fee)
}

// mockInventory wraps the real inventory with an overridable CancelBooking.
type mockInventory struct {
	*inventory.Inventory
	cancelBooking func(bookingID uuid.UUID) ([]int, error)
}

func (m *mockInventory) CancelBooking(bookingID uuid.UUID) ([]int, error) {
	if m.cancelBooking != nil {
		return m.cancelBooking(bookingID)
	}
	return m.Inventory.CancelBooking(bookingID)
}

var _ service.SeatInventory = (*mockInventory)(nil)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var testStart = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

const testTTL = 10 * time.Minute

// harness is the booking core wired over in-memory stores and a fake clock.
type harness struct {
	clock     *clock.Fake
	trips     repo.TripRepo
	bookings  *mockBookingRepo
	seats     *mockInventory
	publisher *recordingPublisher
	catalog   *service.CatalogService
	ledger    *service.LedgerService
	sessions  *service.ReservationService
	query     *service.QueryService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:     clock.NewFake(testStart),
		bookings:  &mockBookingRepo{BookingRepo: repo.NewMemoryBookingRepo()},
		seats:     &mockInventory{Inventory: inventory.New()},
		publisher: &recordingPublisher{},
	}
	log := discardLogger()
	h.trips = repo.NewMemoryTripRepo(h.clock.Now)
	h.catalog = service.NewCatalogService(h.trips, h.seats, h.clock, log)
	h.ledger = service.NewLedgerService(h.bookings, h.seats, h.publisher, h.clock, log)
	h.sessions = service.NewReservationService(h.trips, h.seats, h.ledger, service.ReservationOptions{
		HoldTTL:   testTTL,
		Retention: time.Hour,
		Clock:     h.clock,
		Logger:    log,
	})
	h.query = service.NewQueryService(h.trips, h.seats, h.ledger)
	return h
}

func validTrip() domain.Trip {
	return domain.Trip{
		OperatorName:  "Modern Coast",
		Category:      domain.CategoryStandard,
		Origin:        "Nairobi",
		Destination:   "Mombasa",
		ServiceDate:   time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		DepartureTime: "08:00",
		ArrivalTime:   "16:00",
		Capacity:      40,
		BaseFare:      200,
	}
}

// publishTrip publishes validTrip with the given fare.
func (h *harness) publishTrip(t *testing.T, fare domain.Money) domain.Trip {
	t.Helper()
	trip := validTrip()
	trip.BaseFare = fare
	created, err := h.catalog.Publish(context.Background(), trip)
	require.NoError(t, err)
	return created
}

func passengers(n int) []domain.PassengerDetail {
	all := []domain.PassengerDetail{
		{Name: "A", Age: 30, Gender: domain.GenderMale},
		{Name: "B", Age: 25, Gender: domain.GenderFemale},
		{Name: "C", Age: 40, Gender: domain.GenderOther},
		{Name: "D", Age: 8, Gender: domain.GenderFemale},
	}
	return all[:n]
}

// book runs the full hold, attach, and confirm flow for user on trip.
func (h *harness) book(t *testing.T, user string, tripID uuid.UUID, seats ...int) domain.Booking {
	t.Helper()
	ctx := context.Background()
	sess, err := h.sessions.Open(ctx, user, tripID, seats)
	require.NoError(t, err)
	_, err = h.sessions.AttachPassengers(ctx, user, sess.ID, passengers(len(seats)))
	require.NoError(t, err)
	b, err := h.sessions.Confirm(ctx, user, sess.ID, domain.PaymentMpesa)
	require.NoError(t, err)
	return b
}

func (h *harness) seatStates(t *testing.T, tripID uuid.UUID, seats ...int) []domain.SeatState {
	t.Helper()
	snap, err := h.seats.Snapshot(tripID)
	require.NoError(t, err)
	out := make([]domain.SeatState, len(seats))
	for i, n := range seats {
		out[i] = snap[n-1].State
	}
	return out
}

func states(s domain.SeatState, n int) []domain.SeatState {
	out := make([]domain.SeatState, n)
	for i := range out {
		out[i] = s
	}
	return out
}
