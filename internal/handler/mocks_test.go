package handler_test

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

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/handler"
	"github.com/samuelmuhia/booking-website/internal/middleware"
	"github.com/samuelmuhia/booking-website/internal/service"
)

// Hand-written doubles for the handler's consumer interfaces.
// Set only the method fields a test needs.

type mockSessions struct {
	open             func(ctx context.Context, userID string, tripID uuid.UUID, seats []int) (domain.ReservationSession, error)
	attachPassengers func(ctx context.Context, userID string, id uuid.UUID, p []domain.PassengerDetail) (domain.ReservationSession, error)
	confirm          func(ctx context.Context, userID string, id uuid.UUID, m domain.PaymentMethod) (domain.Booking, error)
	release          func(ctx context.Context, userID string, id uuid.UUID) error
	get              func(ctx context.Context, userID string, id uuid.UUID) (domain.ReservationSession, error)
}

func (m *mockSessions) Open(ctx context.Context, userID string, tripID uuid.UUID, seats []int) (domain.ReservationSession, error) {
	return m.open(ctx, userID, tripID, seats)
}
func (m *mockSessions) AttachPassengers(ctx context.Context, userID string, id uuid.UUID, p []domain.PassengerDetail) (domain.ReservationSession, error) {
	return m.attachPassengers(ctx, userID, id, p)
}
func (m *mockSessions) Confirm(ctx context.Context, userID string, id uuid.UUID, method domain.PaymentMethod) (domain.Booking, error) {
	return m.confirm(ctx, userID, id, method)
}
func (m *mockSessions) Release(ctx context.Context, userID string, id uuid.UUID) error {
	return m.release(ctx, userID, id)
}
func (m *mockSessions) Get(ctx context.Context, userID string, id uuid.UUID) (domain.ReservationSession, error) {
	return m.get(ctx, userID, id)
}

type mockBookings struct {
	get    func(ctx context.Context, userID string, id uuid.UUID) (domain.Booking, error)
	cancel func(ctx context.Context, userID string, id uuid.UUID) (domain.Refund, error)
	ticket func(ctx context.Context, userID string, id uuid.UUID) (string, error)
}

func (m *mockBookings) Get(ctx context.Context, userID string, id uuid.UUID) (domain.Booking, error) {
	return m.get(ctx, userID, id)
}
func (m *mockBookings) Cancel(ctx context.Context, userID string, id uuid.UUID) (domain.Refund, error) {
	return m.cancel(ctx, userID, id)
}
func (m *mockBookings) Ticket(ctx context.Context, userID string, id uuid.UUID) (string, error) {
	return m.ticket(ctx, userID, id)
}

type mockQuery struct {
	searchTrips  func(ctx context.Context, f domain.TripFilter, p domain.PageRequest) ([]service.TripAvailability, int64, error)
	getTrip      func(ctx context.Context, id uuid.UUID) (service.TripAvailability, error)
	seatMap      func(ctx context.Context, tripID uuid.UUID) ([]domain.Seat, error)
	listBookings func(ctx context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error)
}

func (m *mockQuery) SearchTrips(ctx context.Context, f domain.TripFilter, p domain.PageRequest) ([]service.TripAvailability, int64, error) {
	return m.searchTrips(ctx, f, p)
}
func (m *mockQuery) GetTrip(ctx context.Context, id uuid.UUID) (service.TripAvailability, error) {
	return m.getTrip(ctx, id)
}
func (m *mockQuery) SeatMap(ctx context.Context, tripID uuid.UUID) ([]domain.Seat, error) {
	return m.seatMap(ctx, tripID)
}
func (m *mockQuery) ListBookings(ctx context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error) {
	return m.listBookings(ctx, userID, p)
}

type mockCatalog struct {
	publish func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
}

func (m *mockCatalog) Publish(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.publish(ctx, trip)
}

type mockAuth struct {
	register func(ctx context.Context, reg domain.Registration) (service.AuthResult, error)
	login    func(ctx context.Context, email, password string) (service.AuthResult, error)
}

func (m *mockAuth) Register(ctx context.Context, reg domain.Registration) (service.AuthResult, error) {
	return m.register(ctx, reg)
}
func (m *mockAuth) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	return m.login(ctx, email, password)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.SessionServicer = (*mockSessions)(nil)
	_ handler.BookingServicer = (*mockBookings)(nil)
	_ handler.QueryServicer   = (*mockQuery)(nil)
	_ handler.CatalogServicer = (*mockCatalog)(nil)
	_ handler.AuthServicer    = (*mockAuth)(nil)
)

// ---- helpers ---------------------------------------------------------------

var testSecret = []byte("handler-test-secret")

type deps struct {
	sessions handler.SessionServicer
	bookings handler.BookingServicer
	query    handler.QueryServicer
	catalog  handler.CatalogServicer
	auth     handler.AuthServicer
}

// newHTTPHandler wires a Server with the given mocks the way main.go does.
func newHTTPHandler(d deps) http.Handler {
	if d.sessions == nil {
		d.sessions = &mockSessions{}
	}
	if d.bookings == nil {
		d.bookings = &mockBookings{}
	}
	if d.query == nil {
		d.query = &mockQuery{}
	}
	if d.catalog == nil {
		d.catalog = &mockCatalog{}
	}
	if d.auth == nil {
		d.auth = &mockAuth{}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := handler.NewServer(d.sessions, d.bookings, d.query, d.catalog, d.auth, log)
	return srv.Routes(handler.RouteOptions{
		Authenticate: middleware.NewAuthenticator(testSecret),
		OpenAPI:      []byte("openapi: 3.0.3\n"),
	})
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// do sends a request as userID (anonymous when empty) and returns the recorder.
func do(t *testing.T, h http.Handler, method, target, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doAs(t, h, method, target, userID, "", body)
}

func doAs(t *testing.T, h http.Handler, method, target, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", bearer(t, userID, role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var serviceDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:            uuid.New(),
		OperatorName:  "Modern Coast",
		Category:      domain.CategoryLuxury,
		Origin:        "Nairobi",
		Destination:   "Mombasa",
		ServiceDate:   serviceDate,
		DepartureTime: "08:00",
		ArrivalTime:   "16:00",
		Capacity:      40,
		BaseFare:      150000,
		CreatedAt:     time.Now().UTC(),
	}
}

func bookingFixture(userID string) domain.Booking {
	trip := tripFixture()
	return domain.Booking{
		ID:     uuid.New(),
		UserID: userID,
		TripID: trip.ID,
		Trip:   domain.SnapshotOf(trip),
		Seats:  []int{3, 5},
		Passengers: []domain.PassengerDetail{
			{Name: "Amina", Age: 30, Gender: domain.GenderFemale, SeatNumber: 3},
			{Name: "Brian", Age: 12, Gender: domain.GenderMale, SeatNumber: 5},
		},
		UnitFare:      150000,
		TotalPrice:    300000,
		PaymentMethod: domain.PaymentMpesa,
		Status:        domain.BookingConfirmed,
		CreatedAt:     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}
