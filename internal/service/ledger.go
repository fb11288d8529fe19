package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samuelmuhia/booking-website/internal/clock"
	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/events"
	"github.com/samuelmuhia/booking-website/internal/repo"
)

// LedgerService is the booking ledger: it records confirmed bookings and
// applies cancellations with the flat refund policy.
type LedgerService struct {
	bookings  repo.BookingRepo
	seats     SeatInventory
	publisher events.Publisher
	clock     clock.Clock
	log       *slog.Logger
}

// NewLedgerService constructs a LedgerService. A nil publisher disables
// lifecycle events.
func NewLedgerService(bookings repo.BookingRepo, seats SeatInventory, publisher events.Publisher, clk clock.Clock, log *slog.Logger) *LedgerService {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = slog.Default()
	}
	return &LedgerService{bookings: bookings, seats: seats, publisher: publisher, clock: clk, log: log}
}

// CommitBooking persists a Confirmed booking for session on trip. The
// session's seats must already be Booked under bookingID in the inventory.
// The total is the number of seats times the trip's base fare.
func (s *LedgerService) CommitBooking(ctx context.Context, session domain.ReservationSession, trip domain.Trip,
	bookingID uuid.UUID, method domain.PaymentMethod) (domain.Booking, error) {
	ctx, span := startSpan(ctx, "LedgerService.CommitBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))

	b := domain.Booking{
		ID:            bookingID,
		UserID:        session.UserID,
		TripID:        trip.ID,
		Trip:          domain.SnapshotOf(trip),
		Seats:         session.Seats,
		Passengers:    session.Passengers,
		UnitFare:      trip.BaseFare,
		TotalPrice:    trip.BaseFare.Times(len(session.Seats)),
		PaymentMethod: method,
		Status:        domain.BookingConfirmed,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.LedgerService.CommitBooking: %w", err))
	}

	s.log.InfoContext(ctx, "booking confirmed",
		"booking_id", b.ID, "trip_id", b.TripID, "user_id", b.UserID, "total", b.TotalPrice.String())
	s.publish(ctx, events.BookingConfirmed, b)
	return b, nil
}

// Cancel cancels a Confirmed booking owned by userID and releases its seats.
// The status change and the seat release either both happen or neither does.
func (s *LedgerService) Cancel(ctx context.Context, userID string, bookingID uuid.UUID) (domain.Refund, error) {
	ctx, span := startSpan(ctx, "LedgerService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))

	b, err := s.owned(ctx, userID, bookingID)
	if err != nil {
		return domain.Refund{}, recordErr(span, fmt.Errorf("service.LedgerService.Cancel: %w", err))
	}
	if b.Status == domain.BookingCancelled {
		return domain.Refund{}, recordErr(span, fmt.Errorf("service.LedgerService.Cancel: %w", domain.ErrAlreadyCancelled))
	}

	refund, fee := domain.CancellationRefund(b.TotalPrice)
	cancelled, err := s.bookings.MarkCancelled(ctx, bookingID, s.clock.Now(), refund, fee)
	if err != nil {
		return domain.Refund{}, recordErr(span, fmt.Errorf("service.LedgerService.Cancel: %w", err))
	}

	if _, err := s.seats.CancelBooking(bookingID); err != nil {
		if rerr := s.bookings.RevertCancellation(ctx, bookingID); rerr != nil {
			s.log.ErrorContext(ctx, "revert cancellation failed", "booking_id", bookingID, "error", rerr)
		}
		return domain.Refund{}, recordErr(span, fmt.Errorf("service.LedgerService.Cancel: %w", err))
	}

	s.log.InfoContext(ctx, "booking cancelled",
		"booking_id", bookingID, "refund", refund.String(), "fee", fee.String())
	s.publish(ctx, events.BookingCancelled, cancelled)
	return domain.Refund{BookingID: bookingID, RefundAmount: refund, FeeAmount: fee}, nil
}

// ListByUser returns one page of userID's bookings, newest first.
func (s *LedgerService) ListByUser(ctx context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error) {
	ctx, span := startSpan(ctx, "LedgerService.ListByUser")
	defer span.End()

	bookings, total, err := s.bookings.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, 0, recordErr(span, fmt.Errorf("service.LedgerService.ListByUser: %w", err))
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, total, nil
}

// Get returns a booking owned by userID.
func (s *LedgerService) Get(ctx context.Context, userID string, bookingID uuid.UUID) (domain.Booking, error) {
	ctx, span := startSpan(ctx, "LedgerService.Get")
	defer span.End()

	b, err := s.owned(ctx, userID, bookingID)
	if err != nil {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.LedgerService.Get: %w", err))
	}
	return b, nil
}

// Ticket renders the plain-text ticket of a Confirmed booking.
func (s *LedgerService) Ticket(ctx context.Context, userID string, bookingID uuid.UUID) (string, error) {
	ctx, span := startSpan(ctx, "LedgerService.Ticket")
	defer span.End()

	b, err := s.owned(ctx, userID, bookingID)
	if err != nil {
		return "", recordErr(span, fmt.Errorf("service.LedgerService.Ticket: %w", err))
	}
	if b.Status != domain.BookingConfirmed {
		return "", recordErr(span, fmt.Errorf("service.LedgerService.Ticket: %w", domain.ErrBookingNotActive))
	}
	return RenderTicket(b), nil
}

// owned loads a booking and hides it from anyone but its owner.
func (s *LedgerService) owned(ctx context.Context, userID string, bookingID uuid.UUID) (domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.UserID != userID {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s *LedgerService) publish(ctx context.Context, typ events.Type, b domain.Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.FromBooking(typ, b, s.clock.Now())); err != nil {
		s.log.WarnContext(ctx, "publish booking event failed", "type", typ, "booking_id", b.ID, "error", err)
	}
}
