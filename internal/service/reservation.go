package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samuelmuhia/booking-website/internal/clock"
	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/repo"
)

// BookingCommitter persists a booking for a session whose seats have just
// been committed in the inventory. *LedgerService satisfies it.
type BookingCommitter interface {
	CommitBooking(ctx context.Context, session domain.ReservationSession, trip domain.Trip,
		bookingID uuid.UUID, method domain.PaymentMethod) (domain.Booking, error)
}

// ReservationOptions tunes a ReservationService. Zero values take defaults.
type ReservationOptions struct {
	HoldTTL   time.Duration
	Retention time.Duration
	Clock     clock.Clock
	NewID     func() uuid.UUID
	Logger    *slog.Logger
}

type sessionEntry struct {
	mu sync.Mutex
	s  domain.ReservationSession
}

// ReservationService owns the lifecycle of reservation sessions.
//
// Sessions live in memory. Each session has its own mutex; the index is
// guarded by an RWMutex that is never held across inventory or ledger calls.
type ReservationService struct {
	trips     repo.TripRepo
	seats     SeatInventory
	ledger    BookingCommitter
	clock     clock.Clock
	newID     func() uuid.UUID
	ttl       time.Duration
	retention time.Duration
	log       *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
}

// NewReservationService constructs a ReservationService.
func NewReservationService(trips repo.TripRepo, seats SeatInventory, ledger BookingCommitter, opts ReservationOptions) *ReservationService {
	s := &ReservationService{
		trips:     trips,
		seats:     seats,
		ledger:    ledger,
		clock:     opts.Clock,
		newID:     opts.NewID,
		ttl:       opts.HoldTTL,
		retention: opts.Retention,
		log:       opts.Logger,
		sessions:  make(map[uuid.UUID]*sessionEntry),
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.newID == nil {
		s.newID = uuid.New
	}
	if s.ttl <= 0 {
		s.ttl = DefaultHoldTTL
	}
	if s.retention <= 0 {
		s.retention = DefaultSessionRetention
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Open holds seats on tripID for userID and starts an Active session that
// expires after the hold TTL. No session is created if the hold fails.
func (s *ReservationService) Open(ctx context.Context, userID string, tripID uuid.UUID, seats []int) (domain.ReservationSession, error) {
	ctx, span := startSpan(ctx, "ReservationService.Open")
	defer span.End()
	span.SetAttributes(attribute.String("trip_id", tripID.String()), attribute.Int("seat_count", len(seats)))

	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return domain.ReservationSession{}, recordErr(span, fmt.Errorf("service.ReservationService.Open: %w", err))
	}

	// Seats held by overdue sessions on this trip become available first.
	s.expireOverdue(ctx, func(sess *domain.ReservationSession) bool { return sess.TripID == tripID })

	held := slices.Clone(seats)
	slices.Sort(held)

	id := s.newID()
	if err := s.seats.Hold(tripID, held, id); err != nil {
		return domain.ReservationSession{}, recordErr(span, fmt.Errorf("service.ReservationService.Open: %w", err))
	}

	now := s.clock.Now()
	entry := &sessionEntry{s: domain.ReservationSession{
		ID:        id,
		UserID:    userID,
		TripID:    tripID,
		Seats:     held,
		State:     domain.SessionActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}}

	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	span.SetAttributes(attribute.String("session_id", id.String()))
	s.log.InfoContext(ctx, "reservation opened",
		"session_id", id, "trip_id", tripID, "user_id", userID, "seats", held)
	return entry.s.Clone(), nil
}

// AttachPassengers sets the passenger details of an Active session, one per
// held seat, assigned to seats in ascending order. Calling it again replaces
// the previous details. On error the session is unchanged.
func (s *ReservationService) AttachPassengers(ctx context.Context, userID string, sessionID uuid.UUID, passengers []domain.PassengerDetail) (domain.ReservationSession, error) {
	ctx, span := startSpan(ctx, "ReservationService.AttachPassengers")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID.String()))

	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.ReservationSession{}, recordErr(span, fmt.Errorf("service.ReservationService.AttachPassengers: %w", err))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.usable(ctx, entry); err != nil {
		return domain.ReservationSession{}, recordErr(span, fmt.Errorf("service.ReservationService.AttachPassengers: %w", err))
	}
	if err := domain.ValidatePassengers(passengers, len(entry.s.Seats)); err != nil {
		return domain.ReservationSession{}, recordErr(span, fmt.Errorf("service.ReservationService.AttachPassengers: %w", err))
	}

	assigned := make([]domain.PassengerDetail, len(passengers))
	for i, p := range passengers {
		p.SeatNumber = entry.s.Seats[i]
		assigned[i] = p
	}
	entry.s.Passengers = assigned

	s.log.DebugContext(ctx, "passengers attached", "session_id", sessionID, "count", len(assigned))
	return entry.s.Clone(), nil
}

// Confirm turns an Active session with passenger details into a Confirmed
// booking. Seats are committed in the inventory first; if the ledger then
// fails the commit is undone and the session stays Active.
func (s *ReservationService) Confirm(ctx context.Context, userID string, sessionID uuid.UUID, method domain.PaymentMethod) (domain.Booking, error) {
	ctx, span := startSpan(ctx, "ReservationService.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID.String()))

	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.ReservationService.Confirm: %w", err))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.usable(ctx, entry); err != nil {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.ReservationService.Confirm: %w", err))
	}
	if entry.s.Passengers == nil {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.ReservationService.Confirm: %w", domain.ErrIncompletePassengerDetails))
	}
	if !method.IsValid() {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.ReservationService.Confirm: %w: payment_method must be one of mpesa, card, cash",
			domain.ErrValidation))
	}

	trip, err := s.trips.GetByID(ctx, entry.s.TripID)
	if err != nil {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.ReservationService.Confirm: %w", err))
	}

	bookingID := s.newID()
	if _, err := s.seats.Commit(sessionID, bookingID); err != nil {
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.ReservationService.Confirm: %w", err))
	}

	booking, err := s.ledger.CommitBooking(ctx, entry.s.Clone(), trip, bookingID, method)
	if err != nil {
		if uerr := s.seats.Uncommit(bookingID, sessionID); uerr != nil {
			s.log.ErrorContext(ctx, "undo seat commit failed",
				"session_id", sessionID, "booking_id", bookingID, "error", uerr)
		}
		return domain.Booking{}, recordErr(span, fmt.Errorf("service.ReservationService.Confirm: %w", err))
	}

	now := s.clock.Now()
	entry.s.State = domain.SessionCommitted
	entry.s.BookingID = booking.ID
	entry.s.EndedAt = &now

	span.SetAttributes(attribute.String("booking_id", booking.ID.String()))
	s.log.InfoContext(ctx, "reservation committed",
		"session_id", sessionID, "booking_id", booking.ID, "trip_id", booking.TripID)
	return booking, nil
}

// Release ends an Active session and frees its seats. Releasing an already
// Released session is a no-op.
func (s *ReservationService) Release(ctx context.Context, userID string, sessionID uuid.UUID) error {
	ctx, span := startSpan(ctx, "ReservationService.Release")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID.String()))

	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return recordErr(span, fmt.Errorf("service.ReservationService.Release: %w", err))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.s.State == domain.SessionReleased {
		return nil
	}
	if err := s.usable(ctx, entry); err != nil {
		return recordErr(span, fmt.Errorf("service.ReservationService.Release: %w", err))
	}

	n := s.seats.Release(sessionID)
	now := s.clock.Now()
	entry.s.State = domain.SessionReleased
	entry.s.EndedAt = &now

	s.log.InfoContext(ctx, "reservation released", "session_id", sessionID, "seats_released", n)
	return nil
}

// Get returns the current view of a session in any state. An overdue Active
// session is expired before it is returned.
func (s *ReservationService) Get(ctx context.Context, userID string, sessionID uuid.UUID) (domain.ReservationSession, error) {
	ctx, span := startSpan(ctx, "ReservationService.Get")
	defer span.End()

	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.ReservationSession{}, recordErr(span, fmt.Errorf("service.ReservationService.Get: %w", err))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.s.State == domain.SessionActive && entry.s.IsExpiredAt(s.clock.Now()) {
		s.expireLocked(ctx, entry)
	}
	return entry.s.Clone(), nil
}

// SweepExpired expires every overdue Active session and forgets terminal
// sessions that ended more than the retention window ago.
func (s *ReservationService) SweepExpired(ctx context.Context) (expired, purged int) {
	ctx, span := startSpan(ctx, "ReservationService.SweepExpired")
	defer span.End()

	expired = s.expireOverdue(ctx, func(*domain.ReservationSession) bool { return true })

	cutoff := s.clock.Now().Add(-s.retention)
	var stale []uuid.UUID
	for _, entry := range s.entries() {
		entry.mu.Lock()
		if entry.s.State.IsTerminal() && entry.s.EndedAt != nil && !entry.s.EndedAt.After(cutoff) {
			stale = append(stale, entry.s.ID)
		}
		entry.mu.Unlock()
	}
	if len(stale) > 0 {
		s.mu.Lock()
		for _, id := range stale {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
	}
	purged = len(stale)

	span.SetAttributes(attribute.Int("expired", expired), attribute.Int("purged", purged))
	return expired, purged
}

// lookup finds a session owned by userID. Sessions of other users are
// reported as not found.
func (s *ReservationService) lookup(userID string, sessionID uuid.UUID) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || entry.s.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return entry, nil
}

// usable reports whether the session may still change. An overdue Active
// session is expired on the spot. Caller must hold entry.mu.
func (s *ReservationService) usable(ctx context.Context, entry *sessionEntry) error {
	if entry.s.State == domain.SessionActive && entry.s.IsExpiredAt(s.clock.Now()) {
		s.expireLocked(ctx, entry)
	}
	switch entry.s.State {
	case domain.SessionActive:
		return nil
	case domain.SessionCommitted:
		return domain.ErrSessionCommitted
	case domain.SessionExpired:
		return domain.ErrSessionExpired
	default:
		return domain.ErrSessionNotFound
	}
}

// expireLocked moves an Active session to Expired and frees its seats.
// Caller must hold entry.mu.
func (s *ReservationService) expireLocked(ctx context.Context, entry *sessionEntry) {
	n := s.seats.Release(entry.s.ID)
	now := s.clock.Now()
	entry.s.State = domain.SessionExpired
	entry.s.EndedAt = &now
	s.log.InfoContext(ctx, "reservation expired",
		"session_id", entry.s.ID, "trip_id", entry.s.TripID, "seats_released", n)
}

// expireOverdue expires every overdue Active session selected by match and
// returns how many it expired.
func (s *ReservationService) expireOverdue(ctx context.Context, match func(*domain.ReservationSession) bool) int {
	count := 0
	for _, entry := range s.entries() {
		entry.mu.Lock()
		if entry.s.State == domain.SessionActive && match(&entry.s) && entry.s.IsExpiredAt(s.clock.Now()) {
			s.expireLocked(ctx, entry)
			count++
		}
		entry.mu.Unlock()
	}
	return count
}

// entries snapshots the session index.
func (s *ReservationService) entries() []*sessionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		out = append(out, e)
	}
	return out
}
