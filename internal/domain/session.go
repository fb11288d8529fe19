package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxSeatsPerHold is the hard cap on seats one reservation may hold.
const MaxSeatsPerHold = 4

// SessionState is the lifecycle state of a reservation session.
// Active is the only non-terminal state.
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionCommitted SessionState = "committed"
	SessionExpired   SessionState = "expired"
	SessionReleased  SessionState = "released"
)

// IsTerminal reports whether no further transition may leave s.
func (s SessionState) IsTerminal() bool {
	return s != SessionActive
}

// ReservationSession is a time-boxed hold on a set of seats while the user
// enters passenger details. Seats are kept in ascending order.
type ReservationSession struct {
	ID         uuid.UUID
	UserID     string
	TripID     uuid.UUID
	Seats      []int
	Passengers []PassengerDetail // nil until attached
	State      SessionState
	BookingID  uuid.UUID // set when committed
	CreatedAt  time.Time
	ExpiresAt  time.Time
	EndedAt    *time.Time // set on any terminal transition
}

// IsExpiredAt reports whether the session's TTL has elapsed at now.
// A session is no longer usable at the exact expiry instant.
func (s ReservationSession) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so callers cannot mutate the stored session.
func (s ReservationSession) Clone() ReservationSession {
	out := s
	out.Seats = append([]int(nil), s.Seats...)
	if s.Passengers != nil {
		out.Passengers = append([]PassengerDetail(nil), s.Passengers...)
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return out
}
