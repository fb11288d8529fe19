// Package inventory is the single source of truth for seat availability.
// Each trip's seat map is guarded by its own mutex so unrelated trips never
// contend; readers are served from an immutable snapshot published after every
// mutation and never take the trip lock.
package inventory

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// slot is the mutable state of one seat. holder is the session id while
// Held and the booking id while Booked; uuid.Nil while Available.
type slot struct {
	state  domain.SeatState
	holder uuid.UUID
}

type snapshot struct {
	seats  []domain.Seat
	counts domain.SeatCounts
}

type tripSeats struct {
	mu    sync.Mutex
	slots []slot // slots[n-1] is seat n
	snap  atomic.Pointer[snapshot]
}

// Inventory tracks Available/Held/Booked state for every initialized trip.
//
// Lock order: a trip lock may be held while taking Inventory.mu, never the
// reverse. Inventory.mu only guards the three index maps.
type Inventory struct {
	mu       sync.RWMutex
	trips    map[uuid.UUID]*tripSeats
	sessions map[uuid.UUID]uuid.UUID // session id -> trip id
	bookings map[uuid.UUID]uuid.UUID // booking id -> trip id
}

// New returns an empty Inventory.
func New() *Inventory {
	return &Inventory{
		trips:    make(map[uuid.UUID]*tripSeats),
		sessions: make(map[uuid.UUID]uuid.UUID),
		bookings: make(map[uuid.UUID]uuid.UUID),
	}
}

// Initialize materializes trip.Capacity Available seats for trip.
// Returns domain.ErrAlreadyInitialized if the trip already has a seat map.
func (inv *Inventory) Initialize(trip domain.Trip) error {
	if trip.Capacity < 1 || trip.Capacity > domain.MaxTripCapacity {
		return fmt.Errorf("inventory.Initialize: %w: capacity must be between 1 and %d",
			domain.ErrValidation, domain.MaxTripCapacity)
	}

	ts := &tripSeats{slots: make([]slot, trip.Capacity)}
	for i := range ts.slots {
		ts.slots[i].state = domain.SeatAvailable
	}
	ts.publish()

	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.trips[trip.ID]; ok {
		return fmt.Errorf("inventory.Initialize: %w", domain.ErrAlreadyInitialized)
	}
	inv.trips[trip.ID] = ts
	return nil
}

// Hold moves every requested seat from Available to Held by sessionID.
// The operation is all-or-nothing: if any seat is out of range, duplicated,
// or not Available, no seat changes state.
func (inv *Inventory) Hold(tripID uuid.UUID, seats []int, sessionID uuid.UUID) error {
	if len(seats) == 0 {
		return fmt.Errorf("inventory.Hold: %w: at least one seat is required", domain.ErrValidation)
	}
	if len(seats) > domain.MaxSeatsPerHold {
		return fmt.Errorf("inventory.Hold: %w: at most %d seats per reservation, got %d",
			domain.ErrSeatLimitExceeded, domain.MaxSeatsPerHold, len(seats))
	}

	ts, ok := inv.trip(tripID)
	if !ok {
		return fmt.Errorf("inventory.Hold: %w", domain.ErrTripNotFound)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	seen := make(map[int]bool, len(seats))
	for _, n := range seats {
		if n < 1 || n > len(ts.slots) {
			return fmt.Errorf("inventory.Hold: %w: seat %d is out of range 1..%d",
				domain.ErrValidation, n, len(ts.slots))
		}
		if seen[n] {
			return fmt.Errorf("inventory.Hold: %w: seat %d requested twice", domain.ErrValidation, n)
		}
		seen[n] = true
	}
	for _, n := range seats {
		if ts.slots[n-1].state != domain.SeatAvailable {
			return fmt.Errorf("inventory.Hold: %w: seat %d is %s", domain.ErrSeatUnavailable, n, ts.slots[n-1].state)
		}
	}

	inv.mu.Lock()
	if _, busy := inv.sessions[sessionID]; busy {
		inv.mu.Unlock()
		return fmt.Errorf("inventory.Hold: %w: session already holds seats", domain.ErrConflict)
	}
	inv.sessions[sessionID] = tripID
	inv.mu.Unlock()

	for _, n := range seats {
		ts.slots[n-1] = slot{state: domain.SeatHeld, holder: sessionID}
	}
	ts.publish()
	return nil
}

// Commit moves every seat Held by sessionID to Booked by bookingID and returns
// the committed seat numbers in ascending order.
// Returns domain.ErrSessionNotFound if the session holds no seats.
func (inv *Inventory) Commit(sessionID, bookingID uuid.UUID) ([]int, error) {
	ts, tripID, ok := inv.tripOf(inv.sessions, sessionID)
	if !ok {
		return nil, fmt.Errorf("inventory.Commit: %w", domain.ErrSessionNotFound)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	seats := ts.transition(domain.SeatHeld, sessionID, domain.SeatBooked, bookingID)
	if len(seats) == 0 {
		return nil, fmt.Errorf("inventory.Commit: %w", domain.ErrSessionNotFound)
	}

	inv.mu.Lock()
	delete(inv.sessions, sessionID)
	inv.bookings[bookingID] = tripID
	inv.mu.Unlock()

	ts.publish()
	return seats, nil
}

// Release returns every seat Held by sessionID to Available and reports how
// many seats were released. Releasing a session that holds nothing is a no-op.
func (inv *Inventory) Release(sessionID uuid.UUID) int {
	ts, _, ok := inv.tripOf(inv.sessions, sessionID)
	if !ok {
		return 0
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	seats := ts.transition(domain.SeatHeld, sessionID, domain.SeatAvailable, uuid.Nil)

	inv.mu.Lock()
	delete(inv.sessions, sessionID)
	inv.mu.Unlock()

	if len(seats) > 0 {
		ts.publish()
	}
	return len(seats)
}

// CancelBooking returns every seat Booked by bookingID to Available and
// returns the released seat numbers.
// Returns domain.ErrBookingNotFound if the booking holds no seats.
func (inv *Inventory) CancelBooking(bookingID uuid.UUID) ([]int, error) {
	ts, _, ok := inv.tripOf(inv.bookings, bookingID)
	if !ok {
		return nil, fmt.Errorf("inventory.CancelBooking: %w", domain.ErrBookingNotFound)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	seats := ts.transition(domain.SeatBooked, bookingID, domain.SeatAvailable, uuid.Nil)
	if len(seats) == 0 {
		return nil, fmt.Errorf("inventory.CancelBooking: %w", domain.ErrBookingNotFound)
	}

	inv.mu.Lock()
	delete(inv.bookings, bookingID)
	inv.mu.Unlock()

	ts.publish()
	return seats, nil
}

// Uncommit reverses Commit: seats Booked by bookingID go back to Held by
// sessionID. It compensates a commit whose booking could not be persisted.
func (inv *Inventory) Uncommit(bookingID, sessionID uuid.UUID) error {
	ts, tripID, ok := inv.tripOf(inv.bookings, bookingID)
	if !ok {
		return fmt.Errorf("inventory.Uncommit: %w", domain.ErrBookingNotFound)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	seats := ts.transition(domain.SeatBooked, bookingID, domain.SeatHeld, sessionID)
	if len(seats) == 0 {
		return fmt.Errorf("inventory.Uncommit: %w", domain.ErrBookingNotFound)
	}

	inv.mu.Lock()
	delete(inv.bookings, bookingID)
	inv.sessions[sessionID] = tripID
	inv.mu.Unlock()

	ts.publish()
	return nil
}

// Restore marks seats Booked by bookingID. It is used at startup to rebuild
// seat state from confirmed bookings in the ledger; every seat must currently
// be Available.
func (inv *Inventory) Restore(tripID, bookingID uuid.UUID, seats []int) error {
	ts, ok := inv.trip(tripID)
	if !ok {
		return fmt.Errorf("inventory.Restore: %w", domain.ErrTripNotFound)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, n := range seats {
		if n < 1 || n > len(ts.slots) {
			return fmt.Errorf("inventory.Restore: %w: seat %d is out of range", domain.ErrValidation, n)
		}
		if ts.slots[n-1].state != domain.SeatAvailable {
			return fmt.Errorf("inventory.Restore: %w: seat %d is %s", domain.ErrSeatUnavailable, n, ts.slots[n-1].state)
		}
	}
	for _, n := range seats {
		ts.slots[n-1] = slot{state: domain.SeatBooked, holder: bookingID}
	}

	inv.mu.Lock()
	inv.bookings[bookingID] = tripID
	inv.mu.Unlock()

	ts.publish()
	return nil
}

// Snapshot returns the seat map of a trip ordered by seat number.
// It reads the last published snapshot and never blocks writers.
func (inv *Inventory) Snapshot(tripID uuid.UUID) ([]domain.Seat, error) {
	ts, ok := inv.trip(tripID)
	if !ok {
		return nil, fmt.Errorf("inventory.Snapshot: %w", domain.ErrTripNotFound)
	}
	snap := ts.snap.Load()
	return append([]domain.Seat(nil), snap.seats...), nil
}

// Counts returns the number of seats in each state for a trip.
func (inv *Inventory) Counts(tripID uuid.UUID) (domain.SeatCounts, error) {
	ts, ok := inv.trip(tripID)
	if !ok {
		return domain.SeatCounts{}, fmt.Errorf("inventory.Counts: %w", domain.ErrTripNotFound)
	}
	return ts.snap.Load().counts, nil
}

func (inv *Inventory) trip(id uuid.UUID) (*tripSeats, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	ts, ok := inv.trips[id]
	return ts, ok
}

// tripOf resolves a holder id through one of the index maps.
func (inv *Inventory) tripOf(index map[uuid.UUID]uuid.UUID, holder uuid.UUID) (*tripSeats, uuid.UUID, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	tripID, ok := index[holder]
	if !ok {
		return nil, uuid.Nil, false
	}
	ts, ok := inv.trips[tripID]
	return ts, tripID, ok
}

// transition moves every seat in state from held by holder to state to held
// by newHolder and returns the affected seat numbers in ascending order.
// Caller must hold ts.mu.
func (ts *tripSeats) transition(from domain.SeatState, holder uuid.UUID, to domain.SeatState, newHolder uuid.UUID) []int {
	var seats []int
	for i := range ts.slots {
		if ts.slots[i].state == from && ts.slots[i].holder == holder {
			ts.slots[i] = slot{state: to, holder: newHolder}
			seats = append(seats, i+1)
		}
	}
	sort.Ints(seats)
	return seats
}

// publish stores a fresh immutable snapshot. Caller must hold ts.mu, or be the
// only goroutine that can see ts.
func (ts *tripSeats) publish() {
	snap := &snapshot{seats: make([]domain.Seat, len(ts.slots))}
	for i, s := range ts.slots {
		snap.seats[i] = domain.Seat{Number: i + 1, Tier: domain.TierFor(i + 1), State: s.state}
		switch s.state {
		case domain.SeatAvailable:
			snap.counts.Available++
		case domain.SeatHeld:
			snap.counts.Held++
		case domain.SeatBooked:
			snap.counts.Booked++
		}
	}
	ts.snap.Store(snap)
}
