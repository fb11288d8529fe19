package repo

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// memTripRepo is an in-memory TripRepo. It is used when DATABASE_URL is
// empty and in service tests.
type memTripRepo struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]domain.Trip
	now   func() time.Time
}

// NewMemoryTripRepo returns an empty in-memory TripRepo. now stamps
// CreatedAt.
func NewMemoryTripRepo(now func() time.Time) TripRepo {
	return &memTripRepo{trips: make(map[uuid.UUID]domain.Trip), now: now}
}

func (r *memTripRepo) Create(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	if _, ok := r.trips[trip.ID]; ok {
		return domain.Trip{}, fmt.Errorf("repo.memTripRepo.Create: %w: trip %s exists", domain.ErrConflict, trip.ID)
	}
	trip.CreatedAt = r.now()
	r.trips[trip.ID] = trip
	return trip, nil
}

func (r *memTripRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trips[id]
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.memTripRepo.GetByID: %w", domain.ErrTripNotFound)
	}
	return t, nil
}

func (r *memTripRepo) Search(_ context.Context, f domain.TripFilter, p domain.PageRequest) ([]domain.Trip, int64, error) {
	r.mu.RLock()
	matched := []domain.Trip{}
	for _, t := range r.trips {
		if f.Matches(t) {
			matched = append(matched, t)
		}
	}
	r.mu.RUnlock()

	sortTrips(matched)
	start, end := p.Bounds(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *memTripRepo) ListAll(_ context.Context) ([]domain.Trip, error) {
	r.mu.RLock()
	trips := make([]domain.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		trips = append(trips, t)
	}
	r.mu.RUnlock()

	sortTrips(trips)
	return trips, nil
}

// sortTrips orders trips the way the Postgres repo does.
func sortTrips(trips []domain.Trip) {
	sort.Slice(trips, func(i, j int) bool {
		a, b := trips[i], trips[j]
		if !a.ServiceDate.Equal(b.ServiceDate) {
			return a.ServiceDate.Before(b.ServiceDate)
		}
		if a.DepartureTime != b.DepartureTime {
			return a.DepartureTime < b.DepartureTime
		}
		return a.ID.String() < b.ID.String()
	})
}

// memBookingRepo is an in-memory BookingRepo.
type memBookingRepo struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]domain.Booking
}

// NewMemoryBookingRepo returns an empty in-memory BookingRepo.
func NewMemoryBookingRepo() BookingRepo {
	return &memBookingRepo{bookings: make(map[uuid.UUID]domain.Booking)}
}

func (r *memBookingRepo) Create(_ context.Context, b domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; ok {
		return fmt.Errorf("repo.memBookingRepo.Create: %w: booking %s exists", domain.ErrConflict, b.ID)
	}
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.Booking{}, fmt.Errorf("repo.memBookingRepo.GetByID: %w", domain.ErrBookingNotFound)
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) ListByUser(_ context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error) {
	r.mu.RLock()
	owned := []domain.Booking{}
	for _, b := range r.bookings {
		if b.UserID == userID {
			owned = append(owned, cloneBooking(b))
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID.String() < owned[j].ID.String()
	})
	start, end := p.Bounds(len(owned))
	return owned[start:end], int64(len(owned)), nil
}

func (r *memBookingRepo) ListConfirmed(_ context.Context) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Booking{}
	for _, b := range r.bookings {
		if b.Status == domain.BookingConfirmed {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (r *memBookingRepo) MarkCancelled(_ context.Context, id uuid.UUID, at time.Time, refund, fee domain.Money) (domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.Booking{}, fmt.Errorf("repo.memBookingRepo.MarkCancelled: %w", domain.ErrBookingNotFound)
	}
	if b.Status != domain.BookingConfirmed {
		return domain.Booking{}, fmt.Errorf("repo.memBookingRepo.MarkCancelled: %w", domain.ErrAlreadyCancelled)
	}
	b.Status = domain.BookingCancelled
	b.CancelledAt = &at
	b.RefundAmount = refund
	b.CancellationFee = fee
	r.bookings[id] = b
	return cloneBooking(b), nil
}

func (r *memBookingRepo) RevertCancellation(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != domain.BookingCancelled {
		return fmt.Errorf("repo.memBookingRepo.RevertCancellation: %w", domain.ErrBookingNotFound)
	}
	b.Status = domain.BookingConfirmed
	b.CancelledAt = nil
	b.RefundAmount = 0
	b.CancellationFee = 0
	r.bookings[id] = b
	return nil
}

// memUserRepo is an in-memory UserRepo keyed by email.
type memUserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepo returns an empty in-memory UserRepo.
func NewMemoryUserRepo() UserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return fmt.Errorf("repo.memUserRepo.Create: %w", domain.ErrEmailTaken)
	}
	r.users[u.Email] = u
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[email]
	if !ok {
		return domain.User{}, fmt.Errorf("repo.memUserRepo.GetByEmail: %w", domain.ErrUserNotFound)
	}
	return u, nil
}

func cloneBooking(b domain.Booking) domain.Booking {
	b.Seats = slices.Clone(b.Seats)
	b.Passengers = slices.Clone(b.Passengers)
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		b.CancelledAt = &at
	}
	return b
}
