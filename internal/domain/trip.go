// Package domain contains the core data types for the bus booking service.
// It depends only on the standard library and google/uuid and is imported by
// every other internal package (inventory, repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTripCapacity bounds the seat map a single trip may publish.
const MaxTripCapacity = 100

// DateLayout is the wire and search format for a trip's service date.
const DateLayout = "2006-01-02"

// TimeOfDayLayout is the format for departure and arrival times.
const TimeOfDayLayout = "15:04"

// Category is the service class of a trip.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryLuxury   Category = "luxury"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryStandard, CategoryLuxury:
		return true
	}
	return false
}

// Trip is a single scheduled bus departure. Trips are immutable once
// published; the catalog owns them and the booking core only reads them.
type Trip struct {
	ID            uuid.UUID
	OperatorName  string
	Category      Category
	Origin        string
	Destination   string
	ServiceDate   time.Time // date only, UTC midnight
	DepartureTime string    // "15:04"
	ArrivalTime   string    // "15:04"
	Capacity      int
	BaseFare      Money
	CreatedAt     time.Time
}

// ServiceDateString returns the service date in DateLayout.
func (t Trip) ServiceDateString() string {
	return t.ServiceDate.Format(DateLayout)
}

// Validate enforces the rules a trip must satisfy before it is published.
func (t Trip) Validate() error {
	if strings.TrimSpace(t.OperatorName) == "" {
		return fmt.Errorf("%w: operator_name is required", ErrValidation)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: category must be one of standard, luxury", ErrValidation)
	}
	if strings.TrimSpace(t.Origin) == "" {
		return fmt.Errorf("%w: origin is required", ErrValidation)
	}
	if strings.TrimSpace(t.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if strings.EqualFold(strings.TrimSpace(t.Origin), strings.TrimSpace(t.Destination)) {
		return fmt.Errorf("%w: origin and destination must differ", ErrValidation)
	}
	if t.ServiceDate.IsZero() {
		return fmt.Errorf("%w: service_date is required", ErrValidation)
	}
	if _, err := time.Parse(TimeOfDayLayout, t.DepartureTime); err != nil {
		return fmt.Errorf("%w: departure_time must be HH:MM", ErrValidation)
	}
	if _, err := time.Parse(TimeOfDayLayout, t.ArrivalTime); err != nil {
		return fmt.Errorf("%w: arrival_time must be HH:MM", ErrValidation)
	}
	if t.Capacity < 1 || t.Capacity > MaxTripCapacity {
		return fmt.Errorf("%w: capacity must be between 1 and %d", ErrValidation, MaxTripCapacity)
	}
	if t.BaseFare <= 0 {
		return fmt.Errorf("%w: base_fare must be positive", ErrValidation)
	}
	return nil
}

// TripFilter narrows a trip search. Empty fields match everything.
// Origin and Destination match case-insensitively anywhere in the value;
// Date matches anywhere in the DateLayout form, so "2025-06" selects a month.
type TripFilter struct {
	Origin      string
	Destination string
	Date        string
}

// Matches reports whether t satisfies f.
func (f TripFilter) Matches(t Trip) bool {
	return containsFold(t.Origin, f.Origin) &&
		containsFold(t.Destination, f.Destination) &&
		strings.Contains(t.ServiceDateString(), strings.TrimSpace(f.Date))
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
