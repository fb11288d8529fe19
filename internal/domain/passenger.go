package domain

import (
	"fmt"
	"strings"
)

const (
	MinPassengerAge = 1
	MaxPassengerAge = 120
)

// Gender is the enumerated passenger gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// IsValid reports whether g is a known gender.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// PassengerDetail describes the traveller occupying one held seat.
// SeatNumber is assigned by the reservation service, never by the caller.
type PassengerDetail struct {
	Name       string
	Age        int
	Gender     Gender
	SeatNumber int
}

// ValidatePassengers checks passengers against the number of held seats.
// The returned error wraps ErrPassengerDetailInvalid and names the first
// offending field, e.g. "passengers[1].age".
func ValidatePassengers(passengers []PassengerDetail, seatCount int) error {
	if len(passengers) != seatCount {
		return fmt.Errorf("%w: passengers: expected %d, got %d", ErrPassengerDetailInvalid, seatCount, len(passengers))
	}
	for i, p := range passengers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: passengers[%d].name is required", ErrPassengerDetailInvalid, i)
		}
		if p.Age < MinPassengerAge || p.Age > MaxPassengerAge {
			return fmt.Errorf("%w: passengers[%d].age must be between %d and %d",
				ErrPassengerDetailInvalid, i, MinPassengerAge, MaxPassengerAge)
		}
		if !p.Gender.IsValid() {
			return fmt.Errorf("%w: passengers[%d].gender must be one of male, female, other", ErrPassengerDetailInvalid, i)
		}
	}
	return nil
}
