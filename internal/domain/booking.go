package domain

import (
	"time"

	"github.com/google/uuid"
)

// CancellationFeePercent is the flat fee withheld from every cancellation.
const CancellationFeePercent = 20

// BookingStatus is the status of a committed booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentMethod is informational only; no payment is processed.
type PaymentMethod string

const (
	PaymentMpesa PaymentMethod = "mpesa"
	PaymentCard  PaymentMethod = "card"
	PaymentCash  PaymentMethod = "cash"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMpesa, PaymentCard, PaymentCash:
		return true
	}
	return false
}

// TripSnapshot copies the trip fields a booking displays, so later catalog
// changes cannot rewrite booking history.
type TripSnapshot struct {
	OperatorName  string
	Category      Category
	Origin        string
	Destination   string
	ServiceDate   time.Time
	DepartureTime string
	ArrivalTime   string
}

// SnapshotOf captures the display fields of t.
func SnapshotOf(t Trip) TripSnapshot {
	return TripSnapshot{
		OperatorName:  t.OperatorName,
		Category:      t.Category,
		Origin:        t.Origin,
		Destination:   t.Destination,
		ServiceDate:   t.ServiceDate,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
	}
}

// Booking is a durable, confirmed purchase of 1..4 seats on one trip.
// Passengers are index-aligned with Seats. The only mutation a booking ever
// sees is Confirmed -> Cancelled.
type Booking struct {
	ID              uuid.UUID
	UserID          string
	TripID          uuid.UUID
	Trip            TripSnapshot
	Seats           []int
	Passengers      []PassengerDetail
	UnitFare        Money
	TotalPrice      Money
	PaymentMethod   PaymentMethod
	Status          BookingStatus
	CreatedAt       time.Time
	CancelledAt     *time.Time
	RefundAmount    Money
	CancellationFee Money
}

// Refund is the outcome of cancelling a booking.
type Refund struct {
	BookingID    uuid.UUID
	RefundAmount Money
	FeeAmount    Money
}

// CancellationRefund applies the flat cancellation policy to total.
// Fee and refund always sum to total.
func CancellationRefund(total Money) (refund, fee Money) {
	fee = total.Percent(CancellationFeePercent)
	return total - fee, fee
}
