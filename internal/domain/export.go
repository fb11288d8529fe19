package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExportRow is one line of a user's booking history export: one row per
// booked seat, with the booking fields repeated for every seat.
type ExportRow struct {
	BookingID     uuid.UUID
	Status        BookingStatus
	BookedAt      time.Time
	CancelledAt   *time.Time
	OperatorName  string
	Origin        string
	Destination   string
	ServiceDate   string // DateLayout
	DepartureTime string
	SeatNumber    int
	SeatTier      SeatTier
	Passenger     string
	UnitFare      Money
	PaymentMethod PaymentMethod
}

// ExportRows flattens bookings into export rows, keeping the given booking
// order and ascending seat order within each booking.
func ExportRows(bookings []Booking) []ExportRow {
	var rows []ExportRow
	for _, b := range bookings {
		for i, seat := range b.Seats {
			row := ExportRow{
				BookingID:     b.ID,
				Status:        b.Status,
				BookedAt:      b.CreatedAt,
				CancelledAt:   b.CancelledAt,
				OperatorName:  b.Trip.OperatorName,
				Origin:        b.Trip.Origin,
				Destination:   b.Trip.Destination,
				ServiceDate:   b.Trip.ServiceDate.Format(DateLayout),
				DepartureTime: b.Trip.DepartureTime,
				SeatNumber:    seat,
				SeatTier:      TierFor(seat),
				UnitFare:      b.UnitFare,
				PaymentMethod: b.PaymentMethod,
			}
			if i < len(b.Passengers) {
				row.Passenger = b.Passengers[i].Name
			}
			rows = append(rows, row)
		}
	}
	return rows
}
