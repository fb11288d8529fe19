package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// CurrencyLabel prefixes amounts on printed tickets.
const CurrencyLabel = "KSh"

const ticketTimestampLayout = "2006-01-02 15:04 MST"

// RenderTicket formats b as the plain-text ticket a passenger downloads.
func RenderTicket(b domain.Booking) string {
	var sb strings.Builder

	sb.WriteString("BUS BOOKING TICKET\n")
	sb.WriteString("==================\n\n")
	fmt.Fprintf(&sb, "Booking ID: %s\n", b.ID)
	fmt.Fprintf(&sb, "Booking Date: %s\n\n", b.CreatedAt.Format(ticketTimestampLayout))

	sb.WriteString("PASSENGER DETAILS:\n")
	for i, p := range b.Passengers {
		fmt.Fprintf(&sb, "\nPassenger %d:\n", i+1)
		fmt.Fprintf(&sb, "  Name: %s\n", p.Name)
		fmt.Fprintf(&sb, "  Age: %d\n", p.Age)
		fmt.Fprintf(&sb, "  Gender: %s\n", p.Gender)
		fmt.Fprintf(&sb, "  Seat: %d\n", p.SeatNumber)
	}

	sb.WriteString("\nTRIP DETAILS:\n")
	fmt.Fprintf(&sb, "Bus: %s (%s)\n", b.Trip.OperatorName, b.Trip.Category)
	fmt.Fprintf(&sb, "Route: %s -> %s\n", b.Trip.Origin, b.Trip.Destination)
	fmt.Fprintf(&sb, "Date: %s\n", b.Trip.ServiceDate.Format(domain.DateLayout))
	fmt.Fprintf(&sb, "Time: %s - %s\n", b.Trip.DepartureTime, b.Trip.ArrivalTime)
	fmt.Fprintf(&sb, "Seats: %s\n", joinSeats(b.Seats))

	sb.WriteString("\nPAYMENT DETAILS:\n")
	fmt.Fprintf(&sb, "Total Amount: %s %s\n", CurrencyLabel, b.TotalPrice)
	fmt.Fprintf(&sb, "Payment Method: %s\n", strings.ToUpper(string(b.PaymentMethod)))
	fmt.Fprintf(&sb, "Status: %s\n", strings.ToUpper(string(b.Status)))

	return sb.String()
}

func joinSeats(seats []int) string {
	parts := make([]string, len(seats))
	for i, n := range seats {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
