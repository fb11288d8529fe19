// Package events publishes booking lifecycle events for downstream consumers
// such as notifications and reporting. Publishing is best-effort: callers log
// a failed publish and carry on, since the ledger is already committed.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// Type names a booking lifecycle event.
type Type string

const (
	BookingConfirmed Type = "booking.confirmed"
	BookingCancelled Type = "booking.cancelled"
)

// Event is the JSON payload written for every lifecycle change.
type Event struct {
	ID         uuid.UUID    `json:"id"`
	Type       Type         `json:"type"`
	BookingID  uuid.UUID    `json:"booking_id"`
	TripID     uuid.UUID    `json:"trip_id"`
	UserID     string       `json:"user_id"`
	Seats      []int        `json:"seats"`
	Total      domain.Money `json:"total"`
	Refund     domain.Money `json:"refund,omitempty"`
	Fee        domain.Money `json:"fee,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// FromBooking builds an event of type typ describing b at time at.
func FromBooking(typ Type, b domain.Booking, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       typ,
		BookingID:  b.ID,
		TripID:     b.TripID,
		UserID:     b.UserID,
		Seats:      append([]int(nil), b.Seats...),
		Total:      b.TotalPrice,
		Refund:     b.RefundAmount,
		Fee:        b.CancellationFee,
		OccurredAt: at,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes each event as a structured log line. It is the default
// when no broker is configured.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher returns a LogPublisher writing to log.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.log.InfoContext(ctx, "booking event",
		"event_id", e.ID,
		"type", e.Type,
		"booking_id", e.BookingID,
		"trip_id", e.TripID,
		"user_id", e.UserID,
		"seats", e.Seats,
		"total", e.Total.String(),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
