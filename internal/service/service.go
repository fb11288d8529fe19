// Package service contains the booking core: reservation sessions, the
// booking ledger, the read-only query facade, and catalog publishing.
// Services enforce business rules and orchestrate the seat inventory and the
// repos; no SQL lives here.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

var tracer = otel.Tracer("github.com/samuelmuhia/booking-website/internal/service")

// SeatInventory is the seat state machine the services drive.
// *inventory.Inventory satisfies it.
type SeatInventory interface {
	Initialize(trip domain.Trip) error
	Hold(tripID uuid.UUID, seats []int, sessionID uuid.UUID) error
	Commit(sessionID, bookingID uuid.UUID) ([]int, error)
	Release(sessionID uuid.UUID) int
	CancelBooking(bookingID uuid.UUID) ([]int, error)
	Uncommit(bookingID, sessionID uuid.UUID) error
	Restore(tripID, bookingID uuid.UUID, seats []int) error
	Snapshot(tripID uuid.UUID) ([]domain.Seat, error)
	Counts(tripID uuid.UUID) (domain.SeatCounts, error)
}

// Defaults applied when a zero duration is configured.
const (
	DefaultHoldTTL          = 10 * time.Minute
	DefaultSessionRetention = time.Hour
)

// recordErr marks span as failed and returns err unchanged.
func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// startSpan is tracer.Start with the booking core's span naming.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "service."+name)
}
