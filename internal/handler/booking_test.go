package handler_test

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// ---- GET /bookings ---------------------------------------------------------

func TestListBookings_200(t *testing.T) {
	fixture := bookingFixture("user-1")
	h := newHTTPHandler(deps{query: &mockQuery{
		listBookings: func(_ context.Context, userID string, p domain.PageRequest) ([]domain.Booking, int64, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, domain.PageRequest{Page: 1, Limit: 100}, p)
			return []domain.Booking{fixture}, 1, nil
		},
	}})

	rec := do(t, h, http.MethodGet, "/bookings?limit=500", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Data []struct {
			ID         uuid.UUID `json:"id"`
			Passengers []struct {
				Name       string `json:"name"`
				SeatNumber int    `json:"seat_number"`
			} `json:"passengers"`
			Trip struct {
				Origin      string `json:"origin"`
				ServiceDate string `json:"service_date"`
			} `json:"trip"`
		} `json:"data"`
		Pagination struct {
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
		} `json:"pagination"`
	}](t, rec)
	require.Len(t, body.Data, 1)
	assert.Equal(t, fixture.ID, body.Data[0].ID)
	assert.Equal(t, "Nairobi", body.Data[0].Trip.Origin)
	assert.Equal(t, "2025-06-10", body.Data[0].Trip.ServiceDate)
	assert.Equal(t, 5, body.Data[0].Passengers[1].SeatNumber)
	assert.Equal(t, 100, body.Pagination.Limit)
}

// ---- GET /bookings/{bookingID} ---------------------------------------------

func TestGetBooking_404(t *testing.T) {
	h := newHTTPHandler(deps{bookings: &mockBookings{
		get: func(context.Context, string, uuid.UUID) (domain.Booking, error) {
			return domain.Booking{}, fmt.Errorf("service.LedgerService.Get: %w", domain.ErrBookingNotFound)
		},
	}})

	rec := do(t, h, http.MethodGet, "/bookings/"+uuid.NewString(), "user-1", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "booking not found", decode[errorBody](t, rec).Error.Message)
}

// ---- POST /bookings/{bookingID}/cancel -------------------------------------

func TestCancelBooking_200(t *testing.T) {
	id := uuid.New()
	h := newHTTPHandler(deps{bookings: &mockBookings{
		cancel: func(_ context.Context, userID string, bookingID uuid.UUID) (domain.Refund, error) {
			assert.Equal(t, "user-1", userID)
			return domain.Refund{BookingID: bookingID, RefundAmount: 800, FeeAmount: 200}, nil
		},
	}})

	rec := do(t, h, http.MethodPost, "/bookings/"+id.String()+"/cancel", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"booking_id":%q,"refund_amount":800,"fee_amount":200}`, id), rec.Body.String())
}

func TestCancelBooking_alreadyCancelled_409(t *testing.T) {
	h := newHTTPHandler(deps{bookings: &mockBookings{
		cancel: func(context.Context, string, uuid.UUID) (domain.Refund, error) {
			return domain.Refund{}, fmt.Errorf("service.LedgerService.Cancel: %w", domain.ErrAlreadyCancelled)
		},
	}})

	rec := do(t, h, http.MethodPost, "/bookings/"+uuid.NewString()+"/cancel", "user-1", nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "already_cancelled", body.Error.Code)
	assert.Equal(t, "booking already cancelled", body.Error.Message)
}

// ---- GET /bookings/{bookingID}/ticket --------------------------------------

func TestGetTicket_200(t *testing.T) {
	id := uuid.New()
	h := newHTTPHandler(deps{bookings: &mockBookings{
		ticket: func(context.Context, string, uuid.UUID) (string, error) {
			return "BUS BOOKING TICKET\n", nil
		},
	}})

	rec := do(t, h, http.MethodGet, "/bookings/"+id.String()+"/ticket", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id.String())
	assert.Equal(t, "BUS BOOKING TICKET\n", rec.Body.String())
}

func TestGetTicket_cancelled_409(t *testing.T) {
	h := newHTTPHandler(deps{bookings: &mockBookings{
		ticket: func(context.Context, string, uuid.UUID) (string, error) {
			return "", fmt.Errorf("service.LedgerService.Ticket: %w", domain.ErrBookingNotActive)
		},
	}})

	rec := do(t, h, http.MethodGet, "/bookings/"+uuid.NewString()+"/ticket", "user-1", nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "booking is not confirmed", decode[errorBody](t, rec).Error.Message)
}

// ---- GET /bookings/export --------------------------------------------------

// pagedBookings serves all in pages the way the ledger does.
func pagedBookings(all []domain.Booking) func(context.Context, string, domain.PageRequest) ([]domain.Booking, int64, error) {
	return func(_ context.Context, _ string, p domain.PageRequest) ([]domain.Booking, int64, error) {
		start, end := p.Bounds(len(all))
		return all[start:end], int64(len(all)), nil
	}
}

func TestExportBookings_CSV(t *testing.T) {
	fixture := bookingFixture("user-1")
	h := newHTTPHandler(deps{query: &mockQuery{listBookings: pagedBookings([]domain.Booking{fixture})}})

	rec := do(t, h, http.MethodGet, "/bookings/export?format=csv", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "booking_id", records[0][0])
	assert.Equal(t, fixture.ID.String(), records[1][0])
	assert.Equal(t, "", records[1][3])
	assert.Equal(t, "3", records[1][9])
	assert.Equal(t, "Amina", records[1][11])
	assert.Equal(t, "1500.00", records[1][12])
	assert.Equal(t, "Brian", records[2][11])
}

func TestExportBookings_JSONWalksAllPages(t *testing.T) {
	all := make([]domain.Booking, 150)
	for i := range all {
		all[i] = bookingFixture("user-1")
	}
	h := newHTTPHandler(deps{query: &mockQuery{listBookings: pagedBookings(all)}})

	rec := do(t, h, http.MethodGet, "/bookings/export", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]map[string]any](t, rec)
	assert.Len(t, rows, 300)
}

func TestExportBookings_badFormat_400(t *testing.T) {
	h := newHTTPHandler(deps{})

	rec := do(t, h, http.MethodGet, "/bookings/export?format=pdf", "user-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
