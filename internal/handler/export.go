package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/middleware"
)

// csvHeaders is the first row of a CSV export.
var csvHeaders = []string{
	"booking_id", "status", "booked_at", "cancelled_at",
	"operator", "origin", "destination", "service_date", "departure_time",
	"seat", "tier", "passenger", "unit_fare", "payment_method",
}

type exportRow struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	Status        string     `json:"status"`
	BookedAt      time.Time  `json:"booked_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	OperatorName  string     `json:"operator"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	ServiceDate   string     `json:"service_date"`
	DepartureTime string     `json:"departure_time"`
	SeatNumber    int        `json:"seat"`
	SeatTier      string     `json:"tier"`
	Passenger     string     `json:"passenger"`
	UnitFare      int64      `json:"unit_fare"`
	PaymentMethod string     `json:"payment_method"`
}

// ExportBookings handles GET /bookings/export.
// It returns every booking of the caller flattened to one row per seat.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportBookings(w http.ResponseWriter, r *http.Request) {
	var format string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil ||
		(format != "" && format != "csv" && format != "json") {
		writeError(w, http.StatusBadRequest, "bad_request", "format must be csv or json")
		return
	}

	bookings, err := s.allBookings(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	rows := domain.ExportRows(bookings)

	if format == "csv" {
		writeCSV(w, rows)
		return
	}
	out := make([]exportRow, len(rows))
	for i, row := range rows {
		out[i] = domainRowToExportRow(row)
	}
	writeJSON(w, http.StatusOK, out)
}

// allBookings walks every page of the caller's bookings.
func (s *Server) allBookings(r *http.Request) ([]domain.Booking, error) {
	limit := domain.MaxPageLimit
	var all []domain.Booking
	for page := 1; ; page++ {
		p := page
		batch, total, err := s.query.ListBookings(r.Context(), middleware.UserFrom(r.Context()), domain.NewPageRequest(&p, &limit))
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || int64(len(all)) >= total {
			return all, nil
		}
	}
}

// writeCSV encodes rows as CSV. bytes.Buffer writes never fail, so the
// writer's errors are not checked.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(domainRowToCSVRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func domainRowToExportRow(r domain.ExportRow) exportRow {
	return exportRow{
		BookingID:     r.BookingID,
		Status:        string(r.Status),
		BookedAt:      r.BookedAt,
		CancelledAt:   r.CancelledAt,
		OperatorName:  r.OperatorName,
		Origin:        r.Origin,
		Destination:   r.Destination,
		ServiceDate:   r.ServiceDate,
		DepartureTime: r.DepartureTime,
		SeatNumber:    r.SeatNumber,
		SeatTier:      string(r.SeatTier),
		Passenger:     r.Passenger,
		UnitFare:      int64(r.UnitFare),
		PaymentMethod: string(r.PaymentMethod),
	}
}

// domainRowToCSVRecord encodes a row as strings. Fares are written as
// decimal amounts; a nil cancellation time becomes an empty field.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.BookingID.String(),
		string(r.Status),
		r.BookedAt.UTC().Format(time.RFC3339),
		formatOptionalTime(r.CancelledAt),
		r.OperatorName,
		r.Origin,
		r.Destination,
		r.ServiceDate,
		r.DepartureTime,
		strconv.Itoa(r.SeatNumber),
		string(r.SeatTier),
		r.Passenger,
		r.UnitFare.String(),
		string(r.PaymentMethod),
	}
}

// formatOptionalTime returns the RFC3339 form of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
