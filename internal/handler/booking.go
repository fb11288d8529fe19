package handler

import (
	"net/http"

	"github.com/samuelmuhia/booking-website/internal/middleware"
)

// ListBookings handles GET /bookings. Newest bookings come first.
func (s *Server) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}
	bookings, total, err := s.query.ListBookings(r.Context(), middleware.UserFrom(r.Context()), page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	data := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		data[i] = bookingToResponse(b)
	}
	writeJSON(w, http.StatusOK, newPage(data, page, total))
}

// GetBooking handles GET /bookings/{bookingID}.
func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	b, err := s.bookings.Get(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// CancelBooking handles POST /bookings/{bookingID}/cancel.
func (s *Server) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	refund, err := s.bookings.Cancel(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refundResponse{
		BookingID:    refund.BookingID,
		RefundAmount: int64(refund.RefundAmount),
		FeeAmount:    int64(refund.FeeAmount),
	})
}

// GetTicket handles GET /bookings/{bookingID}/ticket as plain text.
func (s *Server) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	ticket, err := s.bookings.Ticket(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ticket-`+id.String()+`.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ticket))
}
