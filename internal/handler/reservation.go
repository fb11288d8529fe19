package handler

import (
	"net/http"

	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/middleware"
)

// OpenReservation handles POST /reservations. It holds the requested seats
// for the caller and returns the new session.
func (s *Server) OpenReservation(w http.ResponseWriter, r *http.Request) {
	var req openReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.sessions.Open(r.Context(), middleware.UserFrom(r.Context()), req.TripID, req.Seats)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
}

// GetReservation handles GET /reservations/{sessionID}.
func (s *Server) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	sess, err := s.sessions.Get(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// AttachPassengers handles PUT /reservations/{sessionID}/passengers.
// Passengers are matched to the held seats in ascending seat order.
func (s *Server) AttachPassengers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	var req attachPassengersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.sessions.AttachPassengers(r.Context(), middleware.UserFrom(r.Context()), id, passengersToDomain(req.Passengers))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// ConfirmReservation handles POST /reservations/{sessionID}/confirm.
func (s *Server) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := s.sessions.Confirm(r.Context(), middleware.UserFrom(r.Context()), id, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingToResponse(b))
}

// ReleaseReservation handles DELETE /reservations/{sessionID}.
func (s *Server) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	if err := s.sessions.Release(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
