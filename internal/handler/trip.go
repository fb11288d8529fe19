package handler

import (
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

// SearchTrips handles GET /trips.
// Supports ?origin=, ?destination=, ?date= (substring of YYYY-MM-DD), ?page= and ?limit=.
func (s *Server) SearchTrips(w http.ResponseWriter, r *http.Request) {
	var f domain.TripFilter
	for name, dst := range map[string]*string{
		"origin":      &f.Origin,
		"destination": &f.Destination,
		"date":        &f.Date,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid "+name)
			return
		}
	}
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	found, total, err := s.query.SearchTrips(r.Context(), f, page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	data := make([]tripResponse, len(found))
	for i, a := range found {
		data[i] = availabilityToResponse(a)
	}
	writeJSON(w, http.StatusOK, newPage(data, page, total))
}

// PublishTrip handles POST /trips.
func (s *Server) PublishTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := s.catalog.Publish(r.Context(), req.toDomain())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	found, err := s.query.GetTrip(r.Context(), tripID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityToResponse(found))
}

// GetSeatMap handles GET /trips/{tripID}/seats.
func (s *Server) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	seats, err := s.query.SeatMap(r.Context(), tripID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seatsToResponse(seats))
}
