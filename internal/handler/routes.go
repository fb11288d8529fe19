package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/samuelmuhia/booking-website/internal/middleware"
)

// RouteOptions carries the per-route middleware the Server needs.
type RouteOptions struct {
	// Authenticate identifies the caller. Required.
	Authenticate func(http.Handler) http.Handler
	// Idempotent, when set, wraps the POST routes that create or cancel.
	Idempotent func(http.Handler) http.Handler
	// OpenAPI is served verbatim at GET /openapi.yaml when non-empty.
	OpenAPI []byte
}

// Routes returns a router with every API endpoint registered.
func (s *Server) Routes(opts RouteOptions) chi.Router {
	idempotent := opts.Idempotent
	if idempotent == nil {
		idempotent = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/healthz", s.GetHealth)
	if len(opts.OpenAPI) > 0 {
		r.Get("/openapi.yaml", s.serveOpenAPI(opts.OpenAPI))
	}

	r.Post("/auth/register", s.Register)
	r.Post("/auth/login", s.Login)

	r.Get("/trips", s.SearchTrips)
	r.Get("/trips/{tripID}", s.GetTrip)
	r.Get("/trips/{tripID}/seats", s.GetSeatMap)

	r.Group(func(r chi.Router) {
		r.Use(opts.Authenticate)

		r.With(middleware.RequireRole(middleware.RoleAdmin)).Post("/trips", s.PublishTrip)

		r.With(idempotent).Post("/reservations", s.OpenReservation)
		r.Get("/reservations/{sessionID}", s.GetReservation)
		r.Put("/reservations/{sessionID}/passengers", s.AttachPassengers)
		r.With(idempotent).Post("/reservations/{sessionID}/confirm", s.ConfirmReservation)
		r.Delete("/reservations/{sessionID}", s.ReleaseReservation)

		r.Get("/bookings", s.ListBookings)
		r.Get("/bookings/export", s.ExportBookings)
		r.Get("/bookings/{bookingID}", s.GetBooking)
		r.With(idempotent).Post("/bookings/{bookingID}/cancel", s.CancelBooking)
		r.Get("/bookings/{bookingID}/ticket", s.GetTicket)
	})
	return r
}

func (s *Server) serveOpenAPI(doc []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(doc)
	}
}
