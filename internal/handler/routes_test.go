package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/handler"
	"github.com/samuelmuhia/booking-website/internal/middleware"
)

func TestRoutes_idempotentOnlyOnCreatingPosts(t *testing.T) {
	sessions := &mockSessions{
		confirm: func(context.Context, string, uuid.UUID, domain.PaymentMethod) (domain.Booking, error) {
			return bookingFixture("user-1"), nil
		},
		release: func(context.Context, string, uuid.UUID) error { return nil },
	}
	srv := handler.NewServer(sessions, &mockBookings{}, &mockQuery{}, &mockCatalog{}, &mockAuth{}, nil)
	marked := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Idempotent", "yes")
			next.ServeHTTP(w, r)
		})
	}
	h := srv.Routes(handler.RouteOptions{
		Authenticate: middleware.NewAuthenticator(testSecret),
		Idempotent:   marked,
	})
	id := uuid.NewString()

	confirm := do(t, h, http.MethodPost, "/reservations/"+id+"/confirm", "user-1", map[string]any{"payment_method": "cash"})
	release := do(t, h, http.MethodDelete, "/reservations/"+id, "user-1", nil)

	assert.Equal(t, "yes", confirm.Header().Get("X-Idempotent"))
	assert.Empty(t, release.Header().Get("X-Idempotent"))
}

func TestRoutes_openAPIOmittedWhenEmpty(t *testing.T) {
	srv := handler.NewHealthHandler()
	h := srv.Routes(handler.RouteOptions{Authenticate: middleware.NewAuthenticator(testSecret)})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
