package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type userSlotKey struct{}

// NewSlogLogger logs one structured line per request with method, path,
// status, duration, request id, and the authenticated user if any.
//
// Wire it after chimiddleware.RequestID so the request id is available.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// Authentication runs further down the chain and fills the slot.
			var userID string
			ctx := context.WithValue(r.Context(), userSlotKey{}, &userID)

			next.ServeHTTP(ww, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if userID != "" {
				attrs = append(attrs, "user_id", userID)
			}
			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "request", attrs...)
		})
	}
}

// noteUser records the authenticated user for the request logger.
func noteUser(ctx context.Context, userID string) {
	if slot, ok := ctx.Value(userSlotKey{}).(*string); ok {
		*slot = userID
	}
}
