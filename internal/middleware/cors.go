// Package middleware provides the HTTP middleware of the booking API:
// request logging, CORS, body limits, bearer authentication, and
// idempotent replay of POST responses.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler applies CORS headers for allowedOrigins. Each origin is a
// full scheme and host with no trailing slash.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", IdempotencyKeyHeader},
		ExposedHeaders: []string{IdempotencyReplayedHeader},
	})
	return c.Handler
}
