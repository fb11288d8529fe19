package middleware

import "net/http"

// NewMaxBodySizeHandler rejects requests whose body exceeds limit bytes with
// 413. A declared Content-Length over the limit is refused before the next
// handler runs; otherwise the body is wrapped in http.MaxBytesReader so an
// oversized stream fails when read.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
