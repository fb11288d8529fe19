package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps an error kind from the service layer to its status
// code. Errors of no known kind are logged and reported as 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", unwrapMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", unwrapMessage(err))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrExpired):
		writeError(w, http.StatusGone, "expired", unwrapMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", unwrapMessage(err))
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// kindPrefixes are the error kind texts that carry no information once the
// status code has been chosen.
var kindPrefixes = []string{
	domain.ErrConflict.Error() + ": ",
	domain.ErrValidation.Error() + ": ",
	domain.ErrUnauthorized.Error() + ": ",
}

// unwrapMessage strips operation prefixes and the leading kind from a wrapped
// error, leaving the human-readable part.
// e.g. "service.ReservationService.Open: inventory.Hold: conflict: seat unavailable: seat 3 is held"
// becomes "seat unavailable: seat 3 is held".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		head, rest, ok := strings.Cut(msg, ": ")
		if !ok || !isOperation(head) {
			break
		}
		msg = rest
	}
	for _, prefix := range kindPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return msg[len(prefix):]
		}
	}
	return msg
}

// isOperation reports whether s looks like "pkg.Func" or "pkg.Type.Method".
func isOperation(s string) bool {
	return strings.Contains(s, ".") && !strings.ContainsAny(s, " []")
}
