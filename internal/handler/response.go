package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into dst. It writes the error
// response itself and reports false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "bad_request", "request body is required")
		default:
			writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON: "+err.Error())
		}
		return false
	}
	return true
}

// pathUUID binds the {name} path parameter as a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid %s: must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// pageParams binds the optional page and limit query parameters.
func pageParams(w http.ResponseWriter, r *http.Request) (domain.PageRequest, bool) {
	var page, limit *int
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "page must be an integer")
		return domain.PageRequest{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "limit must be an integer")
		return domain.PageRequest{}, false
	}
	return domain.NewPageRequest(page, limit), true
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type pageResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination pagination `json:"pagination"`
}

func newPage[T any](data []T, p domain.PageRequest, total int64) pageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return pageResponse[T]{
		Data:       data,
		Pagination: pagination{Page: p.Page, Limit: p.Limit, Total: total},
	}
}
