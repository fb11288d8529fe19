package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetHealth_returns200WithOKStatus verifies that GET /healthz returns
// HTTP 200 and a JSON body of {"status":"ok"} without authentication.
func TestGetHealth_returns200WithOKStatus(t *testing.T) {
	h := newHTTPHandler(deps{})

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestOpenAPI_served(t *testing.T) {
	h := newHTTPHandler(deps{})

	rec := do(t, h, http.MethodGet, "/openapi.yaml", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
}

func TestUnknownRoute_404JSON(t *testing.T) {
	h := newHTTPHandler(deps{})

	rec := do(t, h, http.MethodGet, "/nowhere", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Code)
}
