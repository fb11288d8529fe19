package handler

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
