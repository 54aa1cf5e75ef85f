// Package handlers implements the conntrace HTTP API.
package handlers

import (
	"net/http"

	"github.com/conntrace-systems/conntrace/internal/httputil"
	"github.com/conntrace-systems/conntrace/internal/service"
)

// Handler owns the HTTP endpoints and delegates to the pipeline service.
type Handler struct {
	svc *service.Service
}

// New creates a Handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
