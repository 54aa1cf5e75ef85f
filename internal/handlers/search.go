package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/conntrace-systems/conntrace/internal/client"
	"github.com/conntrace-systems/conntrace/internal/criteria"
	"github.com/conntrace-systems/conntrace/internal/httputil"
	"github.com/conntrace-systems/conntrace/internal/middleware"
	"github.com/conntrace-systems/conntrace/internal/models"
)

// Search handles POST /api/v1/search requests.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var raw models.RawSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reqCtx := httputil.NewRequestContext(r)
	actor := middleware.GetActor(r.Context()).Identity()

	resp, err := h.svc.Search(r.Context(), raw, reqCtx, actor)
	if err != nil {
		var vErr *criteria.ValidationError
		switch {
		case errors.As(err, &vErr):
			httputil.WriteFieldError(w, http.StatusBadRequest, vErr.Field, vErr.Message)
		case errors.Is(err, client.ErrUnavailable):
			// Distinct from zero results so the UI can show a degraded
			// service message; no internal details leak.
			slog.Error("search backend unavailable", slog.String("error", err.Error()))
			httputil.WriteError(w, http.StatusServiceUnavailable, "search service temporarily unavailable")
		default:
			slog.Error("search failed", slog.String("error", err.Error()))
			httputil.WriteError(w, http.StatusInternalServerError, "failed to search logs")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
