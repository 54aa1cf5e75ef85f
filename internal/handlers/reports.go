package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/conntrace-systems/conntrace/internal/criteria"
	"github.com/conntrace-systems/conntrace/internal/httputil"
	"github.com/conntrace-systems/conntrace/internal/middleware"
	"github.com/conntrace-systems/conntrace/internal/models"
	"github.com/conntrace-systems/conntrace/internal/report"
	"github.com/conntrace-systems/conntrace/internal/service"
)

// ExportCSV handles POST /api/v1/reports/csv requests.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, models.ReportFormatCSV)
}

// ExportPDF handles POST /api/v1/reports/pdf requests.
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, models.ReportFormatPDF)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format models.ReportFormat) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reqCtx := httputil.NewRequestContext(r)
	actor := middleware.GetActor(r.Context()).Identity()

	artifact, err := h.svc.Export(r.Context(), req, format, reqCtx, actor)
	if err != nil {
		var vErr *criteria.ValidationError
		var eErr *report.ExportError
		switch {
		case errors.As(err, &vErr):
			httputil.WriteFieldError(w, http.StatusBadRequest, vErr.Field, vErr.Message)
		case errors.Is(err, service.ErrPlaceholderExport):
			httputil.WriteError(w, http.StatusUnprocessableEntity, "placeholder results cannot be exported as a compliance report")
		case errors.As(err, &eErr):
			slog.Error("report generation failed",
				slog.String("format", string(format)),
				slog.String("error", err.Error()))
			httputil.WriteError(w, http.StatusInternalServerError, "failed to generate report")
		default:
			slog.Error("export failed", slog.String("error", err.Error()))
			httputil.WriteError(w, http.StatusInternalServerError, "failed to generate report")
		}
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename()))
	w.Header().Set("X-Report-Hash", artifact.ContentHash)
	w.Header().Set("X-Report-Records", strconv.Itoa(artifact.RecordCount))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		slog.Error("failed to write report body", slog.String("error", err.Error()))
	}
}

// VerifyReport handles GET /api/v1/reports/verify/{hash} requests.
func (h *Handler) VerifyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	hash := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/verify/")
	if hash == "" || strings.Contains(hash, "/") {
		httputil.WriteError(w, http.StatusBadRequest, "missing report hash")
		return
	}

	rec, err := h.svc.VerifyReport(r.Context(), hash)
	if err != nil {
		if errors.Is(err, report.ErrNotRegistered) {
			httputil.WriteError(w, http.StatusNotFound, "report hash not registered")
			return
		}
		slog.Error("report verification failed", slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to verify report")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}
