// Package server assembles the HTTP router and middleware chain.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conntrace-systems/conntrace/internal/handlers"
	"github.com/conntrace-systems/conntrace/internal/middleware"
)

// Config holds router-level settings.
type Config struct {
	AllowedOrigins []string
	JWTSecret      string
}

// NewRouter constructs the API router with the standard middleware chain:
// request-id propagation, CORS, and bearer-identity extraction for audit
// attribution.
func NewRouter(h *handlers.Handler, cfg Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", h.Search)
	mux.HandleFunc("/api/v1/reports/csv", h.ExportCSV)
	mux.HandleFunc("/api/v1/reports/pdf", h.ExportPDF)
	mux.HandleFunc("/api/v1/reports/verify/", h.VerifyReport)
	mux.HandleFunc("/healthz", h.Health)
	mux.Handle("/metrics", promhttp.Handler())

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	})

	var handler http.Handler = mux
	handler = middleware.Identity(cfg.JWTSecret)(handler)
	handler = cors(handler)
	handler = middleware.RequestID(handler)
	return handler
}
