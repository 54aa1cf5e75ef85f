package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/conntrace-systems/conntrace/internal/criteria"
	"github.com/conntrace-systems/conntrace/internal/httputil"
	"github.com/conntrace-systems/conntrace/internal/metrics"
	"github.com/conntrace-systems/conntrace/internal/models"
	"github.com/conntrace-systems/conntrace/internal/report"
	"github.com/conntrace-systems/conntrace/internal/sample"
)

// ErrPlaceholderExport rejects export requests carrying degraded-mode
// placeholder events. Placeholder data must never become a compliance
// artifact.
var ErrPlaceholderExport = errors.New("placeholder results cannot be exported")

// Export assembles a report artifact from a previously obtained event set
// and the originating criteria, and emits exactly one audit entry for it.
// An empty event set is valid; placeholder events are refused.
func (s *Service) Export(ctx context.Context, req models.ReportRequest, format models.ReportFormat, reqCtx httputil.RequestContext, actor string) (*models.ReportArtifact, error) {
	c, err := criteria.Normalize(req.SearchParams)
	if err != nil {
		return nil, err
	}

	if sample.ContainsPlaceholder(req.Events) {
		return nil, ErrPlaceholderExport
	}

	start := time.Now()
	artifact, err := report.Assemble(c, req.Events, format, req.MaxRows, s.now())
	metrics.ExportDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ExportsTotal.WithLabelValues(string(format), "error").Inc()
		return nil, err
	}
	metrics.ExportsTotal.WithLabelValues(string(format), "ok").Inc()

	if s.registry != nil {
		// Best effort: a registry outage must not fail the export itself.
		if err := s.registry.Register(ctx, artifact); err != nil {
			slog.Warn("failed to register report hash",
				slog.String("hash", artifact.ContentHash),
				slog.String("error", err.Error()))
		}
	}

	action := models.AuditActionExportCSV
	if format == models.ReportFormatPDF {
		action = models.AuditActionExportPDF
	}
	s.record(action, actor, reqCtx.ClientIP, reqCtx.UserAgent, map[string]interface{}{
		"hash":      artifact.ContentHash,
		"records":   artifact.RecordCount,
		"truncated": artifact.Truncated,
		"criteria":  c,
	})

	return artifact, nil
}

// VerifyReport looks up the verification record for a previously issued
// artifact hash.
func (s *Service) VerifyReport(ctx context.Context, hash string) (*models.VerificationRecord, error) {
	if s.registry == nil {
		return nil, report.ErrNotRegistered
	}
	return s.registry.Lookup(ctx, hash)
}
