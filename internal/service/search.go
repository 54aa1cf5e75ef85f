package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conntrace-systems/conntrace/internal/client"
	"github.com/conntrace-systems/conntrace/internal/criteria"
	"github.com/conntrace-systems/conntrace/internal/httputil"
	"github.com/conntrace-systems/conntrace/internal/metrics"
	"github.com/conntrace-systems/conntrace/internal/models"
	"github.com/conntrace-systems/conntrace/internal/projector"
	"github.com/conntrace-systems/conntrace/internal/query"
	"github.com/conntrace-systems/conntrace/internal/sample"
)

// Search runs one search request through the pipeline and emits exactly one
// audit entry for it. Validation failures return a *criteria.ValidationError;
// an unreachable backend surfaces client.ErrUnavailable unless the degraded
// placeholder mode is enabled, in which case a clearly-labeled placeholder
// result set is served instead. There are no retries here: retrying is the
// caller's decision.
func (s *Service) Search(ctx context.Context, raw models.RawSearchRequest, reqCtx httputil.RequestContext, actor string) (*models.SearchResponse, error) {
	c, err := criteria.Normalize(raw)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	q := query.Build(c)

	start := time.Now()
	result, err := s.backend.Search(ctx, q)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, client.ErrUnavailable) && s.degradedPlaceholder {
			slog.Warn("search backend unavailable, serving placeholder data",
				slog.String("error", err.Error()))
			return s.placeholderResponse(c, reqCtx, actor), nil
		}
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		if errors.Is(err, client.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("execute search: %w", err)
	}

	events, malformed := projector.Project(result.Hits)
	if malformed > 0 {
		metrics.MalformedRecords.Add(float64(malformed))
		slog.Warn("dropped malformed backend hits", slog.Int("count", malformed))
	}

	metrics.SearchesTotal.WithLabelValues("ok").Inc()

	resp := &models.SearchResponse{
		Events:      events,
		Total:       result.Total,
		Took:        result.TookMS,
		Page:        c.Offset/c.Limit + 1,
		PageSize:    c.Limit,
		ParseErrors: malformed,
	}

	s.record(models.AuditActionSearch, actor, reqCtx.ClientIP, reqCtx.UserAgent, map[string]interface{}{
		"results":      len(events),
		"total":        result.Total,
		"parse_errors": malformed,
		"criteria":     c,
	})

	return resp, nil
}

// placeholderResponse builds the labeled degraded-mode result. The events
// carry placeholder markers and the response is flagged so the export path
// can refuse it; it must never be mistaken for real data.
func (s *Service) placeholderResponse(c models.SearchCriteria, reqCtx httputil.RequestContext, actor string) *models.SearchResponse {
	events := sample.Events(s.placeholderCount, s.now())

	metrics.SearchesTotal.WithLabelValues("degraded").Inc()
	metrics.DegradedResponses.Inc()

	s.record(models.AuditActionSearch, actor, reqCtx.ClientIP, reqCtx.UserAgent, map[string]interface{}{
		"results":  len(events),
		"total":    len(events),
		"degraded": true,
		"criteria": c,
	})

	return &models.SearchResponse{
		Events:   events,
		Total:    len(events),
		Took:     0,
		Page:     1,
		PageSize: c.Limit,
		Degraded: true,
	}
}
