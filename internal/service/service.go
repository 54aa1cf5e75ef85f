// Package service orchestrates the query and report pipeline: criteria
// normalization, query building, backend execution, projection, report
// assembly and audit emission.
package service

import (
	"time"

	"github.com/conntrace-systems/conntrace/internal/audit"
	"github.com/conntrace-systems/conntrace/internal/client"
	"github.com/conntrace-systems/conntrace/internal/report"
)

// Service wires the pipeline stages together. Each request flows through as
// an independent, stateless, single-pass operation; the only shared state is
// the backend client, the audit recorder and the optional hash registry, all
// of which are safe for concurrent use.
type Service struct {
	backend  client.Searcher
	recorder *audit.Recorder
	registry *report.Registry

	// degradedPlaceholder serves a labeled placeholder result set when the
	// backend is unreachable instead of failing the search outright.
	degradedPlaceholder bool
	placeholderCount    int

	// now is the generation clock; injectable so tests can pin it.
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry attaches a report-hash registry; assembled artifacts are
// registered for later verification.
func WithRegistry(r *report.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithDegradedPlaceholder enables the labeled placeholder result set on
// backend failure.
func WithDegradedPlaceholder(count int) Option {
	return func(s *Service) {
		s.degradedPlaceholder = true
		if count > 0 {
			s.placeholderCount = count
		}
	}
}

// WithClock overrides the generation clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. recorder may be nil, in which case no audit
// entries are emitted (tests only; production always wires a recorder).
func New(backend client.Searcher, recorder *audit.Recorder, opts ...Option) *Service {
	s := &Service{
		backend:          backend,
		recorder:         recorder,
		placeholderCount: 1,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) record(action, actor, clientAddr, userAgent string, details map[string]interface{}) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(action, actor, clientAddr, userAgent, details)
}
