// Package metrics exposes the Prometheus instrumentation for the query and
// report pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Search pipeline metrics
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conntrace_searches_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conntrace_search_duration_seconds",
			Help:    "Duration of backend search execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MalformedRecords is the parse-error signal: backend hits dropped by
	// the projector for missing mandatory geometry.
	MalformedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conntrace_malformed_records_total",
			Help: "Total backend hits dropped during projection",
		},
	)

	// Export metrics
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conntrace_exports_total",
			Help: "Total number of report exports by format and outcome",
		},
		[]string{"format", "status"},
	)

	ExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conntrace_export_duration_seconds",
			Help:    "Duration of report assembly in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	// Audit metrics
	AuditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conntrace_audit_entries_total",
			Help: "Total audit entries emitted by action",
		},
		[]string{"action"},
	)

	AuditDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conntrace_audit_dropped_total",
			Help: "Audit entries dropped because the recorder buffer was full",
		},
	)

	// DegradedResponses counts placeholder result sets served while the
	// backend was unreachable.
	DegradedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conntrace_degraded_responses_total",
			Help: "Search responses served from placeholder data",
		},
	)
)
