// Package report assembles verifiable CSV and PDF export artifacts from a
// projected event sequence and the criteria that produced it.
//
// Every artifact embeds a SHA-256 content hash computed over an explicitly
// scoped payload, so a recipient can re-derive the hash from the data alone
// and compare it with the embedded value. The generation timestamp is the
// only non-deterministic input: callers pass it in, and pinning it makes
// assembly idempotent byte-for-byte.
package report

import (
	"fmt"
	"time"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// DefaultMaxRows caps rendered rows when the caller does not set a cap.
const DefaultMaxRows = 100

// ExportError reports a serialization or rendering failure while assembling
// an artifact. It is fatal for the request; no partial artifact is returned.
type ExportError struct {
	Format models.ReportFormat
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("assemble %s report: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Assemble renders events into a report artifact of the requested format.
// An empty event sequence is valid and still yields a complete artifact with
// correct metadata. maxRows <= 0 selects DefaultMaxRows; when the cap
// truncates the sequence the artifact carries a visible truncation marker,
// which recipients of a partial legal export must be able to see.
func Assemble(criteria models.SearchCriteria, events []models.LogEvent, format models.ReportFormat, maxRows int, generatedAt time.Time) (*models.ReportArtifact, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	truncated := len(events) > maxRows
	if truncated {
		events = events[:maxRows]
	}

	artifact := &models.ReportArtifact{
		Format:           format,
		RecordCount:      len(events),
		Truncated:        truncated,
		GeneratedAt:      generatedAt.UTC(),
		CriteriaSnapshot: criteria,
	}

	switch format {
	case models.ReportFormatCSV:
		data, hash, err := buildCSV(criteria, events, truncated, artifact.GeneratedAt)
		if err != nil {
			return nil, &ExportError{Format: format, Err: err}
		}
		artifact.Data = data
		artifact.ContentHash = hash
	case models.ReportFormatPDF:
		data, hash, err := buildPDF(criteria, events, truncated, artifact.GeneratedAt)
		if err != nil {
			return nil, &ExportError{Format: format, Err: err}
		}
		artifact.Data = data
		artifact.ContentHash = hash
	default:
		return nil, &ExportError{Format: format, Err: fmt.Errorf("unsupported format %q", format)}
	}

	return artifact, nil
}
