// Package models defines the request, response and domain types shared by
// the conntrace query and report pipeline.
package models

import (
	"strconv"
	"time"
)

// Protocol values produced by the result projector. Transport strings the
// backend reports outside this set are passed through verbatim.
const (
	ProtocolTCP = "TCP"
	ProtocolUDP = "UDP"
)

// DefaultTimezone is the zone applied when a search request omits one.
const DefaultTimezone = "America/Sao_Paulo"

// MaxPageSize is the hard system-wide ceiling on backend page sizes. It
// bounds memory use in the export pipeline and is enforced both when
// criteria are normalized and again when the backend query is built.
const MaxPageSize = 5000

// DefaultLimit is the page size used when a request does not specify one.
const DefaultLimit = 100

// RawSearchRequest carries the loosely-typed criteria fields exactly as they
// arrive at the API boundary. Every field is optional; the normalizer turns
// this into a SearchCriteria or rejects it naming the offending field.
type RawSearchRequest struct {
	PublicIP   string `json:"publicIp"`
	PublicPort string `json:"publicPort"`
	PrivateIP  string `json:"privateIp"`
	StartDate  string `json:"startDate"`
	StartTime  string `json:"startTime"`
	EndDate    string `json:"endDate"`
	EndTime    string `json:"endTime"`
	Timezone   string `json:"timezone"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// SearchCriteria is the validated, canonical form of a search request.
// Start and End are resolved UTC instants; the original local date/time
// fields are retained for report summaries.
type SearchCriteria struct {
	PublicIP   string     `json:"publicIp,omitempty"`
	PublicPort *int       `json:"publicPort,omitempty"`
	PrivateIP  string     `json:"privateIp,omitempty"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	StartDate  string     `json:"startDate,omitempty"`
	StartTime  string     `json:"startTime,omitempty"`
	EndDate    string     `json:"endDate,omitempty"`
	EndTime    string     `json:"endTime,omitempty"`
	Timezone   string     `json:"timezone"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// LogEvent is one projected NAT/CGNAT connection record. Values are owned by
// the pipeline invocation that produced them and are never mutated after
// projection.
type LogEvent struct {
	Timestamp        time.Time `json:"timestamp"`
	SourceIP         string    `json:"sourceIp,omitempty"`
	SourcePort       int       `json:"sourcePort,omitempty"`
	NatIP            string    `json:"natIp,omitempty"`
	NatPort          int       `json:"natPort,omitempty"`
	DestIP           string    `json:"destIp,omitempty"`
	DestPort         int       `json:"destPort,omitempty"`
	Protocol         string    `json:"protocol,omitempty"`
	SessionID        string    `json:"sessionId,omitempty"`
	User             string    `json:"user,omitempty"`
	ObserverHostname string    `json:"observerHostname,omitempty"`
}

// SearchResponse is the API-facing result of one search call.
type SearchResponse struct {
	Events      []LogEvent `json:"events"`
	Total       int        `json:"total"`
	Took        int        `json:"took"`
	Page        int        `json:"page"`
	PageSize    int        `json:"pageSize"`
	ParseErrors int        `json:"parse_errors"`
	Degraded    bool       `json:"degraded,omitempty"`
}

// ReportFormat identifies the artifact encoding.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportRequest is the body accepted by the export endpoints. Events are
// supplied by the caller so a report can be regenerated from a stored result
// set without re-querying the backend.
type ReportRequest struct {
	SearchParams RawSearchRequest `json:"search_params"`
	Events       []LogEvent       `json:"events"`
	MaxRows      int              `json:"max_rows,omitempty"`
}

// ReportArtifact is a generated export. Constructed once per request, never
// mutated, discarded after transfer to the caller.
type ReportArtifact struct {
	Format           ReportFormat
	Data             []byte
	ContentHash      string
	RecordCount      int
	Truncated        bool
	GeneratedAt      time.Time
	CriteriaSnapshot SearchCriteria
}

// Filename derives the download name embedded in Content-Disposition.
func (a *ReportArtifact) Filename() string {
	ms := strconv.FormatInt(a.GeneratedAt.UnixMilli(), 10)
	if a.Format == ReportFormatPDF {
		return "report-cgnat-" + ms + ".pdf"
	}
	return "logs-cgnat-" + ms + ".csv"
}

// VerificationRecord is what the report-hash registry stores per artifact so
// a verifier can confirm an issued hash without re-deriving it.
type VerificationRecord struct {
	Hash        string         `json:"hash"`
	Format      ReportFormat   `json:"format"`
	Records     int            `json:"records"`
	Truncated   bool           `json:"truncated"`
	GeneratedAt time.Time      `json:"generated_at"`
	Criteria    SearchCriteria `json:"criteria"`
}
