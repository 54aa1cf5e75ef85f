package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conntrace-systems/conntrace/internal/models"
)

var fixedGeneratedAt = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func sampleEvents(n int) []models.LogEvent {
	events := make([]models.LogEvent, 0, n)
	base := time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		events = append(events, models.LogEvent{
			Timestamp:        base.Add(time.Duration(i) * time.Second),
			SourceIP:         "100.64.12.7",
			SourcePort:       50000 + i,
			NatIP:            "177.45.123.45",
			NatPort:          40000 + i,
			DestIP:           "93.184.216.34",
			DestPort:         443,
			Protocol:         models.ProtocolTCP,
			SessionID:        fmt.Sprintf("sess-%04d", i),
			User:             "assinante-3301",
			ObserverHostname: "cgnat-gw-01.isp.example",
		})
	}
	return events
}

func sampleCriteria() models.SearchCriteria {
	port := 40123
	start := time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	return models.SearchCriteria{
		PublicIP:   "177.45.123.45",
		PublicPort: &port,
		Start:      &start,
		End:        &end,
		Timezone:   models.DefaultTimezone,
		Limit:      100,
	}
}

func TestAssembleCSVHeader(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), sampleEvents(3), models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)

	payload := string(StripPreamble(artifact.Data))
	lines := strings.Split(payload, "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, CSVHeader, lines[0])
	assert.Len(t, lines, 4) // header + 3 data rows
}

func TestAssembleCSVHashCoversPayloadOnly(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), sampleEvents(5), models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)

	// The embedded hash must be re-derivable from the stripped payload.
	assert.Equal(t, artifact.ContentHash, HashPayload(StripPreamble(artifact.Data)))
	assert.Contains(t, string(artifact.Data), "SHA-256 hash: "+artifact.ContentHash)
	assert.Len(t, artifact.ContentHash, 64)
}

func TestAssembleCSVIdempotent(t *testing.T) {
	first, err := Assemble(sampleCriteria(), sampleEvents(10), models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)
	second, err := Assemble(sampleCriteria(), sampleEvents(10), models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first.Data, second.Data), "pinned timestamp must yield identical bytes")
	assert.Equal(t, first.ContentHash, second.ContentHash)
}

func TestAssembleCSVEscaping(t *testing.T) {
	events := sampleEvents(1)
	events[0].User = `O"Hara, Jr.`
	events[0].ObserverHostname = "line\nbreak"

	artifact, err := Assemble(sampleCriteria(), events, models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)

	payload := string(StripPreamble(artifact.Data))
	assert.Contains(t, payload, `"O""Hara, Jr."`)
	assert.Contains(t, payload, "\"line\nbreak\"")
}

func TestAssembleCSVZeroPortsRenderEmpty(t *testing.T) {
	events := sampleEvents(1)
	events[0].DestPort = 0

	artifact, err := Assemble(sampleCriteria(), events, models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)

	rows := strings.Split(string(StripPreamble(artifact.Data)), "\n")
	fields := strings.Split(rows[1], ",")
	assert.Equal(t, "", fields[6], "absent destination port renders as empty field")
}

func TestAssembleTruncation(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), sampleEvents(150), models.ReportFormatCSV, 100, fixedGeneratedAt)
	require.NoError(t, err)

	assert.True(t, artifact.Truncated)
	assert.Equal(t, 100, artifact.RecordCount)
	assert.Contains(t, string(artifact.Data), "NOTICE: partial export, truncated to 100 records")

	rows := strings.Split(string(StripPreamble(artifact.Data)), "\n")
	assert.Len(t, rows, 101) // header + 100 rows
}

func TestAssembleNoTruncationUnderCap(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), sampleEvents(50), models.ReportFormatCSV, 100, fixedGeneratedAt)
	require.NoError(t, err)

	assert.False(t, artifact.Truncated)
	assert.Equal(t, 50, artifact.RecordCount)
	assert.NotContains(t, string(artifact.Data), "NOTICE")
}

func TestAssembleExactlyAtCapNotTruncated(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), sampleEvents(100), models.ReportFormatCSV, 100, fixedGeneratedAt)
	require.NoError(t, err)
	assert.False(t, artifact.Truncated)
}

func TestAssembleEmptyEventSet(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), nil, models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)

	assert.Equal(t, 0, artifact.RecordCount)
	assert.False(t, artifact.Truncated)
	assert.Contains(t, string(artifact.Data), "Total records: 0")
	assert.Equal(t, CSVHeader, string(StripPreamble(artifact.Data)))
}

func TestAssemblePDF(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), sampleEvents(5), models.ReportFormatPDF, 0, fixedGeneratedAt)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF-")), "artifact must be a PDF document")
	assert.Len(t, artifact.ContentHash, 64)
	assert.Equal(t, 5, artifact.RecordCount)
}

func TestAssemblePDFIdempotent(t *testing.T) {
	first, err := Assemble(sampleCriteria(), sampleEvents(5), models.ReportFormatPDF, 0, fixedGeneratedAt)
	require.NoError(t, err)
	second, err := Assemble(sampleCriteria(), sampleEvents(5), models.ReportFormatPDF, 0, fixedGeneratedAt)
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.True(t, bytes.Equal(first.Data, second.Data), "pinned timestamp must yield identical PDF bytes")
}

func TestAssemblePDFHashMatchesCanonicalContent(t *testing.T) {
	events := sampleEvents(3)
	criteria := sampleCriteria()

	artifact, err := Assemble(criteria, events, models.ReportFormatPDF, 0, fixedGeneratedAt)
	require.NoError(t, err)

	want, err := hashPDFContent(criteria, events, fixedGeneratedAt)
	require.NoError(t, err)
	assert.Equal(t, want, artifact.ContentHash)
}

func TestAssemblePDFTruncationOverManyPages(t *testing.T) {
	artifact, err := Assemble(sampleCriteria(), sampleEvents(300), models.ReportFormatPDF, 250, fixedGeneratedAt)
	require.NoError(t, err)
	assert.True(t, artifact.Truncated)
	assert.Equal(t, 250, artifact.RecordCount)
}

func TestAssembleUnsupportedFormat(t *testing.T) {
	_, err := Assemble(sampleCriteria(), sampleEvents(1), models.ReportFormat("xlsx"), 0, fixedGeneratedAt)
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, models.ReportFormat("xlsx"), exportErr.Format)
}

func TestArtifactFilename(t *testing.T) {
	csvArtifact, err := Assemble(sampleCriteria(), nil, models.ReportFormatCSV, 0, fixedGeneratedAt)
	require.NoError(t, err)
	pdfArtifact, err := Assemble(sampleCriteria(), nil, models.ReportFormatPDF, 0, fixedGeneratedAt)
	require.NoError(t, err)

	ms := fixedGeneratedAt.UnixMilli()
	assert.Equal(t, fmt.Sprintf("logs-cgnat-%d.csv", ms), csvArtifact.Filename())
	assert.Equal(t, fmt.Sprintf("report-cgnat-%d.pdf", ms), pdfArtifact.Filename())
}
