package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// CSVHeader is the fixed header row of every CSV artifact, in this exact
// column order.
const CSVHeader = "timestamp,source_ip,source_port,nat_ip,nat_port,destination_ip,destination_port,protocol,session_id,user,observer_hostname"

// CommentPrefix marks the human-readable preamble lines prepended to the
// tabular payload. Stripping lines with this prefix recovers the exact bytes
// the content hash was computed over.
const CommentPrefix = "# "

// buildCSV renders the tabular payload, hashes it, then prepends the
// metadata preamble. The hash is computed strictly over the joined
// header+data rows so it is reproducible from the data rows alone,
// independent of the preamble (which contains the generation instant).
func buildCSV(criteria models.SearchCriteria, events []models.LogEvent, truncated bool, generatedAt time.Time) ([]byte, string, error) {
	rows := make([]string, 0, len(events)+1)
	rows = append(rows, CSVHeader)
	for _, ev := range events {
		rows = append(rows, csvRow(ev))
	}
	payload := strings.Join(rows, "\n")
	hash := HashPayload([]byte(payload))

	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return nil, "", fmt.Errorf("marshal criteria snapshot: %w", err)
	}

	var buf bytes.Buffer
	comment := func(format string, args ...interface{}) {
		buf.WriteString(CommentPrefix)
		fmt.Fprintf(&buf, format, args...)
		buf.WriteByte('\n')
	}

	comment("NAT/CGNAT Connection Log Report")
	comment("Generated at: %s", generatedAt.UTC().Format(time.RFC3339))
	comment("Total records: %d", len(events))
	comment("SHA-256 hash: %s", hash)
	comment("Search criteria: %s", criteriaJSON)
	if truncated {
		comment("NOTICE: partial export, truncated to %d records", len(events))
	}
	buf.WriteString("#\n")
	buf.WriteString(payload)
	buf.WriteByte('\n')

	return buf.Bytes(), hash, nil
}

func csvRow(ev models.LogEvent) string {
	fields := []string{
		ev.Timestamp.UTC().Format(time.RFC3339),
		ev.SourceIP,
		portField(ev.SourcePort),
		ev.NatIP,
		portField(ev.NatPort),
		ev.DestIP,
		portField(ev.DestPort),
		ev.Protocol,
		ev.SessionID,
		ev.User,
		ev.ObserverHostname,
	}
	for i, f := range fields {
		fields[i] = escapeCSV(f)
	}
	return strings.Join(fields, ",")
}

func portField(port int) string {
	if port == 0 {
		return ""
	}
	return strconv.Itoa(port)
}

// escapeCSV wraps a field in double quotes when it contains a comma, quote
// or newline, doubling internal quotes.
func escapeCSV(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// StripPreamble returns the tabular payload of a CSV artifact with the
// comment preamble removed, i.e. the exact bytes the embedded hash covers.
func StripPreamble(artifact []byte) []byte {
	lines := strings.Split(string(artifact), "\n")
	start := 0
	for start < len(lines) && strings.HasPrefix(lines[start], "#") {
		start++
	}
	payload := strings.Join(lines[start:], "\n")
	return []byte(strings.TrimSuffix(payload, "\n"))
}
