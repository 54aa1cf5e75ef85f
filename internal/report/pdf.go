package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// retentionStatement is the fixed compliance text rendered on the integrity
// page. The 13-month floor is the minimum retention duration for connection
// records under the Brazilian connection-log retention rules the original
// deployments answer to.
const retentionStatement = "This report was generated in compliance with the applicable " +
	"regulatory framework for the retention of connection records, which mandates that " +
	"NAT/CGNAT logs remain available for a minimum retention period of 13 months under " +
	"adequate access controls."

// pageBreakY is the content-height threshold (mm, A4 portrait) past which a
// table row forces a new page.
const pageBreakY = 270.0

var tableColumns = []struct {
	title string
	width float64
}{
	{"Timestamp", 34},
	{"Source IP", 26},
	{"Port", 11},
	{"NAT IP", 26},
	{"Port", 11},
	{"Dest IP", 26},
	{"Port", 11},
	{"Proto", 12},
	{"User", 33},
}

// buildPDF renders the paginated tabular artifact. The embedded hash covers
// a canonical serialization of the criteria, the truncated event set and the
// generation instant; the document creation date is pinned to the same
// instant so identical inputs yield identical bytes.
func buildPDF(criteria models.SearchCriteria, events []models.LogEvent, truncated bool, generatedAt time.Time) ([]byte, string, error) {
	hash, err := hashPDFContent(criteria, events, generatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("hash report content: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	writeTitleBlock(pdf, criteria, len(events), truncated, generatedAt)
	writeTable(pdf, criteria, events)
	writeIntegrityPage(pdf, hash)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), hash, nil
}

func writeTitleBlock(pdf *gofpdf.Fpdf, criteria models.SearchCriteria, records int, truncated bool, generatedAt time.Time) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "NAT/CGNAT CONNECTION LOG REPORT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Connection Log Management Portal - Legal Compliance", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "SEARCH CRITERIA", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range criteriaSummary(criteria) {
		pdf.CellFormat(0, 5.5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	localTime := generatedAt.Format("2006-01-02 15:04:05 MST")
	if loc, err := time.LoadLocation(criteria.Timezone); err == nil {
		localTime = generatedAt.In(loc).Format("2006-01-02 15:04:05 MST")
	}
	pdf.CellFormat(0, 5.5, fmt.Sprintf("Generated at: %s (%s)", localTime, criteria.Timezone), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5.5, fmt.Sprintf("UTC timestamp: %s", generatedAt.UTC().Format(time.RFC3339)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5.5, fmt.Sprintf("Total records: %d", records), "", 1, "L", false, 0, "")
	if truncated {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 5.5, fmt.Sprintf("NOTICE: partial export, truncated to %d records", records), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Ln(6)
}

// criteriaSummary renders only the fields the operator actually set.
func criteriaSummary(c models.SearchCriteria) []string {
	var lines []string
	if c.PublicIP != "" {
		lines = append(lines, fmt.Sprintf("Public IP: %s", c.PublicIP))
	}
	if c.PublicPort != nil {
		lines = append(lines, fmt.Sprintf("Public port: %d", *c.PublicPort))
	}
	if c.PrivateIP != "" {
		lines = append(lines, fmt.Sprintf("Private IP: %s", c.PrivateIP))
	}
	if c.StartDate != "" {
		lines = append(lines, fmt.Sprintf("Start: %s %s", c.StartDate, c.StartTime))
	}
	if c.EndDate != "" {
		lines = append(lines, fmt.Sprintf("End: %s %s", c.EndDate, c.EndTime))
	}
	if len(lines) == 0 {
		lines = append(lines, "(no filters: unbounded search, limited page)")
	}
	return lines
}

func writeTable(pdf *gofpdf.Fpdf, criteria models.SearchCriteria, events []models.LogEvent) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "LOG RECORDS", "", 1, "L", false, 0, "")

	loc := time.UTC
	if l, err := time.LoadLocation(criteria.Timezone); err == nil {
		loc = l
	}

	writeTableHeader(pdf)
	pdf.SetFont("Helvetica", "", 7)
	for _, ev := range events {
		if pdf.GetY() > pageBreakY {
			pdf.AddPage()
			writeTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 7)
		}
		cells := []string{
			ev.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
			ev.SourceIP,
			portField(ev.SourcePort),
			ev.NatIP,
			portField(ev.NatPort),
			ev.DestIP,
			portField(ev.DestPort),
			ev.Protocol,
			ev.User,
		}
		for i, cell := range cells {
			pdf.CellFormat(tableColumns[i].width, 4.5, cell, "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeTableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 7)
	for _, col := range tableColumns {
		pdf.CellFormat(col.width, 5, col.title, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func writeIntegrityPage(pdf *gofpdf.Fpdf, hash string) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "INTEGRITY AND AUTHENTICITY", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5.5, fmt.Sprintf("SHA-256 hash: %s", hash), "", "L", false)
	pdf.CellFormat(0, 5.5, "Algorithm: SHA-256", "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 5.5, "This hash attests the integrity of the search criteria, the records listed and the generation timestamp embedded in this report.", "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5.5, "COMPLIANCE STATEMENT", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5.5, retentionStatement, "", "L", false)
}
