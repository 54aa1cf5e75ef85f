// Package sample generates clearly-labeled placeholder events for the
// degraded mode used when the search backend is unreachable. Placeholder
// data must never leave the system as a compliance artifact; every event
// carries markers the export path checks for.
package sample

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// PlaceholderHostname marks a generated event. The reserved .invalid TLD
// guarantees no real observer ever reports it.
const PlaceholderHostname = "placeholder.invalid"

// sessionPrefix marks generated session ids.
const sessionPrefix = "sample_"

// Events produces n placeholder CGNAT events, newest first, spaced one
// minute apart ending at now.
func Events(n int, now time.Time) []models.LogEvent {
	events := make([]models.LogEvent, 0, n)
	for i := 0; i < n; i++ {
		proto := models.ProtocolUDP
		if i%2 == 0 {
			proto = models.ProtocolTCP
		}
		events = append(events, models.LogEvent{
			Timestamp:        now.UTC().Add(-time.Duration(i) * time.Minute),
			SourceIP:         fmt.Sprintf("100.64.%d.%d", gofakeit.Number(0, 255), gofakeit.Number(1, 254)),
			SourcePort:       gofakeit.Number(1024, 65535),
			NatIP:            gofakeit.IPv4Address(),
			NatPort:          gofakeit.Number(1024, 65535),
			DestIP:           gofakeit.IPv4Address(),
			DestPort:         gofakeit.Number(1, 1024),
			Protocol:         proto,
			SessionID:        sessionPrefix + gofakeit.LetterN(8),
			User:             gofakeit.Username(),
			ObserverHostname: PlaceholderHostname,
		})
	}
	return events
}

// IsPlaceholder reports whether an event carries the degraded-mode markers.
func IsPlaceholder(ev models.LogEvent) bool {
	return ev.ObserverHostname == PlaceholderHostname ||
		strings.HasPrefix(ev.SessionID, sessionPrefix)
}

// ContainsPlaceholder reports whether any event in the sequence is
// placeholder data. The export handlers refuse such sequences.
func ContainsPlaceholder(events []models.LogEvent) bool {
	for _, ev := range events {
		if IsPlaceholder(ev) {
			return true
		}
	}
	return false
}
