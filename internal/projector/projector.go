// Package projector maps heterogeneous backend hit records into canonical
// LogEvent values.
package projector

import (
	"strings"
	"time"

	"github.com/conntrace-systems/conntrace/internal/client"
	"github.com/conntrace-systems/conntrace/internal/models"
)

// Project converts backend hits into LogEvents, total-preserving: one output
// per well-formed input, no filtering. A hit missing mandatory geometry (no
// parseable timestamp, or no transport protocol) is dropped and counted in
// the returned malformed counter rather than failing the batch; the counter
// is surfaced to operators as the parse-error signal.
//
// Missing optional subfields project to absent values, never defaults.
// Transport strings are case-normalized to TCP/UDP; anything else is
// preserved verbatim so newer backend or firmware variants still project.
func Project(hits []client.Hit) ([]models.LogEvent, int) {
	events := make([]models.LogEvent, 0, len(hits))
	malformed := 0

	for _, hit := range hits {
		ev, ok := projectOne(hit.Source)
		if !ok {
			malformed++
			continue
		}
		events = append(events, ev)
	}

	return events, malformed
}

func projectOne(src map[string]interface{}) (models.LogEvent, bool) {
	ts, ok := parseTimestamp(stringAt(src, "@timestamp"))
	if !ok {
		return models.LogEvent{}, false
	}

	proto, ok := normalizeProtocol(stringAt(src, "network", "transport"))
	if !ok {
		return models.LogEvent{}, false
	}

	return models.LogEvent{
		Timestamp:        ts,
		SourceIP:         stringAt(src, "source", "ip"),
		SourcePort:       intAt(src, "source", "port"),
		NatIP:            stringAt(src, "source", "nat", "ip"),
		NatPort:          intAt(src, "source", "nat", "port"),
		DestIP:           stringAt(src, "destination", "ip"),
		DestPort:         intAt(src, "destination", "port"),
		Protocol:         proto,
		SessionID:        stringAt(src, "cgnat", "session", "id"),
		User:             stringAt(src, "user", "name"),
		ObserverHostname: stringAt(src, "observer", "hostname"),
	}, true
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalizeProtocol(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	switch strings.ToUpper(raw) {
	case models.ProtocolTCP:
		return models.ProtocolTCP, true
	case models.ProtocolUDP:
		return models.ProtocolUDP, true
	}
	return raw, true
}

// stringAt walks nested maps along path and returns the string leaf, or ""
// when any step is absent or not a string.
func stringAt(src map[string]interface{}, path ...string) string {
	v, ok := valueAt(src, path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// intAt walks nested maps along path and returns the numeric leaf as an int.
// JSON numbers decode as float64.
func intAt(src map[string]interface{}, path ...string) int {
	v, ok := valueAt(src, path...)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func valueAt(src map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = src
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
