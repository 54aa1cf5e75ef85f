package httputil

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP extracts the originating client IP, preferring proxy headers.
//
// Example X-Forwarded-For: "203.0.113.195, 70.41.3.18, 150.172.238.178"
// Returns: "203.0.113.195" (the original client)
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RequestContext holds audit context about the HTTP request. Used to
// populate the client-address and user-agent fields on audit entries.
type RequestContext struct {
	ClientIP  string
	UserAgent string
}

// NewRequestContext captures the audit-relevant request attributes.
func NewRequestContext(r *http.Request) RequestContext {
	return RequestContext{
		ClientIP:  GetClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
}
