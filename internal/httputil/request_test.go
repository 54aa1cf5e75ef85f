package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for first hop wins",
			xff:        "203.0.113.195, 70.41.3.18",
			remoteAddr: "10.0.0.1:4455",
			want:       "203.0.113.195",
		},
		{
			name:       "x-real-ip fallback",
			xRealIP:    "203.0.113.7",
			remoteAddr: "10.0.0.1:4455",
			want:       "203.0.113.7",
		},
		{
			name:       "remote addr host only",
			remoteAddr: "198.51.100.3:61000",
			want:       "198.51.100.3",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "198.51.100.3",
			want:       "198.51.100.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				r.Header.Set("X-Real-IP", tt.xRealIP)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestNewRequestContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
	r.RemoteAddr = "198.51.100.3:61000"
	r.Header.Set("User-Agent", "conntrace-portal/2.1")

	ctx := NewRequestContext(r)
	assert.Equal(t, "198.51.100.3", ctx.ClientIP)
	assert.Equal(t, "conntrace-portal/2.1", ctx.UserAgent)
}
