package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8084, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://localhost:9200", cfg.OpenSearch.URL)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
	assert.False(t, cfg.Audit.NATS.Enabled)
	assert.Equal(t, "conntrace.audit.entries", cfg.Audit.NATS.Subject)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 395, cfg.Redis.RegistryTTLDays)
	assert.False(t, cfg.Search.DegradedPlaceholder)
	assert.Equal(t, 1, cfg.Search.PlaceholderCount)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
opensearch:
  url: https://search.internal:9200
  insecure: false
search:
  degraded_placeholder: true
  placeholder_count: 5
logging:
  level: debug
  format: text
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://search.internal:9200", cfg.OpenSearch.URL)
	assert.False(t, cfg.OpenSearch.Insecure)
	assert.True(t, cfg.Search.DegradedPlaceholder)
	assert.Equal(t, 5, cfg.Search.PlaceholderCount)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	// Untouched sections keep their defaults.
	assert.Equal(t, 256, cfg.Audit.BufferSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CONNTRACE_SERVER_PORT", "7070")
	t.Setenv("CONNTRACE_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestDurationHelpers(t *testing.T) {
	s := ServerConfig{ReadTimeoutSeconds: 15, WriteTimeoutSeconds: 30, IdleTimeoutSeconds: 60}
	assert.Equal(t, 15*time.Second, s.ReadTimeout())
	assert.Equal(t, 30*time.Second, s.WriteTimeout())
	assert.Equal(t, 60*time.Second, s.IdleTimeout())

	assert.Equal(t, 395*24*time.Hour, RedisConfig{RegistryTTLDays: 395}.RegistryTTL())
	assert.Equal(t, 2*time.Second, AuditNATSConfig{ReconnectWait: 2}.ReconnectWaitDuration())
}
