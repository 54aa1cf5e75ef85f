// Package config provides configuration management for the conntrace
// service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains runtime configuration for the conntrace service.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	OpenSearch OpenSearchConfig `yaml:"opensearch" mapstructure:"opensearch"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Audit      AuditConfig      `yaml:"audit" mapstructure:"audit"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig captures HTTP server settings.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ReadTimeout returns the configured read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the configured write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the configured idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// OpenSearchConfig captures search backend connection settings.
type OpenSearchConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// AuthConfig captures the shared secret used to read bearer-token claims
// for audit attribution. Authentication itself belongs to the credential
// service.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// AuditConfig captures audit recorder settings.
type AuditConfig struct {
	Secret      string          `yaml:"secret" mapstructure:"secret"`
	BufferSize  int             `yaml:"buffer_size" mapstructure:"buffer_size"`
	DatabaseURL string          `yaml:"database_url" mapstructure:"database_url"`
	NATS        AuditNATSConfig `yaml:"nats" mapstructure:"nats"`
}

// AuditNATSConfig captures the NATS audit sink settings.
type AuditNATSConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	URL           string `yaml:"url" mapstructure:"url"`
	Subject       string `yaml:"subject" mapstructure:"subject"`
	MaxReconnects int    `yaml:"max_reconnects" mapstructure:"max_reconnects"`
	ReconnectWait int    `yaml:"reconnect_wait_seconds" mapstructure:"reconnect_wait_seconds"`
}

// ReconnectWaitDuration returns the reconnect wait as a time.Duration.
func (n AuditNATSConfig) ReconnectWaitDuration() time.Duration {
	return time.Duration(n.ReconnectWait) * time.Second
}

// RedisConfig captures the report-hash registry settings.
type RedisConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr            string `yaml:"addr" mapstructure:"addr"`
	Password        string `yaml:"password" mapstructure:"password"`
	DB              int    `yaml:"db" mapstructure:"db"`
	RegistryTTLDays int    `yaml:"registry_ttl_days" mapstructure:"registry_ttl_days"`
}

// RegistryTTL returns the verification-record retention as a duration.
// Zero keeps records indefinitely.
func (r RedisConfig) RegistryTTL() time.Duration {
	return time.Duration(r.RegistryTTLDays) * 24 * time.Hour
}

// SearchConfig captures search pipeline settings.
type SearchConfig struct {
	// DegradedPlaceholder enables the labeled placeholder result set when
	// the backend is unreachable. Off by default: placeholder data is a
	// correctness hazard for a compliance product and must be an explicit
	// operator decision.
	DegradedPlaceholder bool `yaml:"degraded_placeholder" mapstructure:"degraded_placeholder"`
	PlaceholderCount    int  `yaml:"placeholder_count" mapstructure:"placeholder_count"`
}

// LoggingConfig captures logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// Load reads configuration from the provided path and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8084)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("opensearch.url", "https://localhost:9200")
	v.SetDefault("opensearch.username", "admin")
	v.SetDefault("opensearch.password", "admin")
	v.SetDefault("opensearch.insecure", true)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("audit.secret", "")
	v.SetDefault("audit.buffer_size", 256)
	v.SetDefault("audit.database_url", "")
	v.SetDefault("audit.nats.enabled", false)
	v.SetDefault("audit.nats.url", "nats://localhost:4222")
	v.SetDefault("audit.nats.subject", "conntrace.audit.entries")
	v.SetDefault("audit.nats.max_reconnects", -1)
	v.SetDefault("audit.nats.reconnect_wait_seconds", 2)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.registry_ttl_days", 395) // 13 months

	v.SetDefault("search.degraded_placeholder", false)
	v.SetDefault("search.placeholder_count", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/conntrace")
	}

	// Environment variables override
	v.SetEnvPrefix("CONNTRACE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found; use defaults
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
