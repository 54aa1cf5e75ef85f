package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// DefaultSubject is the NATS subject audit entries are published on.
const DefaultSubject = "conntrace.audit.entries"

// NATSSink publishes audit entries to a NATS subject for downstream
// compliance consumers.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// NATSConfig holds NATS sink connection settings.
type NATSConfig struct {
	URL           string
	Name          string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NewNATSSink connects to NATS and returns a sink publishing on the
// configured subject.
func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Name == "" {
		cfg.Name = "conntrace"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSSink{conn: conn, subject: cfg.Subject}, nil
}

// Write publishes the entry as JSON.
func (s *NATSSink) Write(_ context.Context, entry models.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish audit entry: %w", err)
	}
	return nil
}

// Close drains and closes the underlying connection.
func (s *NATSSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
