package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// PostgresSink persists audit entries to the audit_entries table for
// retention-compliant durable storage.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to Postgres and verifies the connection.
func NewPostgresSink(ctx context.Context, connString string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

// Write inserts one entry. Entries are append-only; there is no update path.
func (s *PostgresSink) Write(ctx context.Context, entry models.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	q := `INSERT INTO audit_entries (
            id, action, actor_identity, client_address, user_agent,
            occurred_at, details, signature
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = s.pool.Exec(ctx, q,
		entry.ID, entry.Action, entry.ActorIdentity, entry.ClientAddress,
		entry.UserAgent, entry.Timestamp, details, entry.Signature,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first, for operator review.
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, action, actor_identity, client_address, user_agent,
                 occurred_at, details, signature
          FROM audit_entries
          ORDER BY occurred_at DESC
          LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorIdentity, &e.ClientAddress,
			&e.UserAgent, &e.Timestamp, &details, &e.Signature); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
