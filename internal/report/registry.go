package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// ErrNotRegistered is returned when a hash has no verification record.
var ErrNotRegistered = errors.New("report hash not registered")

const registryKeyPrefix = "report:hash:"

// Registry stores one verification record per issued artifact, keyed by
// content hash, so an auditor can confirm a hash was produced by this system
// without re-deriving it. Records expire after the configured TTL.
type Registry struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRegistry creates a registry on an existing redis client. A zero ttl
// keeps records indefinitely.
func NewRegistry(rdb *redis.Client, ttl time.Duration) *Registry {
	return &Registry{rdb: rdb, ttl: ttl}
}

// Register stores the verification record for an assembled artifact.
func (r *Registry) Register(ctx context.Context, artifact *models.ReportArtifact) error {
	rec := models.VerificationRecord{
		Hash:        artifact.ContentHash,
		Format:      artifact.Format,
		Records:     artifact.RecordCount,
		Truncated:   artifact.Truncated,
		GeneratedAt: artifact.GeneratedAt,
		Criteria:    artifact.CriteriaSnapshot,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal verification record: %w", err)
	}
	if err := r.rdb.Set(ctx, registryKeyPrefix+artifact.ContentHash, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store verification record: %w", err)
	}
	return nil
}

// Lookup retrieves the verification record for a hash.
func (r *Registry) Lookup(ctx context.Context, hash string) (*models.VerificationRecord, error) {
	data, err := r.rdb.Get(ctx, registryKeyPrefix+hash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("load verification record: %w", err)
	}
	var rec models.VerificationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode verification record: %w", err)
	}
	return &rec, nil
}
