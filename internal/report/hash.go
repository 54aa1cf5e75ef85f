package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// HashPayload computes the hex-encoded SHA-256 digest of an artifact data
// payload. Exported so a verifier can re-derive a CSV hash from the tabular
// rows of an existing artifact.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// pdfDigestInput is the canonical serialized form hashed into a PDF
// artifact: the originating criteria, the (already truncated) event set and
// the generation instant. Struct field order fixes the JSON layout.
type pdfDigestInput struct {
	Criteria    models.SearchCriteria `json:"criteria"`
	Events      []models.LogEvent     `json:"events"`
	GeneratedAt string                `json:"generated_at"`
}

func hashPDFContent(criteria models.SearchCriteria, events []models.LogEvent, generatedAt time.Time) (string, error) {
	payload, err := json.Marshal(pdfDigestInput{
		Criteria:    criteria,
		Events:      events,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return HashPayload(payload), nil
}
