package models

import "time"

// Audit actions recorded by the pipeline.
const (
	AuditActionLogin     = "login"
	AuditActionLogout    = "logout"
	AuditActionSearch    = "search"
	AuditActionExportCSV = "export_csv"
	AuditActionExportPDF = "export_pdf"
)

// AuditEntry is one append-only compliance record. Exactly one entry is
// emitted per logical search or export action. The signature is an
// HMAC-SHA256 over the entry's identifying fields so the trail is tamper
// evident.
type AuditEntry struct {
	ID            string                 `json:"id"`
	Action        string                 `json:"action"`
	ActorIdentity string                 `json:"actor_identity"`
	ClientAddress string                 `json:"client_address"`
	UserAgent     string                 `json:"user_agent"`
	Timestamp     time.Time              `json:"timestamp"`
	Details       map[string]interface{} `json:"details,omitempty"`
	Signature     string                 `json:"signature,omitempty"`
}
