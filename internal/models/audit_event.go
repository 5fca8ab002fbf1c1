package models

// Audit event types published after completed operations.
const (
	AuditEventBatchRegistered = "batch_registered"
	AuditEventBatchVerified   = "batch_verified"
)

// AuditEvent defines the message structure for the audit feed.
// One event is published per completed registration or verification;
// downstream consumers (compliance export, alerting) are external.
type AuditEvent struct {
	EventID   string `json:"EventID"`
	EventType string `json:"EventType"`
	BatchID   string `json:"BatchID"`
	Outcome   string `json:"Outcome"` // "registered", "genuine" or "fake"
	AssetID   string `json:"AssetID,omitempty"`
	TxRef     string `json:"TxRef,omitempty"`
	Submitter string `json:"Submitter,omitempty"`
	Timestamp string `json:"Timestamp"` // Use string for easy JSON serialization
}
