package entities

import "time"

// AuditStatus is the outcome recorded for one model invocation attempt
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusFailed  AuditStatus = "FAILED"
)

// AuditLogEntry is an immutable record of one model invocation attempt.
// Entries are only ever appended.
type AuditLogEntry struct {
	ID            string        `json:"id"`
	TenantID      string        `json:"tenant_id"`
	BranchID      string        `json:"branch_id,omitempty"`
	FeatureType   FeatureType   `json:"feature_type"`
	Category      AuditCategory `json:"category"`
	PatientID     string        `json:"patient_id"`
	UserID        *string       `json:"user_id,omitempty"`
	PromptVersion string        `json:"prompt_version"`
	Prompt        string        `json:"prompt"`
	Response      *string       `json:"response,omitempty"`
	LatencyMs     int64         `json:"latency_ms"`
	Status        AuditStatus   `json:"status"`
	ErrorMessage  *string       `json:"error_message,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}
