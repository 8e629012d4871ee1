package entities

import (
	"time"

	"github.com/google/uuid"
)

// ClinicalEventType represents the type of clinical event
type ClinicalEventType string

const (
	ClinicalEventEncounterCompleted ClinicalEventType = "encounter.completed"
	ClinicalEventInsightGenerated   ClinicalEventType = "insight.generated"
)

// ClinicalEvent is published after a clinical state change has been committed.
// It carries the identity of the request that caused it so handlers can run
// under the same tenant.
type ClinicalEvent struct {
	ID             string            `json:"id"`
	Type           ClinicalEventType `json:"type"`
	TenantID       string            `json:"tenant_id"`
	BranchID       string            `json:"branch_id,omitempty"`
	UserID         string            `json:"user_id,omitempty"`
	ConsultationID string            `json:"consultation_id"`
	PatientID      string            `json:"patient_id"`
	Timestamp      time.Time         `json:"timestamp"`
}

// NewClinicalEvent creates a new clinical event
func NewClinicalEvent(eventType ClinicalEventType, consultation *Consultation) *ClinicalEvent {
	return &ClinicalEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		TenantID:       consultation.TenantID,
		BranchID:       consultation.BranchID,
		ConsultationID: consultation.ID,
		PatientID:      consultation.PatientID,
		Timestamp:      time.Now().UTC(),
	}
}

// Derive returns a new event of eventType about the same consultation.
func (e *ClinicalEvent) Derive(eventType ClinicalEventType) *ClinicalEvent {
	derived := *e
	derived.ID = uuid.New().String()
	derived.Type = eventType
	derived.Timestamp = time.Now().UTC()
	return &derived
}
