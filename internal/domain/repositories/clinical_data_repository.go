package repositories

import (
	"context"
	"time"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// ClinicalDataRepository is the read-only view of the clinical store used to
// build AI context. Every method is scoped to the tenant in ctx.
type ClinicalDataRepository interface {
	GetConsultation(ctx context.Context, consultationID string) (*entities.Consultation, error)
	GetPatient(ctx context.Context, patientID string) (*entities.Patient, error)

	// ListSelfReportedVitals returns home telemetry recorded since the given time, newest first.
	ListSelfReportedVitals(ctx context.Context, patientID string, since time.Time, limit int) ([]*entities.Vital, error)
	// ListClinicVitals returns vitals measured during past encounters, newest first.
	ListClinicVitals(ctx context.Context, patientID string, since time.Time, limit int) ([]*entities.Vital, error)
	// ListConsultationVitals returns vitals recorded during one encounter.
	ListConsultationVitals(ctx context.Context, consultationID string) ([]*entities.Vital, error)

	ListLabResults(ctx context.Context, patientID string, limit int) ([]*entities.LabResult, error)
	ListChronicConditions(ctx context.Context, patientID string) ([]*entities.ChronicCondition, error)
	ListVitalTargets(ctx context.Context, patientID string) ([]*entities.VitalTarget, error)
	ListActiveMedications(ctx context.Context, patientID string) ([]*entities.MedicationSchedule, error)
	ListAdherenceLogs(ctx context.Context, patientID string, since time.Time) ([]*entities.AdherenceLog, error)

	GetPrescription(ctx context.Context, prescriptionID string) (*entities.Prescription, error)
	GetBranchCareStats(ctx context.Context, branchID string) (*entities.BranchCareStats, error)
}
