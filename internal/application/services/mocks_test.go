package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/audit"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/clinicalcontext"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/llm"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/services"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

// Mocks

type MockCompletionProvider struct {
	mock.Mock
}

func (m *MockCompletionProvider) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *entities.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.AuditLogEntry, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AuditLogEntry), args.Error(1)
}

type MockConsultationRepository struct {
	mock.Mock
}

func (m *MockConsultationRepository) Complete(ctx context.Context, consultationID string) (*entities.Consultation, error) {
	args := m.Called(ctx, consultationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Consultation), args.Error(1)
}

func (m *MockConsultationRepository) SaveAIInsight(ctx context.Context, consultationID string, insight string) error {
	args := m.Called(ctx, consultationID, insight)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *entities.ClinicalEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// fakeClinicalRepo serves a single patient record.
type fakeClinicalRepo struct {
	consultation *entities.Consultation
	vitals       []*entities.Vital
	prescription *entities.Prescription
	stats        *entities.BranchCareStats
}

func (f *fakeClinicalRepo) GetConsultation(ctx context.Context, id string) (*entities.Consultation, error) {
	if f.consultation == nil || f.consultation.ID != id {
		return nil, apperrors.NewNotFoundError("consultation not found")
	}
	return f.consultation, nil
}

func (f *fakeClinicalRepo) GetPatient(ctx context.Context, id string) (*entities.Patient, error) {
	return &entities.Patient{ID: id, TenantID: tenant.TenantID(ctx), FullName: "Test Patient", Gender: "F"}, nil
}

func (f *fakeClinicalRepo) ListSelfReportedVitals(ctx context.Context, patientID string, since time.Time, limit int) ([]*entities.Vital, error) {
	return f.vitals, nil
}

func (f *fakeClinicalRepo) ListClinicVitals(ctx context.Context, patientID string, since time.Time, limit int) ([]*entities.Vital, error) {
	return nil, nil
}

func (f *fakeClinicalRepo) ListConsultationVitals(ctx context.Context, consultationID string) ([]*entities.Vital, error) {
	return nil, nil
}

func (f *fakeClinicalRepo) ListLabResults(ctx context.Context, patientID string, limit int) ([]*entities.LabResult, error) {
	return nil, nil
}

func (f *fakeClinicalRepo) ListChronicConditions(ctx context.Context, patientID string) ([]*entities.ChronicCondition, error) {
	return []*entities.ChronicCondition{{ID: "cc-1", PatientID: patientID, Name: "Type 2 diabetes", ICD10Code: "E11", Status: "ACTIVE"}}, nil
}

func (f *fakeClinicalRepo) ListVitalTargets(ctx context.Context, patientID string) ([]*entities.VitalTarget, error) {
	return nil, nil
}

func (f *fakeClinicalRepo) ListActiveMedications(ctx context.Context, patientID string) ([]*entities.MedicationSchedule, error) {
	return nil, nil
}

func (f *fakeClinicalRepo) ListAdherenceLogs(ctx context.Context, patientID string, since time.Time) ([]*entities.AdherenceLog, error) {
	return nil, nil
}

func (f *fakeClinicalRepo) GetPrescription(ctx context.Context, id string) (*entities.Prescription, error) {
	if f.prescription == nil || f.prescription.ID != id {
		return nil, apperrors.NewNotFoundError("prescription not found")
	}
	return f.prescription, nil
}

func (f *fakeClinicalRepo) GetBranchCareStats(ctx context.Context, branchID string) (*entities.BranchCareStats, error) {
	if f.stats == nil {
		return nil, apperrors.NewNotFoundError("branch not found")
	}
	return f.stats, nil
}

// Helpers

func clinicContext() context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{TenantID: "clinic-a", BranchID: "branch-1", UserID: "dr-1"})
}

func sampleConsultation() *entities.Consultation {
	return &entities.Consultation{
		ID:             "c-1",
		TenantID:       "clinic-a",
		BranchID:       "branch-1",
		PatientID:      "p-1",
		DoctorID:       "dr-1",
		Status:         entities.ConsultationStatusInProgress,
		ChiefComplaint: "Fatigue and thirst",
	}
}

// newPipeline wires a pipeline around provider, which may be nil.
func newPipeline(repo *fakeClinicalRepo, provider providers.CompletionProvider, auditRepo *MockAuditLogRepository, cache providers.ResultCache) *services.Pipeline {
	return services.NewPipeline(
		clinicalcontext.NewBuilder(repo),
		prompts.NewRegistry(),
		llm.NewGateway(provider, nil),
		audit.NewRecorder(auditRepo),
		cache,
		nil,
	)
}

func auditWith(status entities.AuditStatus, feature entities.FeatureType) interface{} {
	return mock.MatchedBy(func(e *entities.AuditLogEntry) bool {
		return e.Status == status && e.FeatureType == feature
	})
}
