package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

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

func scopedContext() context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{TenantID: "clinic-a", BranchID: "b-1", UserID: "dr-7"})
}

func TestRecorder_RecordSuccess(t *testing.T) {
	repo := new(MockAuditLogRepository)
	recorder := NewRecorder(repo)

	var saved *entities.AuditLogEntry
	repo.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*entities.AuditLogEntry)
	}).Return(nil).Once()

	recorder.Record(scopedContext(), Attempt{
		Feature:       entities.FeatureEarlyWarning,
		PatientID:     "p-1",
		PromptVersion: "early-warning/v2",
		Prompt:        "prompt text",
		Response:      `{"riskLevel":"LOW"}`,
		LatencyMs:     820,
	})

	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "clinic-a", saved.TenantID)
	assert.Equal(t, "b-1", saved.BranchID)
	require.NotNil(t, saved.UserID)
	assert.Equal(t, "dr-7", *saved.UserID)
	assert.Equal(t, entities.AuditCategorySafety, saved.Category)
	assert.Equal(t, entities.AuditStatusSuccess, saved.Status)
	require.NotNil(t, saved.Response)
	assert.Equal(t, `{"riskLevel":"LOW"}`, *saved.Response)
	assert.Nil(t, saved.ErrorMessage)
	assert.Equal(t, int64(820), saved.LatencyMs)
	repo.AssertExpectations(t)
}

func TestRecorder_RecordFailure(t *testing.T) {
	repo := new(MockAuditLogRepository)
	recorder := NewRecorder(repo)

	repo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.AuditLogEntry) bool {
		return e.Status == entities.AuditStatusFailed &&
			e.Response == nil &&
			e.ErrorMessage != nil && *e.ErrorMessage != "" &&
			e.UserID == nil
	})).Return(nil).Once()

	recorder.Record(tenant.WithScope(context.Background(), tenant.Scope{TenantID: "clinic-a"}), Attempt{
		Feature:   entities.FeatureChat,
		PatientID: "p-1",
		Prompt:    "prompt text",
		Err:       apperrors.NewModelInvocationError(errors.New("503 from upstream")),
	})

	repo.AssertExpectations(t)
}

func TestRecorder_WriteFailureIsSwallowed(t *testing.T) {
	repo := new(MockAuditLogRepository)
	recorder := NewRecorder(repo)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	assert.NotPanics(t, func() {
		recorder.Record(scopedContext(), Attempt{Feature: entities.FeatureCarePlan, PatientID: "p-1"})
	})
	repo.AssertExpectations(t)
}

func TestRecorder_UnknownFeatureIsNotWritten(t *testing.T) {
	repo := new(MockAuditLogRepository)
	recorder := NewRecorder(repo)

	recorder.Record(scopedContext(), Attempt{Feature: entities.FeatureType("BILLING"), PatientID: "p-1"})

	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRecorder_ListByPatient(t *testing.T) {
	repo := new(MockAuditLogRepository)
	recorder := NewRecorder(repo)
	entries := []*entities.AuditLogEntry{{ID: "a-1"}}

	repo.On("ListByPatient", mock.Anything, "p-1", defaultListLimit).Return(entries, nil).Once()
	repo.On("ListByPatient", mock.Anything, "p-1", maxListLimit).Return(entries, nil).Once()

	got, err := recorder.ListByPatient(scopedContext(), "p-1", 0)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = recorder.ListByPatient(scopedContext(), "p-1", 10000)
	require.NoError(t, err)

	_, err = recorder.ListByPatient(scopedContext(), "", 10)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
	repo.AssertExpectations(t)
}
