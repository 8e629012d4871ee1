package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Attempt describes one model invocation to be recorded. Response is the
// raw model text and is empty when the call failed.
type Attempt struct {
	Feature       entities.FeatureType
	PatientID     string
	PromptVersion string
	Prompt        string
	Response      string
	LatencyMs     int64
	Err           error
}

// Recorder appends attempts to the audit ledger. Failures are logged and
// never returned to the caller.
type Recorder struct {
	repo repositories.AuditLogRepository
	now  func() time.Time
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo repositories.AuditLogRepository) *Recorder {
	return &Recorder{
		repo: repo,
		now:  time.Now,
	}
}

// Record writes one entry for attempt, stamped with the tenant scope of ctx.
func (r *Recorder) Record(ctx context.Context, attempt Attempt) {
	logger := observability.LoggerFromContext(ctx)

	entry, err := r.entry(ctx, attempt)
	if err != nil {
		logger.Error().Err(err).Str("feature", string(attempt.Feature)).Msg("audit entry rejected")
		return
	}

	if err := r.repo.Append(ctx, entry); err != nil {
		logger.Error().
			Err(apperrors.NewAuditWriteError(err)).
			Str("feature", string(entry.FeatureType)).
			Str("patient_id", entry.PatientID).
			Str("status", string(entry.Status)).
			Msg("failed to write AI audit log")
	}
}

func (r *Recorder) entry(ctx context.Context, attempt Attempt) (*entities.AuditLogEntry, error) {
	category, err := attempt.Feature.Category()
	if err != nil {
		return nil, err
	}

	scope := tenant.FromContext(ctx)
	entry := &entities.AuditLogEntry{
		ID:            uuid.New().String(),
		TenantID:      scope.TenantID,
		BranchID:      scope.BranchID,
		FeatureType:   attempt.Feature,
		Category:      category,
		PatientID:     attempt.PatientID,
		PromptVersion: attempt.PromptVersion,
		Prompt:        attempt.Prompt,
		LatencyMs:     attempt.LatencyMs,
		Status:        entities.AuditStatusSuccess,
		Timestamp:     r.now().UTC(),
	}
	if scope.UserID != "" {
		userID := scope.UserID
		entry.UserID = &userID
	}
	if attempt.Response != "" {
		response := attempt.Response
		entry.Response = &response
	}
	if attempt.Err != nil {
		message := attempt.Err.Error()
		entry.Status = entities.AuditStatusFailed
		entry.ErrorMessage = &message
	}
	return entry, nil
}

// ListByPatient returns the newest entries for a patient in the caller's tenant.
func (r *Recorder) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.AuditLogEntry, error) {
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient id is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return r.repo.ListByPatient(ctx, patientID, limit)
}
