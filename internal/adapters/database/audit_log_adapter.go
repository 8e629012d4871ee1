package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

const tableAuditLogs = "ai_audit_logs"

// AuditLogAdapter implements the AuditLogRepository interface. It only
// inserts and reads; rows are never updated or deleted.
type AuditLogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAuditLogAdapter creates a new audit log adapter
func NewAuditLogAdapter(client *postgres.Client) repositories.AuditLogRepository {
	return &AuditLogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append inserts one audit entry
func (a *AuditLogAdapter) Append(ctx context.Context, entry *entities.AuditLogEntry) error {
	record := goqu.Record{
		"id":             entry.ID,
		"tenant_id":      entry.TenantID,
		"branch_id":      nullString(entry.BranchID),
		"feature_type":   string(entry.FeatureType),
		"category":       string(entry.Category),
		"patient_id":     nullString(entry.PatientID),
		"user_id":        nullStringPtr(entry.UserID),
		"prompt_version": entry.PromptVersion,
		"prompt":         entry.Prompt,
		"response":       nullStringPtr(entry.Response),
		"latency_ms":     entry.LatencyMs,
		"status":         string(entry.Status),
		"error_message":  nullStringPtr(entry.ErrorMessage),
		"created_at":     entry.Timestamp,
	}

	query, args, err := a.db.Insert(tableAuditLogs).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewAuditWriteError(err)
	}
	return nil
}

// ListByPatient returns the newest entries of a patient in the caller's tenant
func (a *AuditLogAdapter) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.AuditLogEntry, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select(
		"id", "tenant_id", "branch_id", "feature_type", "category", "patient_id", "user_id",
		"prompt_version", "prompt", "response", "latency_ms", "status", "error_message", "created_at",
	).From(tableAuditLogs).
		Where(scope, goqu.Ex{"patient_id": patientID}).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list audit logs", err)
	}
	defer rows.Close()

	var entries []*entities.AuditLogEntry
	for rows.Next() {
		e := &entities.AuditLogEntry{}
		var branchID, patientID, userID, response, errorMessage sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&branchID,
			&e.FeatureType,
			&e.Category,
			&patientID,
			&userID,
			&e.PromptVersion,
			&e.Prompt,
			&response,
			&e.LatencyMs,
			&e.Status,
			&errorMessage,
			&e.Timestamp,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan audit log", err)
		}
		e.BranchID = branchID.String
		e.PatientID = patientID.String
		e.UserID = stringPtr(userID)
		e.Response = stringPtr(response)
		e.ErrorMessage = stringPtr(errorMessage)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate audit logs", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
