package repositories

import (
	"context"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// AuditLogRepository is the append-only AI audit ledger
type AuditLogRepository interface {
	Append(ctx context.Context, entry *entities.AuditLogEntry) error
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.AuditLogEntry, error)
}
