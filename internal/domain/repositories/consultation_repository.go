package repositories

import (
	"context"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// ConsultationRepository performs the two writes the AI pipeline depends on.
// Each call runs in its own transaction.
type ConsultationRepository interface {
	// Complete marks the consultation COMPLETED and returns the committed row.
	Complete(ctx context.Context, consultationID string) (*entities.Consultation, error)

	// SaveAIInsight re-reads the consultation under a row lock and writes the
	// generated insight onto the fresh copy.
	SaveAIInsight(ctx context.Context, consultationID string, insight string) error
}
