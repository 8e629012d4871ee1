package services

import (
	"context"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

// EncounterService closes consultations and announces the completion.
type EncounterService struct {
	repo      repositories.ConsultationRepository
	publisher providers.EventPublisher
}

// NewEncounterService creates a new encounter service. publisher may be nil.
func NewEncounterService(repo repositories.ConsultationRepository, publisher providers.EventPublisher) *EncounterService {
	return &EncounterService{
		repo:      repo,
		publisher: publisher,
	}
}

// Complete commits the completion of a consultation, then publishes
// encounter.completed. The completion is durable once Complete returns it;
// publishing and everything that reacts to the event cannot undo it.
func (s *EncounterService) Complete(ctx context.Context, consultationID string) (*entities.Consultation, error) {
	if consultationID == "" {
		return nil, apperrors.NewValidationError("consultation id is required")
	}

	consultation, err := s.repo.Complete(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	if s.publisher == nil {
		return consultation, nil
	}

	event := entities.NewClinicalEvent(entities.ClinicalEventEncounterCompleted, consultation)
	event.UserID = tenant.FromContext(ctx).UserID
	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.LoggerFromContext(ctx).Error().
			Err(err).
			Str("consultation_id", consultation.ID).
			Msg("failed to publish encounter completed event")
	}

	return consultation, nil
}
