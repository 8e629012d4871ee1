package services

import (
	"context"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// ConsultationInsightService writes the long-form insight of a completed
// consultation.
type ConsultationInsightService struct {
	pipeline *Pipeline
}

// NewConsultationInsightService creates a new consultation insight service
func NewConsultationInsightService(pipeline *Pipeline) *ConsultationInsightService {
	return &ConsultationInsightService{pipeline: pipeline}
}

// Generate returns the insight of a consultation, or its fallback.
func (s *ConsultationInsightService) Generate(ctx context.Context, consultationID string) (*entities.ConsultationInsight, error) {
	if consultationID == "" {
		return nil, apperrors.NewValidationError("consultation id is required")
	}

	doc := s.pipeline.builder.ForConsultation(ctx, consultationID)
	text, err := s.pipeline.invokeText(ctx, request{
		feature:   entities.FeatureConsultationInsight,
		patientID: doc.PatientID,
		context:   doc.String(),
	})
	if err != nil {
		return fallback.ConsultationInsight(s.pipeline.degrade(ctx, entities.FeatureConsultationInsight, err)), nil
	}
	return &entities.ConsultationInsight{Text: text}, nil
}
