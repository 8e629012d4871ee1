package services

import (
	"context"
	"strings"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// ClinicalSupportService gives the treating doctor decision support during a
// consultation.
type ClinicalSupportService struct {
	pipeline *Pipeline
}

// NewClinicalSupportService creates a new clinical support service
func NewClinicalSupportService(pipeline *Pipeline) *ClinicalSupportService {
	return &ClinicalSupportService{pipeline: pipeline}
}

// Advise returns decision support for a consultation. Model failures yield
// the degraded advice; the error is only set for invalid input.
func (s *ClinicalSupportService) Advise(ctx context.Context, consultationID string) (*entities.ClinicalAdvice, error) {
	if consultationID == "" {
		return nil, apperrors.NewValidationError("consultation id is required")
	}

	return getOrCompute(ctx, s.pipeline, providers.CacheTierWarm, entities.FeatureClinicalSupport, consultationID,
		func(ctx context.Context) (*entities.ClinicalAdvice, error) {
			doc := s.pipeline.builder.ForConsultation(ctx, consultationID)

			advice, err := invokeStructured[entities.ClinicalAdvice](ctx, s.pipeline, request{
				feature:   entities.FeatureClinicalSupport,
				patientID: doc.PatientID,
				context:   doc.String(),
			})
			if err != nil {
				return fallback.ClinicalAdvice(s.pipeline.degrade(ctx, entities.FeatureClinicalSupport, err)), nil
			}

			advice.RiskLevel = normalizeRisk(advice.RiskLevel)
			return advice, nil
		})
}

// SuggestDiagnoses returns a ranked differential for the symptoms presented
// in a consultation. Results are not cached since symptoms vary per call.
func (s *ClinicalSupportService) SuggestDiagnoses(ctx context.Context, consultationID, symptoms string) (*entities.DiagnosisSet, error) {
	if consultationID == "" {
		return nil, apperrors.NewValidationError("consultation id is required")
	}
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, apperrors.NewValidationError("symptoms are required")
	}

	doc := s.pipeline.builder.ForConsultation(ctx, consultationID)
	set, err := invokeStructured[entities.DiagnosisSet](ctx, s.pipeline, request{
		feature:   entities.FeatureDiagnosisSuggestion,
		patientID: doc.PatientID,
		context:   doc.String(),
		extras:    map[string]string{prompts.ExtraSymptoms: symptoms},
	})
	if err != nil {
		return fallback.DiagnosisSet(s.pipeline.degrade(ctx, entities.FeatureDiagnosisSuggestion, err)), nil
	}

	if set.Diagnoses == nil {
		set.Diagnoses = []entities.DiagnosisCandidate{}
	}
	return set, nil
}
