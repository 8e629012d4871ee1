package services

import (
	"context"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

const defaultFollowUpDays = 30

// CarePlanService drafts chronic care plans.
type CarePlanService struct {
	pipeline *Pipeline
}

// NewCarePlanService creates a new care plan service
func NewCarePlanService(pipeline *Pipeline) *CarePlanService {
	return &CarePlanService{pipeline: pipeline}
}

// Draft returns a care plan draft for a patient.
func (s *CarePlanService) Draft(ctx context.Context, patientID string) (*entities.CarePlan, error) {
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient id is required")
	}

	return getOrCompute(ctx, s.pipeline, providers.CacheTierWarm, entities.FeatureCarePlan, patientID,
		func(ctx context.Context) (*entities.CarePlan, error) {
			doc := s.pipeline.builder.ForPatient(ctx, patientID)

			plan, err := invokeStructured[entities.CarePlan](ctx, s.pipeline, request{
				feature:   entities.FeatureCarePlan,
				patientID: patientID,
				context:   doc.String(),
			})
			if err != nil {
				return fallback.CarePlan(s.pipeline.degrade(ctx, entities.FeatureCarePlan, err)), nil
			}

			if plan.FollowUpDays <= 0 {
				plan.FollowUpDays = defaultFollowUpDays
			}
			return plan, nil
		})
}
