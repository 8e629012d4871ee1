package services

import (
	"context"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/news2"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// EarlyWarningService assesses the risk of deterioration of a patient from
// their recent vitals. The locally computed NEWS2 score is authoritative: the
// model may raise the risk level but never lower it below the score's band.
type EarlyWarningService struct {
	pipeline *Pipeline
}

// NewEarlyWarningService creates a new early warning service
func NewEarlyWarningService(pipeline *Pipeline) *EarlyWarningService {
	return &EarlyWarningService{pipeline: pipeline}
}

// Assess returns the early warning assessment of a patient.
func (s *EarlyWarningService) Assess(ctx context.Context, patientID string) (*entities.EarlyWarning, error) {
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient id is required")
	}

	return getOrCompute(ctx, s.pipeline, providers.CacheTierHot, entities.FeatureEarlyWarning, patientID,
		func(ctx context.Context) (*entities.EarlyWarning, error) {
			doc := s.pipeline.builder.ForPatient(ctx, patientID)
			score := news2.Score(doc.VitalHistory)

			warning, err := invokeStructured[entities.EarlyWarning](ctx, s.pipeline, request{
				feature:   entities.FeatureEarlyWarning,
				patientID: patientID,
				context:   doc.String(),
				extras:    map[string]string{prompts.ExtraNews2: score.Summary()},
			})
			if err != nil {
				reason := s.pipeline.degrade(ctx, entities.FeatureEarlyWarning, err)
				return fallback.EarlyWarning(reason, score.Score, score.Triggers), nil
			}

			warning.News2Score = score.Score
			warning.RiskLevel = atLeast(normalizeRisk(warning.RiskLevel), score.RiskLevel)
			if len(warning.Triggers) == 0 {
				warning.Triggers = append([]string{}, score.Triggers...)
			}
			return warning, nil
		})
}

var riskRank = map[string]int{
	entities.RiskLevelUnknown: 0,
	entities.RiskLevelLow:     1,
	entities.RiskLevelMedium:  2,
	entities.RiskLevelHigh:    3,
}

// atLeast returns the higher of two risk levels.
func atLeast(level, floor string) string {
	if riskRank[floor] > riskRank[level] {
		return floor
	}
	return level
}
