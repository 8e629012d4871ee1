package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/clinicalcontext"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// CRMInsightService summarises care-coordination indicators of a branch.
// Generation is rate limited per branch with the strict profile.
type CRMInsightService struct {
	pipeline *Pipeline
	repo     repositories.ClinicalDataRepository
	limiter  providers.RateLimiter
}

// NewCRMInsightService creates a new CRM insight service. limiter may be nil.
func NewCRMInsightService(pipeline *Pipeline, repo repositories.ClinicalDataRepository, limiter providers.RateLimiter) *CRMInsightService {
	return &CRMInsightService{
		pipeline: pipeline,
		repo:     repo,
		limiter:  limiter,
	}
}

// Insights returns the insight of a branch. A RATE_LIMITED error is returned
// before any cache lookup or model call once the branch's bucket is empty.
func (s *CRMInsightService) Insights(ctx context.Context, branchID string) (*entities.CRMInsight, error) {
	if branchID == "" {
		return nil, apperrors.NewValidationError("branch id is required")
	}
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, providers.RateProfileStrict, "branch:"+branchID); err != nil {
			return nil, err
		}
	}

	return getOrCompute(ctx, s.pipeline, providers.CacheTierHot, entities.FeatureCRMInsight, branchID,
		func(ctx context.Context) (*entities.CRMInsight, error) {
			insight, err := invokeStructured[entities.CRMInsight](ctx, s.pipeline, request{
				feature: entities.FeatureCRMInsight,
				context: "Branch " + branchID,
				extras:  map[string]string{prompts.ExtraBranchStats: s.branchStats(ctx, branchID)},
			})
			if err != nil {
				return fallback.CRMInsight(s.pipeline.degrade(ctx, entities.FeatureCRMInsight, err)), nil
			}

			if insight.PriorityActions == nil {
				insight.PriorityActions = []string{}
			}
			if insight.RiskSegments == nil {
				insight.RiskSegments = []entities.RiskSegment{}
			}
			return insight, nil
		})
}

func (s *CRMInsightService) branchStats(ctx context.Context, branchID string) string {
	stats, err := s.repo.GetBranchCareStats(ctx, branchID)
	if err != nil || stats == nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("branch_id", branchID).
			Msg("branch care statistics unavailable")
		return clinicalcontext.Placeholder
	}

	lines := []string{
		fmt.Sprintf("- Total patients: %d", stats.TotalPatients),
		fmt.Sprintf("- Patients with chronic conditions: %d", stats.ChronicPatients),
		fmt.Sprintf("- Overdue follow-ups: %d", stats.OverdueFollowUps),
		fmt.Sprintf("- Patients with adherence below 80%%: %d", stats.LowAdherencePatients),
		fmt.Sprintf("- High-risk patients: %d", stats.HighRiskPatients),
		fmt.Sprintf("- Average adherence rate: %.0f%%", stats.AverageAdherenceRate*100),
	}
	return strings.Join(lines, "\n")
}
