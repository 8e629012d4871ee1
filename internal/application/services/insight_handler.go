package services

import (
	"context"
	"fmt"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

var _ providers.EventHandler = (*InsightHandler)(nil)

// InsightHandler reacts to encounter.completed by generating the consultation
// insight and writing it back onto the consultation. It runs on a worker
// with its own context and transaction; its failures never reach the
// encounter that triggered it.
type InsightHandler struct {
	insights  *ConsultationInsightService
	repo      repositories.ConsultationRepository
	publisher providers.EventPublisher
}

// NewInsightHandler creates a new insight handler. publisher may be nil.
func NewInsightHandler(insights *ConsultationInsightService, repo repositories.ConsultationRepository, publisher providers.EventPublisher) *InsightHandler {
	return &InsightHandler{
		insights:  insights,
		repo:      repo,
		publisher: publisher,
	}
}

// Handle processes one encounter.completed event.
func (h *InsightHandler) Handle(ctx context.Context, event *entities.ClinicalEvent) error {
	if event == nil || event.Type != entities.ClinicalEventEncounterCompleted {
		return nil
	}

	logger := observability.LoggerFromContext(ctx).With().
		Str("consultation_id", event.ConsultationID).
		Str("event_id", event.ID).
		Logger()

	if scoped := tenant.TenantID(ctx); scoped != event.TenantID {
		return fmt.Errorf("event tenant %q does not match task tenant %q", event.TenantID, scoped)
	}

	insight, err := h.insights.Generate(ctx, event.ConsultationID)
	if err != nil {
		return fmt.Errorf("failed to generate consultation insight: %w", err)
	}
	if insight.IsDegraded() {
		logger.Warn().Str("reason", insight.DegradedReason).Msg("skipping consultation insight write-back")
		return nil
	}

	if err := h.repo.SaveAIInsight(ctx, event.ConsultationID, insight.Text); err != nil {
		return fmt.Errorf("failed to save consultation insight: %w", err)
	}
	logger.Info().Msg("consultation insight saved")

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, event.Derive(entities.ClinicalEventInsightGenerated)); err != nil {
			logger.Warn().Err(err).Msg("failed to publish insight generated event")
		}
	}
	return nil
}
