package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/adapters/events"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/services"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/workerpool"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

type handlerFunc func(ctx context.Context, event *entities.ClinicalEvent) error

func (f handlerFunc) Handle(ctx context.Context, event *entities.ClinicalEvent) error {
	return f(ctx, event)
}

func completedConsultation() *entities.Consultation {
	c := sampleConsultation()
	c.Status = entities.ConsultationStatusCompleted
	now := time.Now().UTC()
	c.CompletedAt = &now
	return c
}

func TestEncounterService_Complete(t *testing.T) {
	t.Run("completion survives a failing and a panicking handler", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		pool := workerpool.New(config.WorkerConfig{CoreWorkers: 2, MaxWorkers: 4, QueueSize: 8}, nil)
		dispatcher := events.NewAsyncDispatcher(pool, nil)

		handled := make(chan string, 2)
		dispatcher.Subscribe(entities.ClinicalEventEncounterCompleted, handlerFunc(func(ctx context.Context, event *entities.ClinicalEvent) error {
			handled <- "failing"
			return errors.New("insight generation failed")
		}))
		dispatcher.Subscribe(entities.ClinicalEventEncounterCompleted, handlerFunc(func(ctx context.Context, event *entities.ClinicalEvent) error {
			handled <- "panicking"
			panic("boom")
		}))

		repo.On("Complete", mock.Anything, "c-1").Return(completedConsultation(), nil).Once()
		service := services.NewEncounterService(repo, dispatcher)

		consultation, err := service.Complete(clinicContext(), "c-1")

		require.NoError(t, err)
		assert.Equal(t, entities.ConsultationStatusCompleted, consultation.Status)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, pool.Shutdown(ctx))
		assert.Len(t, handled, 2)

		assert.Equal(t, entities.ConsultationStatusCompleted, consultation.Status)
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "SaveAIInsight", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publishes an event carrying the request scope", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		publisher := new(MockEventPublisher)
		service := services.NewEncounterService(repo, publisher)

		repo.On("Complete", mock.Anything, "c-1").Return(completedConsultation(), nil).Once()
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *entities.ClinicalEvent) bool {
			return e.Type == entities.ClinicalEventEncounterCompleted &&
				e.TenantID == "clinic-a" &&
				e.UserID == "dr-1" &&
				e.ConsultationID == "c-1" &&
				e.PatientID == "p-1" &&
				e.ID != ""
		})).Return(nil).Once()

		_, err := service.Complete(clinicContext(), "c-1")

		require.NoError(t, err)
		publisher.AssertExpectations(t)
	})

	t.Run("publish failure does not fail completion", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		publisher := new(MockEventPublisher)
		service := services.NewEncounterService(repo, publisher)

		repo.On("Complete", mock.Anything, "c-1").Return(completedConsultation(), nil).Once()
		publisher.On("Publish", mock.Anything, mock.Anything).Return(workerpool.ErrPoolSaturated).Once()

		consultation, err := service.Complete(clinicContext(), "c-1")

		require.NoError(t, err)
		assert.Equal(t, entities.ConsultationStatusCompleted, consultation.Status)
	})

	t.Run("store failure is returned and nothing is published", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		publisher := new(MockEventPublisher)
		service := services.NewEncounterService(repo, publisher)

		repo.On("Complete", mock.Anything, "c-9").Return(nil, apperrors.NewConflictError("consultation is cancelled")).Once()

		_, err := service.Complete(clinicContext(), "c-9")

		assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.TypeOf(err))
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func encounterEvent() *entities.ClinicalEvent {
	return entities.NewClinicalEvent(entities.ClinicalEventEncounterCompleted, completedConsultation())
}

func TestInsightHandler_Handle(t *testing.T) {
	t.Run("writes the insight back and announces it", func(t *testing.T) {
		clinical := &fakeClinicalRepo{consultation: completedConsultation()}
		provider := new(MockCompletionProvider)
		auditRepo := new(MockAuditLogRepository)
		consultations := new(MockConsultationRepository)
		publisher := new(MockEventPublisher)
		insights := services.NewConsultationInsightService(newPipeline(clinical, provider, auditRepo, nil))
		handler := services.NewInsightHandler(insights, consultations, publisher)

		provider.On("Complete", mock.Anything, mock.Anything).Return("Glycaemic control is poor; intensify therapy.", nil).Once()
		auditRepo.On("Append", mock.Anything, auditWith(entities.AuditStatusSuccess, entities.FeatureConsultationInsight)).Return(nil).Once()
		consultations.On("SaveAIInsight", mock.Anything, "c-1", "Glycaemic control is poor; intensify therapy.").Return(nil).Once()
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *entities.ClinicalEvent) bool {
			return e.Type == entities.ClinicalEventInsightGenerated && e.ConsultationID == "c-1"
		})).Return(nil).Once()

		err := handler.Handle(clinicContext(), encounterEvent())

		require.NoError(t, err)
		consultations.AssertExpectations(t)
		publisher.AssertExpectations(t)
		auditRepo.AssertExpectations(t)
	})

	t.Run("degraded insight is not written back", func(t *testing.T) {
		clinical := &fakeClinicalRepo{consultation: completedConsultation()}
		consultations := new(MockConsultationRepository)
		insights := services.NewConsultationInsightService(newPipeline(clinical, nil, new(MockAuditLogRepository), nil))
		handler := services.NewInsightHandler(insights, consultations, nil)

		err := handler.Handle(clinicContext(), encounterEvent())

		require.NoError(t, err)
		consultations.AssertNotCalled(t, "SaveAIInsight", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("write-back failure is returned", func(t *testing.T) {
		clinical := &fakeClinicalRepo{consultation: completedConsultation()}
		provider := new(MockCompletionProvider)
		auditRepo := new(MockAuditLogRepository)
		consultations := new(MockConsultationRepository)
		insights := services.NewConsultationInsightService(newPipeline(clinical, provider, auditRepo, nil))
		handler := services.NewInsightHandler(insights, consultations, nil)

		provider.On("Complete", mock.Anything, mock.Anything).Return("insight", nil).Once()
		auditRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
		consultations.On("SaveAIInsight", mock.Anything, "c-1", "insight").Return(errors.New("deadlock detected")).Once()

		err := handler.Handle(clinicContext(), encounterEvent())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "deadlock detected")
	})

	t.Run("refuses an event from another tenant", func(t *testing.T) {
		consultations := new(MockConsultationRepository)
		provider := new(MockCompletionProvider)
		insights := services.NewConsultationInsightService(newPipeline(&fakeClinicalRepo{}, provider, new(MockAuditLogRepository), nil))
		handler := services.NewInsightHandler(insights, consultations, nil)

		event := encounterEvent()
		event.TenantID = "clinic-b"

		err := handler.Handle(clinicContext(), event)

		require.Error(t, err)
		provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("runs end to end on the worker pool under the request tenant", func(t *testing.T) {
		clinical := &fakeClinicalRepo{consultation: completedConsultation()}
		provider := new(MockCompletionProvider)
		auditRepo := new(MockAuditLogRepository)
		consultations := new(MockConsultationRepository)
		pool := workerpool.New(config.WorkerConfig{CoreWorkers: 1, MaxWorkers: 2, QueueSize: 4}, nil)
		dispatcher := events.NewAsyncDispatcher(pool, nil)
		insights := services.NewConsultationInsightService(newPipeline(clinical, provider, auditRepo, nil))
		dispatcher.Subscribe(entities.ClinicalEventEncounterCompleted, services.NewInsightHandler(insights, consultations, nil))
		service := services.NewEncounterService(consultations, dispatcher)

		provider.On("Complete", mock.Anything, mock.Anything).Return("insight", nil).Once()
		auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.AuditLogEntry) bool {
			return e.TenantID == "clinic-a" && e.UserID != nil && *e.UserID == "dr-1"
		})).Return(nil).Once()
		consultations.On("Complete", mock.Anything, "c-1").Return(completedConsultation(), nil).Once()
		consultations.On("SaveAIInsight", mock.Anything, "c-1", "insight").Return(nil).Once()

		requestCtx, cancelRequest := context.WithCancel(clinicContext())
		_, err := service.Complete(requestCtx, "c-1")
		require.NoError(t, err)
		cancelRequest()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, pool.Shutdown(ctx))

		consultations.AssertExpectations(t)
		auditRepo.AssertExpectations(t)
	})
}
