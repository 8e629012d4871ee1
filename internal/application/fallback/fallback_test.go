package fallback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

func TestReasonFor(t *testing.T) {
	assert.Equal(t, entities.DegradedModelUnavailable, ReasonFor(apperrors.ErrModelUnavailable))
	assert.Equal(t, entities.DegradedMalformedResponse, ReasonFor(apperrors.NewMalformedResponseError(errors.New("eof"))))
	assert.Equal(t, entities.DegradedModelError, ReasonFor(apperrors.NewModelInvocationError(errors.New("timeout"))))
	assert.Equal(t, entities.DegradedModelError, ReasonFor(errors.New("anything else")))
}

func TestFallbacks_AreMarkedDegraded(t *testing.T) {
	reason := entities.DegradedModelUnavailable
	results := map[string]entities.Degradation{
		"advice":       ClinicalAdvice(reason).Degradation,
		"diagnoses":    DiagnosisSet(reason).Degradation,
		"earlyWarning": EarlyWarning(reason, 0, nil).Degradation,
		"verification": PrescriptionVerification(reason).Degradation,
		"carePlan":     CarePlan(reason).Degradation,
		"crm":          CRMInsight(reason).Degradation,
		"chat":         ChatReply(reason).Degradation,
		"insight":      ConsultationInsight(reason).Degradation,
	}

	for name, d := range results {
		assert.True(t, d.IsDegraded(), name)
		assert.Equal(t, reason, d.DegradedReason, name)
		assert.NotEmpty(t, d.Message, name)
	}

	assert.Equal(t, entities.RiskLevelUnknown, ClinicalAdvice(reason).RiskLevel)
	assert.Equal(t, entities.VerificationWarning, PrescriptionVerification(reason).Status)
}

func TestEarlyWarning_UsesLocalScore(t *testing.T) {
	assert.Equal(t, entities.RiskLevelUnknown, EarlyWarning(entities.DegradedModelError, 2, nil).RiskLevel)
	assert.Equal(t, entities.RiskLevelMedium, EarlyWarning(entities.DegradedModelError, 5, nil).RiskLevel)

	high := EarlyWarning(entities.DegradedModelError, 8, []string{"SpO2 90%"})
	assert.Equal(t, entities.RiskLevelHigh, high.RiskLevel)
	assert.Equal(t, 8, high.News2Score)
	assert.Equal(t, []string{"SpO2 90%"}, high.Triggers)
	assert.True(t, high.Degraded)
}
