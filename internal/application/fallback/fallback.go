// Package fallback builds the degraded result of each AI feature. Every
// function returns a complete value and never fails.
package fallback

import (
	"fmt"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// ReasonFor maps a pipeline error to a degraded reason.
func ReasonFor(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeModelUnavailable:
		return entities.DegradedModelUnavailable
	case apperrors.ErrorTypeMalformedResponse:
		return entities.DegradedMalformedResponse
	default:
		return entities.DegradedModelError
	}
}

func degradation(reason, subject string) entities.Degradation {
	var message string
	switch reason {
	case entities.DegradedModelUnavailable:
		message = fmt.Sprintf("AI %s is not configured. Use clinical judgement.", subject)
	case entities.DegradedMalformedResponse:
		message = fmt.Sprintf("AI %s returned an unreadable answer. Use clinical judgement.", subject)
	default:
		message = fmt.Sprintf("AI %s is temporarily unavailable. Use clinical judgement.", subject)
	}
	return entities.Degradation{Degraded: true, DegradedReason: reason, Message: message}
}

// ClinicalAdvice is the degraded decision-support result.
func ClinicalAdvice(reason string) *entities.ClinicalAdvice {
	d := degradation(reason, "clinical support")
	return &entities.ClinicalAdvice{
		Summary:         d.Message,
		RiskLevel:       entities.RiskLevelUnknown,
		Recommendations: []string{"Review the patient record and vital trends manually."},
		RedFlags:        []string{},
		SuggestedTests:  []string{},
		Degradation:     d,
	}
}

// DiagnosisSet is the degraded differential.
func DiagnosisSet(reason string) *entities.DiagnosisSet {
	d := degradation(reason, "diagnosis suggestion")
	return &entities.DiagnosisSet{
		Diagnoses:   []entities.DiagnosisCandidate{},
		Notes:       d.Message,
		Degradation: d,
	}
}

// EarlyWarning is the degraded deterioration assessment. The locally
// computed NEWS2 score is kept and drives the risk level when it is
// already conclusive.
func EarlyWarning(reason string, news2Score int, triggers []string) *entities.EarlyWarning {
	d := degradation(reason, "early warning")
	risk := entities.RiskLevelUnknown
	recommendation := "Continue routine monitoring and review vitals manually."
	if news2Score >= 7 {
		risk = entities.RiskLevelHigh
		recommendation = "NEWS2 of 7 or more: urgent clinical review."
	} else if news2Score >= 5 {
		risk = entities.RiskLevelMedium
		recommendation = "NEWS2 of 5 or more: urgent ward-based response."
	}
	if triggers == nil {
		triggers = []string{}
	}
	return &entities.EarlyWarning{
		RiskLevel:      risk,
		News2Score:     news2Score,
		Summary:        d.Message,
		Triggers:       triggers,
		Recommendation: recommendation,
		Degradation:    d,
	}
}

// PrescriptionVerification is the degraded safety review. Status is
// WARNING so the prescription is never shown as verified safe.
func PrescriptionVerification(reason string) *entities.PrescriptionVerification {
	d := degradation(reason, "prescription verification")
	return &entities.PrescriptionVerification{
		Status:         entities.VerificationWarning,
		Interactions:   []entities.DrugInteraction{},
		Warnings:       []string{"Automated interaction check unavailable. Verify manually before dispensing."},
		Recommendation: d.Message,
		Degradation:    d,
	}
}

// CarePlan is the degraded care plan draft.
func CarePlan(reason string) *entities.CarePlan {
	d := degradation(reason, "care plan")
	return &entities.CarePlan{
		Goals:          []entities.CarePlanGoal{},
		Interventions:  []string{},
		Lifestyle:      []string{},
		MonitoringPlan: []string{"Keep the current monitoring schedule."},
		Degradation:    d,
	}
}

// CRMInsight is the degraded branch insight.
func CRMInsight(reason string) *entities.CRMInsight {
	d := degradation(reason, "care coordination insight")
	return &entities.CRMInsight{
		Summary:         d.Message,
		PriorityActions: []string{},
		RiskSegments:    []entities.RiskSegment{},
		Degradation:     d,
	}
}

// ChatReply is the degraded patient chat answer.
func ChatReply(reason string) *entities.ChatReply {
	return &entities.ChatReply{
		Reply:       "The assistant is unavailable right now. Please contact your care team, or emergency services if you feel unwell.",
		Degradation: degradation(reason, "assistant"),
	}
}

// ConsultationInsight is the degraded long-form consultation insight.
func ConsultationInsight(reason string) *entities.ConsultationInsight {
	d := degradation(reason, "consultation insight")
	return &entities.ConsultationInsight{
		Text:        d.Message,
		Degradation: d,
	}
}
