package entities

import "fmt"

// FeatureType is the closed set of AI features. Audit categorisation and
// cache tiering switch over it exhaustively.
type FeatureType string

const (
	FeatureClinicalSupport          FeatureType = "CLINICAL_SUPPORT"
	FeatureDiagnosisSuggestion      FeatureType = "DIAGNOSIS_SUGGESTION"
	FeatureEarlyWarning             FeatureType = "EARLY_WARNING"
	FeaturePrescriptionVerification FeatureType = "PRESCRIPTION_VERIFICATION"
	FeatureCarePlan                 FeatureType = "CARE_PLAN"
	FeatureCRMInsight               FeatureType = "CRM_INSIGHT"
	FeatureChat                     FeatureType = "CHAT"
	FeatureConsultationInsight      FeatureType = "CONSULTATION_INSIGHT"
)

// AllFeatures lists every FeatureType in declaration order.
var AllFeatures = []FeatureType{
	FeatureClinicalSupport,
	FeatureDiagnosisSuggestion,
	FeatureEarlyWarning,
	FeaturePrescriptionVerification,
	FeatureCarePlan,
	FeatureCRMInsight,
	FeatureChat,
	FeatureConsultationInsight,
}

// AuditCategory groups features for the audit ledger.
type AuditCategory string

const (
	AuditCategoryDecisionSupport   AuditCategory = "DECISION_SUPPORT"
	AuditCategorySafety            AuditCategory = "SAFETY"
	AuditCategoryCareCoordination  AuditCategory = "CARE_COORDINATION"
	AuditCategoryPatientEngagement AuditCategory = "PATIENT_ENGAGEMENT"
)

// Category returns the audit category of f, or an error for an unknown value.
func (f FeatureType) Category() (AuditCategory, error) {
	switch f {
	case FeatureClinicalSupport, FeatureDiagnosisSuggestion, FeatureConsultationInsight:
		return AuditCategoryDecisionSupport, nil
	case FeatureEarlyWarning, FeaturePrescriptionVerification:
		return AuditCategorySafety, nil
	case FeatureCarePlan, FeatureCRMInsight:
		return AuditCategoryCareCoordination, nil
	case FeatureChat:
		return AuditCategoryPatientEngagement, nil
	default:
		return "", fmt.Errorf("unknown feature type %q", string(f))
	}
}

// Valid reports whether f is one of the declared features.
func (f FeatureType) Valid() bool {
	_, err := f.Category()
	return err == nil
}
