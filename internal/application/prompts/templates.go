package prompts

import "github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"

const (
	clinicianRole = "Assist the treating physician. You never replace clinical judgement."
	patientRole   = "Talk to a patient living with a chronic condition in simple, kind language. Never diagnose or change medication; refer to the care team."
)

var builtins = []Template{
	{
		Feature: entities.FeatureClinicalSupport,
		Version: "clinical-support/v3",
		Role:    clinicianRole,
		Task:    "Review the encounter and give decision support: a short summary, overall risk, concrete recommendations, red flags and tests to consider.",
		Schema: `{
  "summary": "string",
  "riskLevel": "LOW | MEDIUM | HIGH",
  "recommendations": ["string"],
  "redFlags": ["string"],
  "suggestedTests": ["string"],
  "followUp": "string"
}`,
	},
	{
		Feature: entities.FeatureDiagnosisSuggestion,
		Version: "diagnosis-suggestion/v2",
		Role:    clinicianRole,
		Task:    "Suggest a ranked differential diagnosis for the presented symptoms, most likely first, with ICD-10 codes.",
		Schema: `{
  "diagnoses": [
    {"name": "string", "icd10Code": "string", "confidence": 0.0, "rationale": "string"}
  ],
  "notes": "string"
}`,
		Extras: []string{ExtraSymptoms},
	},
	{
		Feature: entities.FeatureEarlyWarning,
		Version: "early-warning/v2",
		Role:    clinicianRole,
		Task:    "Assess the risk of clinical deterioration from recent vitals and trends. The locally computed NEWS2 score is authoritative for vital thresholds.",
		Schema: `{
  "riskLevel": "LOW | MEDIUM | HIGH",
  "summary": "string",
  "triggers": ["string"],
  "recommendation": "string"
}`,
		Extras: []string{ExtraNews2},
	},
	{
		Feature: entities.FeaturePrescriptionVerification,
		Version: "prescription-verification/v2",
		Role:    clinicianRole,
		Task:    "Verify the new prescription against allergies, chronic conditions, current medications and renal or hepatic risks. Flag every interaction.",
		Schema: `{
  "status": "SAFE | WARNING | DANGER",
  "interactions": [
    {"drugs": ["string"], "severity": "MINOR | MODERATE | MAJOR", "description": "string"}
  ],
  "warnings": ["string"],
  "recommendation": "string"
}`,
		Extras: []string{ExtraPrescription},
	},
	{
		Feature: entities.FeatureCarePlan,
		Version: "care-plan/v2",
		Role:    clinicianRole,
		Task:    "Draft a personalised chronic care plan with measurable goals, interventions, lifestyle advice and a monitoring schedule.",
		Schema: `{
  "goals": [{"description": "string", "target": "string", "timeframe": "string"}],
  "interventions": ["string"],
  "lifestyle": ["string"],
  "monitoringPlan": ["string"],
  "followUpDays": 30
}`,
	},
	{
		Feature: entities.FeatureCRMInsight,
		Version: "crm-insight/v1",
		Role:    "Advise the branch care coordinator on population-level follow-up.",
		Task:    "Summarise the branch's chronic care indicators and list the highest-impact coordination actions.",
		Schema: `{
  "summary": "string",
  "priorityActions": ["string"],
  "riskSegments": [{"name": "string", "patientCount": 0, "action": "string"}]
}`,
		Extras: []string{ExtraBranchStats},
	},
	{
		Feature: entities.FeatureChat,
		Version: "patient-chat/v2",
		Role:    patientRole,
		Task:    "Answer the patient's latest message using their record. Advise urgent care for any red-flag symptom.",
		Extras:  []string{ExtraHistory, ExtraMessage},
	},
	{
		Feature: entities.FeatureConsultationInsight,
		Version: "consultation-insight/v1",
		Role:    clinicianRole,
		Task:    "Write a concise long-form insight for the completed consultation: key findings, control of each chronic condition, medication adherence and next steps.",
	},
}
