package entities

// Risk levels produced by the advisory features. RiskLevelUnknown is the
// degraded marker used when no model assessment is available.
const (
	RiskLevelLow     = "LOW"
	RiskLevelMedium  = "MEDIUM"
	RiskLevelHigh    = "HIGH"
	RiskLevelUnknown = "UNKNOWN"
)

// Prescription verification statuses. VerificationWarning doubles as the
// degraded marker: an unverified prescription must be reviewed by hand.
const (
	VerificationSafe    = "SAFE"
	VerificationWarning = "WARNING"
	VerificationDanger  = "DANGER"
)

// Degradation reasons attached to fallback results.
const (
	DegradedModelUnavailable  = "MODEL_UNAVAILABLE"
	DegradedModelError        = "MODEL_ERROR"
	DegradedMalformedResponse = "MALFORMED_RESPONSE"
)

// Degradation marks a result that was produced without a usable model answer.
type Degradation struct {
	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degradedReason,omitempty"`
	Message        string `json:"message,omitempty"`
}

// IsDegraded reports whether the result is a fallback.
func (d Degradation) IsDegraded() bool {
	return d.Degraded
}

// ClinicalAdvice is decision support for the doctor running a consultation.
type ClinicalAdvice struct {
	Summary         string   `json:"summary"`
	RiskLevel       string   `json:"riskLevel"`
	Recommendations []string `json:"recommendations"`
	RedFlags        []string `json:"redFlags"`
	SuggestedTests  []string `json:"suggestedTests"`
	FollowUp        string   `json:"followUp"`
	Degradation
}

// DiagnosisCandidate is one differential diagnosis.
type DiagnosisCandidate struct {
	Name       string  `json:"name"`
	ICD10Code  string  `json:"icd10Code"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// DiagnosisSet is a ranked differential for the presented symptoms.
type DiagnosisSet struct {
	Diagnoses []DiagnosisCandidate `json:"diagnoses"`
	Notes     string               `json:"notes"`
	Degradation
}

// EarlyWarning is a deterioration assessment anchored on NEWS2.
type EarlyWarning struct {
	RiskLevel      string   `json:"riskLevel"`
	News2Score     int      `json:"news2Score"`
	Summary        string   `json:"summary"`
	Triggers       []string `json:"triggers"`
	Recommendation string   `json:"recommendation"`
	Degradation
}

// DrugInteraction is a flagged interaction between prescribed or active drugs.
type DrugInteraction struct {
	Drugs       []string `json:"drugs"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
}

// PrescriptionVerification is the safety review of a prescription.
type PrescriptionVerification struct {
	Status         string            `json:"status"`
	Interactions   []DrugInteraction `json:"interactions"`
	Warnings       []string          `json:"warnings"`
	Recommendation string            `json:"recommendation"`
	Degradation
}

// CarePlanGoal is one measurable goal of a care plan.
type CarePlanGoal struct {
	Description string `json:"description"`
	Target      string `json:"target"`
	Timeframe   string `json:"timeframe"`
}

// CarePlan is a chronic-disease management plan draft.
type CarePlan struct {
	Goals          []CarePlanGoal `json:"goals"`
	Interventions  []string       `json:"interventions"`
	Lifestyle      []string       `json:"lifestyle"`
	MonitoringPlan []string       `json:"monitoringPlan"`
	FollowUpDays   int            `json:"followUpDays"`
	Degradation
}

// RiskSegment is a cohort the branch should act on.
type RiskSegment struct {
	Name         string `json:"name"`
	PatientCount int    `json:"patientCount"`
	Action       string `json:"action"`
}

// CRMInsight is a care-coordination summary for a branch.
type CRMInsight struct {
	Summary         string        `json:"summary"`
	PriorityActions []string      `json:"priorityActions"`
	RiskSegments    []RiskSegment `json:"riskSegments"`
	Degradation
}

// ChatMessage is one turn of a patient chat.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the assistant's answer to a patient message.
type ChatReply struct {
	Reply string `json:"reply"`
	Degradation
}

// ConsultationInsight is the long-form summary written back onto a
// completed consultation.
type ConsultationInsight struct {
	Text string `json:"text"`
	Degradation
}
