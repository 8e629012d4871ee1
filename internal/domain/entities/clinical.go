package entities

import "time"

// Patient is the demographic profile used to ground AI prompts.
type Patient struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	BranchID    string     `json:"branch_id"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender"`
	BloodType   string     `json:"blood_type,omitempty"`
	Allergies   string     `json:"allergies,omitempty"`
	HeightCm    float64    `json:"height_cm,omitempty"`
	WeightKg    float64    `json:"weight_kg,omitempty"`
}

// AgeAt returns the patient's age in whole years at t, or -1 if unknown.
func (p *Patient) AgeAt(t time.Time) int {
	if p == nil || p.DateOfBirth == nil {
		return -1
	}
	dob := *p.DateOfBirth
	age := t.Year() - dob.Year()
	if t.YearDay() < dob.YearDay() {
		age--
	}
	return age
}

// ConsultationStatus is the lifecycle state of an encounter
type ConsultationStatus string

const (
	ConsultationStatusScheduled  ConsultationStatus = "SCHEDULED"
	ConsultationStatusInProgress ConsultationStatus = "IN_PROGRESS"
	ConsultationStatusCompleted  ConsultationStatus = "COMPLETED"
	ConsultationStatusCancelled  ConsultationStatus = "CANCELLED"
)

// Consultation is a clinical encounter between a doctor and a patient.
type Consultation struct {
	ID             string             `json:"id"`
	TenantID       string             `json:"tenant_id"`
	BranchID       string             `json:"branch_id"`
	PatientID      string             `json:"patient_id"`
	DoctorID       string             `json:"doctor_id"`
	Status         ConsultationStatus `json:"status"`
	ChiefComplaint string             `json:"chief_complaint"`
	Diagnosis      string             `json:"diagnosis"`
	Notes          string             `json:"notes"`
	AIInsight      string             `json:"ai_insight,omitempty"`
	StartedAt      *time.Time         `json:"started_at,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// VitalSource tells where a vital sign reading came from: home telemetry
// entered by the patient or a device, or a measurement taken by clinic staff.
type VitalSource string

const (
	VitalSourceSelfReported VitalSource = "SELF_REPORTED"
	VitalSourceClinic       VitalSource = "CLINIC"
)

// Vital types recognised by the NEWS2 scorer and the prompts.
const (
	VitalHeartRate       = "HEART_RATE"
	VitalRespiratoryRate = "RESPIRATORY_RATE"
	VitalSpO2            = "SPO2"
	VitalSystolicBP      = "BLOOD_PRESSURE_SYSTOLIC"
	VitalDiastolicBP     = "BLOOD_PRESSURE_DIASTOLIC"
	VitalTemperature     = "TEMPERATURE"
	VitalBloodGlucose    = "BLOOD_GLUCOSE"
	VitalWeight          = "WEIGHT"
	VitalConsciousness   = "CONSCIOUSNESS"
	VitalSupplementalO2  = "SUPPLEMENTAL_OXYGEN"
)

// Vital is a single vital-sign reading.
type Vital struct {
	ID             string      `json:"id"`
	PatientID      string      `json:"patient_id"`
	ConsultationID string      `json:"consultation_id,omitempty"`
	Type           string      `json:"type"`
	Value          float64     `json:"value"`
	Unit           string      `json:"unit"`
	Source         VitalSource `json:"source"`
	RecordedAt     time.Time   `json:"recorded_at"`
}

// LabResult is a laboratory observation.
type LabResult struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	TestName       string    `json:"test_name"`
	Value          string    `json:"value"`
	Unit           string    `json:"unit"`
	ReferenceRange string    `json:"reference_range"`
	Abnormal       bool      `json:"abnormal"`
	ResultedAt     time.Time `json:"resulted_at"`
}

// ChronicCondition is a long-term diagnosis under management.
type ChronicCondition struct {
	ID          string     `json:"id"`
	PatientID   string     `json:"patient_id"`
	Name        string     `json:"name"`
	ICD10Code   string     `json:"icd10_code"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	DiagnosedAt *time.Time `json:"diagnosed_at,omitempty"`
}

// VitalTarget is a personalised goal range for one vital type.
type VitalTarget struct {
	ID        string   `json:"id"`
	PatientID string   `json:"patient_id"`
	VitalType string   `json:"vital_type"`
	MinValue  *float64 `json:"min_value,omitempty"`
	MaxValue  *float64 `json:"max_value,omitempty"`
	Unit      string   `json:"unit"`
}

// MedicationSchedule is an active medication the patient should take.
type MedicationSchedule struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	MedicineName   string     `json:"medicine_name"`
	Dosage         string     `json:"dosage"`
	Frequency      string     `json:"frequency"`
	ScheduledTimes []string   `json:"scheduled_times"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

// AdherenceLog records whether a scheduled dose was taken.
type AdherenceLog struct {
	ID           string     `json:"id"`
	ScheduleID   string     `json:"schedule_id"`
	PatientID    string     `json:"patient_id"`
	MedicineName string     `json:"medicine_name"`
	Status       string     `json:"status"`
	DueAt        time.Time  `json:"due_at"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
}

// Prescription is a set of medications ordered during a consultation.
type Prescription struct {
	ID             string             `json:"id"`
	PatientID      string             `json:"patient_id"`
	ConsultationID string             `json:"consultation_id"`
	DoctorID       string             `json:"doctor_id"`
	Items          []PrescriptionItem `json:"items"`
	CreatedAt      time.Time          `json:"created_at"`
}

// PrescriptionItem is one prescribed medicine.
type PrescriptionItem struct {
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	DurationDays int    `json:"duration_days"`
	Instructions string `json:"instructions,omitempty"`
}

// BranchCareStats aggregates care-coordination indicators for one branch.
type BranchCareStats struct {
	BranchID             string  `json:"branch_id"`
	TotalPatients        int     `json:"total_patients"`
	ChronicPatients      int     `json:"chronic_patients"`
	OverdueFollowUps     int     `json:"overdue_follow_ups"`
	LowAdherencePatients int     `json:"low_adherence_patients"`
	HighRiskPatients     int     `json:"high_risk_patients"`
	AverageAdherenceRate float64 `json:"average_adherence_rate"`
}
