package clinicalcontext

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
)

const (
	// MaxVitalHistory bounds the merged vital history in a document.
	MaxVitalHistory = 10

	vitalHistoryWindow = 30 * 24 * time.Hour
	adherenceWindow    = 14 * 24 * time.Hour
	maxLabResults      = 10
	timeLayout         = "2006-01-02 15:04"
)

var guardrails = []string{
	"Advisory output only. The treating clinician makes every final decision.",
	"Do not invent data. When a section says None recorded or N/A, treat it as unknown.",
	"Flag red-flag findings explicitly and recommend escalation when vital signs breach NEWS2 thresholds.",
	"Check drug allergies and interactions before recommending any medication.",
	"Follow current national chronic-disease guidelines (hypertension, diabetes, COPD).",
}

// Builder assembles clinical context documents from the clinical store. It
// never fails: unavailable data degrades to a placeholder line.
type Builder struct {
	repo repositories.ClinicalDataRepository
	now  func() time.Time
}

// NewBuilder creates a new context builder
func NewBuilder(repo repositories.ClinicalDataRepository) *Builder {
	return &Builder{
		repo: repo,
		now:  time.Now,
	}
}

// ForConsultation builds the context of an encounter, including the vitals
// measured during it.
func (b *Builder) ForConsultation(ctx context.Context, consultationID string) *Document {
	consultation, err := b.repo.GetConsultation(ctx, consultationID)
	if err != nil {
		b.warn(ctx, err, "consultation", consultationID)
		consultation = nil
	}

	doc := &Document{ConsultationID: consultationID, Consultation: consultation}
	if consultation != nil {
		doc.PatientID = consultation.PatientID
	}

	var encounterVitals []*entities.Vital
	if consultation != nil {
		encounterVitals, err = b.repo.ListConsultationVitals(ctx, consultationID)
		if err != nil {
			b.warn(ctx, err, "consultation_vitals", consultationID)
		}
	}

	b.fill(ctx, doc, encounterSection(consultation), encounterVitalSection(consultation, encounterVitals))
	return doc
}

// ForPatient builds the longitudinal context of a patient outside any
// encounter. Encounter sections are marked N/A.
func (b *Builder) ForPatient(ctx context.Context, patientID string) *Document {
	doc := &Document{PatientID: patientID}
	b.fill(ctx, doc, []string{NotApplicable}, []string{NotApplicable})
	return doc
}

func (b *Builder) fill(ctx context.Context, doc *Document, encounter, encounterVitals []string) {
	now := b.now()
	patientID := doc.PatientID

	if patientID != "" {
		patient, err := b.repo.GetPatient(ctx, patientID)
		if err != nil {
			b.warn(ctx, err, "patient", patientID)
		} else {
			doc.Patient = patient
		}
		doc.VitalHistory = b.vitalHistory(ctx, patientID, now)
	}

	doc.Sections = []Section{
		{Title: SectionProfile, Lines: profileSection(doc.Patient, now)},
		{Title: SectionEncounter, Lines: encounter},
		{Title: SectionVitalHistory, Lines: vitalLines(doc.VitalHistory, true)},
		{Title: SectionEncounterVitals, Lines: encounterVitals},
		{Title: SectionLabs, Lines: b.labSection(ctx, patientID)},
		{Title: SectionConditions, Lines: b.conditionSection(ctx, patientID)},
		{Title: SectionTargets, Lines: b.targetSection(ctx, patientID)},
		{Title: SectionMedications, Lines: b.medicationSection(ctx, patientID)},
		{Title: SectionAdherence, Lines: b.adherenceSection(ctx, patientID, now)},
		{Title: SectionGuardrails, Lines: append([]string(nil), guardrails...)},
	}
}

// vitalHistory merges self-reported and clinic vitals, newest first, capped
// at MaxVitalHistory.
func (b *Builder) vitalHistory(ctx context.Context, patientID string, now time.Time) []*entities.Vital {
	since := now.Add(-vitalHistoryWindow)

	selfReported, err := b.repo.ListSelfReportedVitals(ctx, patientID, since, MaxVitalHistory)
	if err != nil {
		b.warn(ctx, err, "self_reported_vitals", patientID)
	}
	clinic, err := b.repo.ListClinicVitals(ctx, patientID, since, MaxVitalHistory)
	if err != nil {
		b.warn(ctx, err, "clinic_vitals", patientID)
	}

	return MergeVitals(selfReported, clinic, MaxVitalHistory)
}

// MergeVitals tags each reading with its source, merges both lists newest
// first and keeps at most limit readings. Inputs are not modified.
func MergeVitals(selfReported, clinic []*entities.Vital, limit int) []*entities.Vital {
	merged := make([]*entities.Vital, 0, len(selfReported)+len(clinic))
	for _, v := range selfReported {
		if v == nil {
			continue
		}
		tagged := *v
		tagged.Source = entities.VitalSourceSelfReported
		merged = append(merged, &tagged)
	}
	for _, v := range clinic {
		if v == nil {
			continue
		}
		tagged := *v
		tagged.Source = entities.VitalSourceClinic
		merged = append(merged, &tagged)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RecordedAt.After(merged[j].RecordedAt)
	})

	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func profileSection(p *entities.Patient, now time.Time) []string {
	if p == nil {
		return []string{Placeholder}
	}

	age := NotApplicable
	if years := p.AgeAt(now); years >= 0 {
		age = strconv.Itoa(years)
	}

	lines := []string{
		"Age: " + age,
		"Gender: " + orNA(p.Gender),
		"Blood type: " + orNA(p.BloodType),
		"Allergies: " + orValue(p.Allergies, "None known"),
	}
	if p.HeightCm > 0 && p.WeightKg > 0 {
		heightM := p.HeightCm / 100
		lines = append(lines, fmt.Sprintf("Height/Weight: %.0f cm / %.1f kg (BMI %.1f)", p.HeightCm, p.WeightKg, p.WeightKg/(heightM*heightM)))
	}
	return lines
}

func encounterSection(c *entities.Consultation) []string {
	if c == nil {
		return []string{Placeholder}
	}
	return []string{
		"Status: " + string(c.Status),
		"Chief complaint: " + orNA(c.ChiefComplaint),
		"Working diagnosis: " + orNA(c.Diagnosis),
		"Notes: " + orNA(c.Notes),
	}
}

func encounterVitalSection(c *entities.Consultation, vitals []*entities.Vital) []string {
	if c == nil {
		return []string{NotApplicable}
	}
	return vitalLines(vitals, false)
}

func vitalLines(vitals []*entities.Vital, withSource bool) []string {
	var lines []string
	for _, v := range vitals {
		if v == nil {
			continue
		}
		line := fmt.Sprintf("%s %s: %s %s", v.RecordedAt.Format(timeLayout), v.Type, formatValue(v.Value), v.Unit)
		line = strings.TrimSpace(line)
		if withSource {
			line += " [" + string(v.Source) + "]"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{Placeholder}
	}
	return lines
}

func (b *Builder) labSection(ctx context.Context, patientID string) []string {
	if patientID == "" {
		return []string{Placeholder}
	}
	labs, err := b.repo.ListLabResults(ctx, patientID, maxLabResults)
	if err != nil {
		b.warn(ctx, err, "lab_results", patientID)
	}

	var lines []string
	for _, l := range labs {
		line := fmt.Sprintf("%s %s: %s %s (ref %s)", l.ResultedAt.Format(timeLayout), l.TestName, l.Value, l.Unit, orNA(l.ReferenceRange))
		if l.Abnormal {
			line += " ABNORMAL"
		}
		lines = append(lines, line)
	}
	return orPlaceholder(lines)
}

func (b *Builder) conditionSection(ctx context.Context, patientID string) []string {
	if patientID == "" {
		return []string{Placeholder}
	}
	conditions, err := b.repo.ListChronicConditions(ctx, patientID)
	if err != nil {
		b.warn(ctx, err, "chronic_conditions", patientID)
	}

	var lines []string
	for _, c := range conditions {
		lines = append(lines, fmt.Sprintf("%s (%s) severity=%s status=%s", c.Name, orNA(c.ICD10Code), orNA(c.Severity), orNA(c.Status)))
	}
	return orPlaceholder(lines)
}

func (b *Builder) targetSection(ctx context.Context, patientID string) []string {
	if patientID == "" {
		return []string{Placeholder}
	}
	targets, err := b.repo.ListVitalTargets(ctx, patientID)
	if err != nil {
		b.warn(ctx, err, "vital_targets", patientID)
	}

	var lines []string
	for _, t := range targets {
		lines = append(lines, fmt.Sprintf("%s: %s to %s %s", t.VitalType, boundString(t.MinValue), boundString(t.MaxValue), t.Unit))
	}
	return orPlaceholder(lines)
}

func (b *Builder) medicationSection(ctx context.Context, patientID string) []string {
	if patientID == "" {
		return []string{Placeholder}
	}
	meds, err := b.repo.ListActiveMedications(ctx, patientID)
	if err != nil {
		b.warn(ctx, err, "medications", patientID)
	}

	var lines []string
	for _, m := range meds {
		line := fmt.Sprintf("%s %s, %s", m.MedicineName, orNA(m.Dosage), orNA(m.Frequency))
		if len(m.ScheduledTimes) > 0 {
			line += " at " + strings.Join(m.ScheduledTimes, ", ")
		}
		lines = append(lines, line)
	}
	return orPlaceholder(lines)
}

func (b *Builder) adherenceSection(ctx context.Context, patientID string, now time.Time) []string {
	if patientID == "" {
		return []string{Placeholder}
	}
	logs, err := b.repo.ListAdherenceLogs(ctx, patientID, now.Add(-adherenceWindow))
	if err != nil {
		b.warn(ctx, err, "adherence_logs", patientID)
	}
	if len(logs) == 0 {
		return []string{Placeholder}
	}

	taken := 0
	var lines []string
	for _, l := range logs {
		if strings.EqualFold(l.Status, "TAKEN") {
			taken++
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", l.DueAt.Format(timeLayout), l.MedicineName, l.Status))
	}
	summary := fmt.Sprintf("Adherence last %d days: %d/%d doses taken (%.0f%%)",
		int(adherenceWindow.Hours()/24), taken, len(logs), float64(taken)*100/float64(len(logs)))
	return append([]string{summary}, lines...)
}

func (b *Builder) warn(ctx context.Context, err error, source, id string) {
	observability.LoggerFromContext(ctx).Warn().
		Err(err).
		Str("source", source).
		Str("id", id).
		Msg("clinical context source unavailable, using placeholder")
}

func orPlaceholder(lines []string) []string {
	if len(lines) == 0 {
		return []string{Placeholder}
	}
	return lines
}

func orNA(s string) string {
	return orValue(s, NotApplicable)
}

func orValue(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func boundString(v *float64) string {
	if v == nil {
		return NotApplicable
	}
	return formatValue(*v)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
