package clinicalcontext

import (
	"strings"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// Placeholder fills a section that has no data.
const Placeholder = "None recorded"

// NotApplicable fills a section that does not apply to the request.
const NotApplicable = "N/A"

// Section titles in document order.
const (
	SectionProfile         = "PATIENT PROFILE"
	SectionEncounter       = "CURRENT ENCOUNTER"
	SectionVitalHistory    = "RECENT VITAL HISTORY"
	SectionEncounterVitals = "IN-ENCOUNTER VITALS"
	SectionLabs            = "LAB RESULTS"
	SectionConditions      = "CHRONIC CONDITIONS"
	SectionTargets         = "PERSONALIZED VITAL TARGETS"
	SectionMedications     = "CURRENT MEDICATIONS"
	SectionAdherence       = "MEDICATION ADHERENCE"
	SectionGuardrails      = "CLINICAL GUARDRAILS"
)

// SectionOrder is the fixed order every document is rendered in.
var SectionOrder = []string{
	SectionProfile,
	SectionEncounter,
	SectionVitalHistory,
	SectionEncounterVitals,
	SectionLabs,
	SectionConditions,
	SectionTargets,
	SectionMedications,
	SectionAdherence,
	SectionGuardrails,
}

// Section is one titled block of the context document.
type Section struct {
	Title string
	Lines []string
}

// Document is the bounded clinical context handed to a prompt. It is built
// per call and never stored.
type Document struct {
	PatientID      string
	ConsultationID string

	// Patient and Consultation are nil when they could not be loaded.
	Patient      *entities.Patient
	Consultation *entities.Consultation

	// VitalHistory is the merged, newest-first, truncated vital history.
	VitalHistory []*entities.Vital

	Sections []Section
}

// Section returns the lines of the named section.
func (d *Document) Section(title string) []string {
	for _, s := range d.Sections {
		if s.Title == title {
			return s.Lines
		}
	}
	return nil
}

// String renders the document as prompt text.
func (d *Document) String() string {
	var b strings.Builder
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ")
		b.WriteString(s.Title)
		b.WriteString("\n")
		for _, line := range s.Lines {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
