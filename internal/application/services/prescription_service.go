package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/clinicalcontext"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// PrescriptionVerificationService checks a prescription for interactions and
// contraindications before it is dispensed. Results are never cached.
type PrescriptionVerificationService struct {
	pipeline *Pipeline
	repo     repositories.ClinicalDataRepository
}

// NewPrescriptionVerificationService creates a new prescription verification service
func NewPrescriptionVerificationService(pipeline *Pipeline, repo repositories.ClinicalDataRepository) *PrescriptionVerificationService {
	return &PrescriptionVerificationService{
		pipeline: pipeline,
		repo:     repo,
	}
}

// Verify reviews a stored prescription. A missing prescription is returned
// as an error; model failures yield a WARNING fallback.
func (s *PrescriptionVerificationService) Verify(ctx context.Context, prescriptionID string) (*entities.PrescriptionVerification, error) {
	if prescriptionID == "" {
		return nil, apperrors.NewValidationError("prescription id is required")
	}

	prescription, err := s.repo.GetPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}

	var doc *clinicalcontext.Document
	if prescription.ConsultationID != "" {
		doc = s.pipeline.builder.ForConsultation(ctx, prescription.ConsultationID)
	} else {
		doc = s.pipeline.builder.ForPatient(ctx, prescription.PatientID)
	}

	verification, err := invokeStructured[entities.PrescriptionVerification](ctx, s.pipeline, request{
		feature:   entities.FeaturePrescriptionVerification,
		patientID: prescription.PatientID,
		context:   doc.String(),
		extras:    map[string]string{prompts.ExtraPrescription: formatPrescription(prescription)},
	})
	if err != nil {
		return fallback.PrescriptionVerification(s.pipeline.degrade(ctx, entities.FeaturePrescriptionVerification, err)), nil
	}

	verification.Status = normalizeVerificationStatus(verification.Status)
	if verification.Interactions == nil {
		verification.Interactions = []entities.DrugInteraction{}
	}
	if verification.Warnings == nil {
		verification.Warnings = []string{}
	}
	return verification, nil
}

// normalizeVerificationStatus maps anything other than SAFE or DANGER to
// WARNING so an unrecognised answer is never read as safe.
func normalizeVerificationStatus(status string) string {
	switch status = strings.ToUpper(strings.TrimSpace(status)); status {
	case entities.VerificationSafe, entities.VerificationDanger:
		return status
	default:
		return entities.VerificationWarning
	}
}

func formatPrescription(p *entities.Prescription) string {
	if len(p.Items) == 0 {
		return clinicalcontext.Placeholder
	}
	lines := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		line := fmt.Sprintf("- %s %s, %s", item.MedicineName, item.Dosage, item.Frequency)
		if item.DurationDays > 0 {
			line += fmt.Sprintf(", %d days", item.DurationDays)
		}
		if item.Instructions != "" {
			line += " (" + item.Instructions + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
