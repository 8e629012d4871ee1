package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// ClinicalSupportService defines the consultation decision-support operations
type ClinicalSupportService interface {
	Advise(ctx context.Context, consultationID string) (*entities.ClinicalAdvice, error)
	SuggestDiagnoses(ctx context.Context, consultationID, symptoms string) (*entities.DiagnosisSet, error)
}

// EarlyWarningService defines the deterioration assessment operation
type EarlyWarningService interface {
	Assess(ctx context.Context, patientID string) (*entities.EarlyWarning, error)
}

// PrescriptionVerificationService defines the prescription safety review operation
type PrescriptionVerificationService interface {
	Verify(ctx context.Context, prescriptionID string) (*entities.PrescriptionVerification, error)
}

// CarePlanService defines the care plan drafting operation
type CarePlanService interface {
	Draft(ctx context.Context, patientID string) (*entities.CarePlan, error)
}

// CRMInsightService defines the branch insight operation
type CRMInsightService interface {
	Insights(ctx context.Context, branchID string) (*entities.CRMInsight, error)
}

// ChatService defines the patient chat operation
type ChatService interface {
	Reply(ctx context.Context, patientID, message string, history []entities.ChatMessage) (*entities.ChatReply, error)
}

// AuditTrail defines the audit read operation
type AuditTrail interface {
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.AuditLogEntry, error)
}

// AIHandler exposes the AI features. Degraded results are answered with 200
// and carry their degraded marker in the body.
type AIHandler struct {
	clinical     ClinicalSupportService
	earlyWarning EarlyWarningService
	prescription PrescriptionVerificationService
	carePlan     CarePlanService
	crm          CRMInsightService
	chat         ChatService
	audit        AuditTrail
}

// NewAIHandler creates a new AI handler
func NewAIHandler(
	clinical ClinicalSupportService,
	earlyWarning EarlyWarningService,
	prescription PrescriptionVerificationService,
	carePlan CarePlanService,
	crm CRMInsightService,
	chat ChatService,
	audit AuditTrail,
) *AIHandler {
	return &AIHandler{
		clinical:     clinical,
		earlyWarning: earlyWarning,
		prescription: prescription,
		carePlan:     carePlan,
		crm:          crm,
		chat:         chat,
		audit:        audit,
	}
}

// ClinicalSupport handles GET /api/ai/consultations/{id}/clinical-support
func (h *AIHandler) ClinicalSupport(w http.ResponseWriter, r *http.Request) {
	advice, err := h.clinical.Advise(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, advice)
}

type diagnosisRequest struct {
	Symptoms string `json:"symptoms"`
}

// SuggestDiagnoses handles POST /api/ai/consultations/{id}/diagnoses
func (h *AIHandler) SuggestDiagnoses(w http.ResponseWriter, r *http.Request) {
	var req diagnosisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	set, err := h.clinical.SuggestDiagnoses(r.Context(), r.PathValue("id"), req.Symptoms)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, set)
}

// EarlyWarning handles GET /api/ai/patients/{id}/early-warning
func (h *AIHandler) EarlyWarning(w http.ResponseWriter, r *http.Request) {
	warning, err := h.earlyWarning.Assess(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, warning)
}

// VerifyPrescription handles POST /api/ai/prescriptions/{id}/verify
func (h *AIHandler) VerifyPrescription(w http.ResponseWriter, r *http.Request) {
	verification, err := h.prescription.Verify(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, verification)
}

// CarePlan handles GET /api/ai/patients/{id}/care-plan
func (h *AIHandler) CarePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.carePlan.Draft(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, plan)
}

// CRMInsights handles GET /api/ai/branches/{id}/crm-insights
func (h *AIHandler) CRMInsights(w http.ResponseWriter, r *http.Request) {
	insight, err := h.crm.Insights(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, insight)
}

type chatRequest struct {
	Message string                 `json:"message"`
	History []entities.ChatMessage `json:"history"`
}

// Chat handles POST /api/ai/patients/{id}/chat
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	reply, err := h.chat.Reply(r.Context(), r.PathValue("id"), req.Message, req.History)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reply)
}

// AuditLogs handles GET /api/ai/patients/{id}/audit-logs
func (h *AIHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.audit.ListByPatient(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*entities.AuditLogEntry{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
