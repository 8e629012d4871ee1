package handlers

import (
	"context"
	"net/http"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// EncounterService defines the consultation completion operation
type EncounterService interface {
	Complete(ctx context.Context, consultationID string) (*entities.Consultation, error)
}

// EncounterHandler handles consultation lifecycle requests
type EncounterHandler struct {
	service EncounterService
}

// NewEncounterHandler creates a new encounter handler
func NewEncounterHandler(service EncounterService) *EncounterHandler {
	return &EncounterHandler{
		service: service,
	}
}

// Complete handles POST /api/consultations/{id}/complete. The insight is
// generated in the background and is not part of the response.
func (h *EncounterHandler) Complete(w http.ResponseWriter, r *http.Request) {
	consultation, err := h.service.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, consultation)
}
