package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps err to a status code. Model failures never get
// here; feature services turn them into degraded results.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var statusCode int
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		statusCode = http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		statusCode = http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		statusCode = http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		statusCode = http.StatusUnauthorized
	case apperrors.ErrorTypeRateLimited:
		w.Header().Set("Retry-After", "60")
		respondWithJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "rate limit exceeded",
			"code":  string(apperrors.ErrorTypeRateLimited),
		})
		return
	case apperrors.ErrorTypeModelUnavailable:
		statusCode = http.StatusServiceUnavailable
	case apperrors.ErrorTypeExternal, apperrors.ErrorTypeModelInvocation, apperrors.ErrorTypeMalformedResponse:
		statusCode = http.StatusBadGateway
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var appErr *apperrors.AppError
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	respondWithError(w, statusCode, message)
}

// RespondHealth writes the liveness answer. The service stays healthy
// without a model; AI features then answer degraded.
func RespondHealth(w http.ResponseWriter, modelConfigured bool) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"modelConfigured": modelConfigured,
	})
}
