package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/adapters/ratelimit"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/api/handlers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/api/routes"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

type stubCarePlans struct {
	scopes []tenant.Scope
}

func (s *stubCarePlans) Draft(ctx context.Context, patientID string) (*entities.CarePlan, error) {
	s.scopes = append(s.scopes, tenant.FromContext(ctx))
	return &entities.CarePlan{Interventions: []string{"Titrate metformin"}, FollowUpDays: 30}, nil
}

type stubEncounters struct{}

func (stubEncounters) Complete(ctx context.Context, consultationID string) (*entities.Consultation, error) {
	return &entities.Consultation{ID: consultationID, Status: entities.ConsultationStatusCompleted}, nil
}

func newTestRouter(carePlans *stubCarePlans, limiter *ratelimit.Limiter) http.Handler {
	aiHandler := handlers.NewAIHandler(nil, nil, nil, carePlans, nil, nil, nil)
	router := routes.NewRouter(aiHandler, handlers.NewEncounterHandler(stubEncounters{}), limiter, nil,
		[]string{"*"}, func() bool { return false }, nil)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	handler := newTestRouter(&stubCarePlans{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["modelConfigured"])
}

func TestRouter_ScopeReachesServices(t *testing.T) {
	carePlans := &stubCarePlans{}
	handler := newTestRouter(carePlans, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ai/patients/p-1/care-plan", nil)
	req.Header.Set("X-Tenant-ID", "clinic-a")
	req.Header.Set("X-Branch-ID", "branch-1")
	req.Header.Set("Origin", "https://clinic.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, carePlans.scopes, 1)
	assert.Equal(t, "clinic-a", carePlans.scopes[0].TenantID)
	assert.Equal(t, "branch-1", carePlans.scopes[0].BranchID)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_MissingTenantNeverReachesServices(t *testing.T) {
	carePlans := &stubCarePlans{}
	handler := newTestRouter(carePlans, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ai/patients/p-1/care-plan", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, carePlans.scopes)
}

func TestRouter_StrictProfileThrottlesAIRoutes(t *testing.T) {
	limiter := ratelimit.NewLimiter(config.RateLimitConfig{
		Strict:  config.BucketConfig{Capacity: 1, RefillPerMinute: 1},
		Default: config.BucketConfig{Capacity: 10, RefillPerMinute: 10},
	}, nil)
	handler := newTestRouter(&stubCarePlans{}, limiter)

	call := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-Tenant-ID", "clinic-a")
		req.RemoteAddr = "10.1.1.1:9000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/ai/patients/p-1/care-plan"))
	assert.Equal(t, http.StatusTooManyRequests, call(http.MethodGet, "/api/ai/patients/p-1/care-plan"))
	assert.Equal(t, http.StatusOK, call(http.MethodPost, "/api/consultations/c-1/complete"))
}
