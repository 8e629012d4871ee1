package routes

import (
	"net/http"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/adapters/ratelimit"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/api/handlers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/api/middleware"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	aiHandler        *handlers.AIHandler
	encounterHandler *handlers.EncounterHandler

	limiter         *ratelimit.Limiter
	proxies         *middleware.TrustedProxies
	allowedOrigins  []string
	modelConfigured func() bool
	metrics         *observability.Metrics
}

// NewRouter creates a new router. limiter may be nil to serve without
// request throttling, and proxies nil to key every client on its peer.
func NewRouter(
	aiHandler *handlers.AIHandler,
	encounterHandler *handlers.EncounterHandler,
	limiter *ratelimit.Limiter,
	proxies *middleware.TrustedProxies,
	allowedOrigins []string,
	modelConfigured func() bool,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		aiHandler:        aiHandler,
		encounterHandler: encounterHandler,
		limiter:          limiter,
		proxies:          proxies,
		allowedOrigins:   allowedOrigins,
		modelConfigured:  modelConfigured,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		configured := r.modelConfigured != nil && r.modelConfigured()
		handlers.RespondHealth(w, configured)
	})

	// Consultation decision support
	r.mux.HandleFunc("GET /api/ai/consultations/{id}/clinical-support", r.aiHandler.ClinicalSupport)
	r.mux.HandleFunc("POST /api/ai/consultations/{id}/diagnoses", r.aiHandler.SuggestDiagnoses)

	// Patient features
	r.mux.HandleFunc("GET /api/ai/patients/{id}/early-warning", r.aiHandler.EarlyWarning)
	r.mux.HandleFunc("GET /api/ai/patients/{id}/care-plan", r.aiHandler.CarePlan)
	r.mux.HandleFunc("POST /api/ai/patients/{id}/chat", r.aiHandler.Chat)
	r.mux.HandleFunc("GET /api/ai/patients/{id}/audit-logs", r.aiHandler.AuditLogs)

	r.mux.HandleFunc("POST /api/ai/prescriptions/{id}/verify", r.aiHandler.VerifyPrescription)
	r.mux.HandleFunc("GET /api/ai/branches/{id}/crm-insights", r.aiHandler.CRMInsights)

	// Encounter lifecycle
	r.mux.HandleFunc("POST /api/consultations/{id}/complete", r.encounterHandler.Complete)

	// Apply middleware in reverse order (last middleware wraps first).
	// Tenant resolution runs before logging so request logs carry the scope.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.TenantMiddleware(handler)

	if r.limiter != nil {
		handler = middleware.RateLimitMiddleware(r.limiter, r.proxies, r.metrics)(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so rejections also get CORS headers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
