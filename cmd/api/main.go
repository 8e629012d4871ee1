package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/adapters/cache"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/adapters/database"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/adapters/events"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/adapters/ratelimit"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/api/handlers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/api/middleware"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/api/routes"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/audit"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/clinicalcontext"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/llm"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/services"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/openai"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/postgres"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/redis"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/workerpool"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis backs the shared cache level and the event relay. Without it
	// every instance keeps a private cache and events stay in-process.
	var remoteCache providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("continuing without Redis")
		} else {
			defer redisClient.Close()
			remoteCache = cache.NewRedisCache(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}

	// An unset API key is a supported deployment: AI features degrade.
	var completionProvider providers.CompletionProvider
	openaiClient, err := openai.NewClient(&cfg.OpenAI)
	switch {
	case errors.Is(err, openai.ErrNotConfigured):
		logger.Warn().Msg("OPENAI_API_KEY is not set; AI features will answer with fallbacks")
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to initialize OpenAI client")
	default:
		completionProvider = openaiClient
	}

	// Initialize adapters
	clinicalData := database.NewClinicalDataAdapter(pgClient)
	consultations := database.NewConsultationAdapter(pgClient)
	auditLogs := database.NewAuditLogAdapter(pgClient)

	resultCache := cache.NewTieredCache(cfg.Cache, remoteCache, metrics)
	limiter := ratelimit.NewLimiter(cfg.RateLimit, metrics)
	trustedProxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid RATE_LIMIT_TRUSTED_PROXIES")
	}

	pool := workerpool.New(cfg.Worker, metrics)
	dispatcher := events.NewAsyncDispatcher(pool, eventBus)

	// Initialize the AI pipeline
	recorder := audit.NewRecorder(auditLogs)
	pipeline := services.NewPipeline(
		clinicalcontext.NewBuilder(clinicalData),
		prompts.NewRegistry(),
		llm.NewGateway(completionProvider, metrics),
		recorder,
		resultCache,
		metrics,
	)

	// Initialize services
	clinicalSupportService := services.NewClinicalSupportService(pipeline)
	earlyWarningService := services.NewEarlyWarningService(pipeline)
	prescriptionService := services.NewPrescriptionVerificationService(pipeline, clinicalData)
	carePlanService := services.NewCarePlanService(pipeline)
	crmInsightService := services.NewCRMInsightService(pipeline, clinicalData, limiter)
	chatService := services.NewChatService(pipeline)
	insightService := services.NewConsultationInsightService(pipeline)
	encounterService := services.NewEncounterService(consultations, dispatcher)

	dispatcher.Subscribe(entities.ClinicalEventEncounterCompleted, services.NewInsightHandler(insightService, consultations, dispatcher))

	// Initialize handlers
	aiHandler := handlers.NewAIHandler(
		clinicalSupportService,
		earlyWarningService,
		prescriptionService,
		carePlanService,
		crmInsightService,
		chatService,
		recorder,
	)
	encounterHandler := handlers.NewEncounterHandler(encounterService)

	// Set up router
	router := routes.NewRouter(
		aiHandler,
		encounterHandler,
		limiter,
		trustedProxies,
		cfg.Server.AllowedOrigins,
		pipeline.ModelConfigured,
		metrics,
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	// Drain background insight generation before closing its dependencies
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("worker pool did not drain")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}

	logger.Info().Msg("server stopped")
}
