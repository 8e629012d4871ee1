package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/audit"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/clinicalcontext"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/llm"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

// Pipeline holds the stages shared by every AI feature: context building,
// prompt rendering, the model gateway, the audit ledger and the result cache.
type Pipeline struct {
	builder  *clinicalcontext.Builder
	registry *prompts.Registry
	gateway  *llm.Gateway
	recorder *audit.Recorder
	cache    providers.ResultCache
	metrics  *observability.Metrics
}

// NewPipeline creates a new AI feature pipeline. cache and metrics may be nil.
func NewPipeline(
	builder *clinicalcontext.Builder,
	registry *prompts.Registry,
	gateway *llm.Gateway,
	recorder *audit.Recorder,
	cache providers.ResultCache,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		builder:  builder,
		registry: registry,
		gateway:  gateway,
		recorder: recorder,
		cache:    cache,
		metrics:  metrics,
	}
}

// ModelConfigured reports whether the pipeline can reach a model.
func (p *Pipeline) ModelConfigured() bool {
	return p.gateway.Configured()
}

// request is one model invocation of a feature.
type request struct {
	feature   entities.FeatureType
	patientID string
	context   string
	extras    map[string]string
}

// invoke renders and submits the prompt of req, hands the raw answer to
// parse and writes exactly one audit entry for the attempt. Nothing is
// rendered, sent or audited when the model is not configured. Once the
// prompt is rendered the call and its audit entry no longer follow the
// caller's cancellation.
func (p *Pipeline) invoke(ctx context.Context, req request, parse func(raw string) error) error {
	if !p.gateway.Configured() {
		return apperrors.ErrModelUnavailable
	}

	ctx, span := observability.StartSpan(ctx, "ai."+strings.ToLower(string(req.feature)),
		attribute.String("ai.feature", string(req.feature)),
	)
	defer span.End()

	prompt, err := p.registry.Render(req.feature, req.context, req.extras)
	if err != nil {
		observability.RecordError(span, err)
		return apperrors.NewInternalError("failed to render prompt", err)
	}
	span.SetAttributes(attribute.String("ai.prompt_version", prompt.Version))

	attempt := audit.Attempt{
		Feature:       req.feature,
		PatientID:     req.patientID,
		PromptVersion: prompt.Version,
		Prompt:        prompt.Text,
	}

	callCtx := trace.ContextWithSpan(tenant.Detach(ctx), span)
	result, err := p.gateway.Submit(callCtx, req.feature, prompt.Text)
	if result != nil {
		attempt.Response = result.RawText
		attempt.LatencyMs = result.LatencyMs
	}
	if err == nil {
		err = parse(attempt.Response)
	}
	if err != nil {
		observability.RecordError(span, err)
		attempt.Err = err
	}

	p.recorder.Record(callCtx, attempt)
	return err
}

// invokeStructured runs req and decodes the JSON object in the answer.
func invokeStructured[T any](ctx context.Context, p *Pipeline, req request) (*T, error) {
	var out *T
	err := p.invoke(ctx, req, func(raw string) error {
		decoded, err := llm.Decode[T](raw)
		if err != nil {
			return err
		}
		out = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// invokeText runs req and returns the trimmed free-text answer. An empty
// answer is malformed.
func (p *Pipeline) invokeText(ctx context.Context, req request) (string, error) {
	var out string
	err := p.invoke(ctx, req, func(raw string) error {
		out = strings.TrimSpace(raw)
		if out == "" {
			return apperrors.NewMalformedResponseError(errors.New("empty model response"))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// degrade records that feature falls back because of err and returns the
// degraded reason.
func (p *Pipeline) degrade(ctx context.Context, feature entities.FeatureType, err error) string {
	reason := fallback.ReasonFor(err)
	observability.RecordFallback(ctx, p.metrics, string(feature), reason)

	event := observability.LoggerFromContext(ctx).Warn()
	if reason == entities.DegradedModelUnavailable {
		event = observability.LoggerFromContext(ctx).Debug()
	}
	event.Err(err).
		Str("feature", string(feature)).
		Str("reason", reason).
		Msg("AI feature degraded to fallback")
	return reason
}

// normalizeRisk upper-cases a model risk level and maps anything outside
// LOW, MEDIUM and HIGH to UNKNOWN.
func normalizeRisk(level string) string {
	switch level = strings.ToUpper(strings.TrimSpace(level)); level {
	case entities.RiskLevelLow, entities.RiskLevelMedium, entities.RiskLevelHigh:
		return level
	default:
		return entities.RiskLevelUnknown
	}
}
