package llm

import (
	"context"
	"time"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// Outcome is the result classification of one model invocation
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
)

// InvocationResult captures one round trip to the model.
type InvocationResult struct {
	RawText      string
	LatencyMs    int64
	Outcome      Outcome
	ErrorMessage string
}

// Gateway is the only path from the pipeline to the language model. A nil
// provider means the model is not configured; callers branch on Configured
// before submitting.
type Gateway struct {
	provider providers.CompletionProvider
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewGateway creates a gateway around provider, which may be nil.
func NewGateway(provider providers.CompletionProvider, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		provider: provider,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Configured reports whether a model provider is wired in.
func (g *Gateway) Configured() bool {
	return g != nil && g.provider != nil
}

// Submit sends prompt to the model and blocks until it answers or fails.
// There is no timeout or retry at this layer. The returned error is
// ErrModelUnavailable when unconfigured, or a MODEL_INVOCATION AppError.
func (g *Gateway) Submit(ctx context.Context, feature entities.FeatureType, prompt string) (*InvocationResult, error) {
	if !g.Configured() {
		return nil, apperrors.ErrModelUnavailable
	}

	ctx, span := observability.StartSpan(ctx, "llm.submit")
	defer span.End()

	start := g.now()
	text, err := g.provider.Complete(ctx, prompt)
	latency := g.now().Sub(start)

	result := &InvocationResult{
		RawText:   text,
		LatencyMs: latency.Milliseconds(),
		Outcome:   OutcomeSuccess,
	}

	if err != nil {
		observability.RecordError(span, err)
		result.Outcome = OutcomeFailed
		result.ErrorMessage = err.Error()
		observability.RecordModelCall(ctx, g.metrics, string(feature), string(OutcomeFailed), latency)
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("feature", string(feature)).
			Int64("latency_ms", result.LatencyMs).
			Msg("model invocation failed")
		return result, apperrors.NewModelInvocationError(err)
	}

	observability.RecordModelCall(ctx, g.metrics, string(feature), string(OutcomeSuccess), latency)
	return result, nil
}
