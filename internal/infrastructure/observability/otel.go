package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/duyho0705/chronic-disease-management-system-sub000"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount       metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	ModelRequestCount  metric.Int64Counter
	ModelLatency       metric.Float64Histogram
	FallbackCount      metric.Int64Counter
	CacheHitCount      metric.Int64Counter
	CacheMissCount     metric.Int64Counter
	RateLimitRejection metric.Int64Counter
	AsyncTaskCount     metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics and runtime instrumentation
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(15 * time.Second)); err != nil {
		GetLogger().Warn().Err(err).Msg("runtime instrumentation not started")
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
	metricsErr  error
)

// InitMetrics initializes application metrics. Instruments are created once
// against the global meter provider; later calls return the same set.
func InitMetrics() (*Metrics, error) {
	metricsOnce.Do(func() {
		metrics, metricsErr = newMetrics(otel.Meter(instrumentationName))
	})
	return metrics, metricsErr
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.RequestCount, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.ModelRequestCount, err = meter.Int64Counter("ai.model.request.count",
		metric.WithDescription("Number of model invocation attempts")); err != nil {
		return nil, err
	}
	if m.ModelLatency, err = meter.Float64Histogram("ai.model.request.duration",
		metric.WithDescription("Model round-trip latency in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.FallbackCount, err = meter.Int64Counter("ai.fallback.count",
		metric.WithDescription("Number of degraded feature results")); err != nil {
		return nil, err
	}
	if m.CacheHitCount, err = meter.Int64Counter("cache.hit.count",
		metric.WithDescription("Number of cache hits")); err != nil {
		return nil, err
	}
	if m.CacheMissCount, err = meter.Int64Counter("cache.miss.count",
		metric.WithDescription("Number of cache misses")); err != nil {
		return nil, err
	}
	if m.RateLimitRejection, err = meter.Int64Counter("ratelimit.rejected.count",
		metric.WithDescription("Number of requests rejected by the rate limiter")); err != nil {
		return nil, err
	}
	if m.AsyncTaskCount, err = meter.Int64Counter("async.task.count",
		metric.WithDescription("Number of background tasks by outcome")); err != nil {
		return nil, err
	}
	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordRequestMetric records an HTTP request metric
func RecordRequestMetric(ctx context.Context, m *Metrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	)
	m.RequestCount.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordModelCall records one model invocation attempt
func RecordModelCall(ctx context.Context, m *Metrics, feature, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("ai.feature", feature),
		attribute.String("ai.outcome", outcome),
	)
	m.ModelRequestCount.Add(ctx, 1, attrs)
	m.ModelLatency.Record(ctx, float64(latency.Milliseconds()), attrs)
}

// RecordFallback records a degraded feature result
func RecordFallback(ctx context.Context, m *Metrics, feature, reason string) {
	if m == nil {
		return
	}
	m.FallbackCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ai.feature", feature),
		attribute.String("ai.degraded_reason", reason),
	))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, m *Metrics, tier, feature string) {
	if m == nil {
		return
	}
	m.CacheHitCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.tier", tier),
		attribute.String("ai.feature", feature),
	))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, m *Metrics, tier, feature string) {
	if m == nil {
		return
	}
	m.CacheMissCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.tier", tier),
		attribute.String("ai.feature", feature),
	))
}

// RecordRateLimitRejection records a request rejected by a token bucket
func RecordRateLimitRejection(ctx context.Context, m *Metrics, profile string) {
	if m == nil {
		return
	}
	m.RateLimitRejection.Add(ctx, 1, metric.WithAttributes(attribute.String("ratelimit.profile", profile)))
}

// RecordAsyncTask records the outcome of a background task
func RecordAsyncTask(ctx context.Context, m *Metrics, task, outcome string) {
	if m == nil {
		return
	}
	m.AsyncTaskCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task.name", task),
		attribute.String("task.outcome", outcome),
	))
}
