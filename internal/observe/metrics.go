// Package observe provides application-wide observability primitives for the
// tutor client: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP instrumentation that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint while an interactive session is
// running. A package-level default [Metrics] instance ([DefaultMetrics]) is
// provided for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all tutor metrics.
const meterName = "github.com/MrWong99/tutor"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// ChatDuration tracks one chat attempt, from request to reply or failure.
	ChatDuration metric.Float64Histogram

	// TranscriptionDuration tracks speech-to-text latency per provider.
	TranscriptionDuration metric.Float64Histogram

	// QuizDuration tracks test generation latency.
	QuizDuration metric.Float64Histogram

	// PortalRequestDuration tracks outgoing backend HTTP calls. Use with attributes:
	//   attribute.String("method", ...), attribute.String("host", ...), attribute.Int("status", ...)
	PortalRequestDuration metric.Float64Histogram

	// --- Counters ---

	// PortalRequests counts outgoing backend HTTP calls by method, host and status.
	PortalRequests metric.Int64Counter

	// ProviderRequests counts transcription provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ChatRetries counts retry attempts issued after a network failure.
	ChatRetries metric.Int64Counter

	// ChatFailures counts terminal chat failures. Use with attribute:
	//   attribute.String("kind", ...)
	ChatFailures metric.Int64Counter

	// CaptureSessions counts finished recording sessions. Use with attribute:
	//   attribute.String("outcome", ...)
	CaptureSessions metric.Int64Counter

	// --- Gauges ---

	// ActiveCaptures tracks the number of open audio captures.
	ActiveCaptures metric.Int64UpDownCounter

	// --- HTTP server middleware ---

	// HTTPRequestDuration tracks local metrics/health endpoint handling time.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) covering
// fast backend calls up to the 90 s chat deadline.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	hist := func(name, desc string) (metric.Float64Histogram, error) {
		return m.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		)
	}

	if met.ChatDuration, err = hist("tutor.chat.duration", "Latency of one chat attempt."); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = hist("tutor.stt.duration", "Latency of speech-to-text transcription."); err != nil {
		return nil, err
	}
	if met.QuizDuration, err = hist("tutor.quiz.duration", "Latency of chapter test generation."); err != nil {
		return nil, err
	}
	if met.PortalRequestDuration, err = hist("tutor.portal.request.duration", "Latency of backend HTTP requests by method, host and status."); err != nil {
		return nil, err
	}

	if met.PortalRequests, err = m.Int64Counter("tutor.portal.requests",
		metric.WithDescription("Total backend HTTP requests by method, host and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("tutor.provider.requests",
		metric.WithDescription("Total transcription provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ChatRetries, err = m.Int64Counter("tutor.chat.retries",
		metric.WithDescription("Total chat retry attempts after network failures."),
	); err != nil {
		return nil, err
	}
	if met.ChatFailures, err = m.Int64Counter("tutor.chat.failures",
		metric.WithDescription("Total terminal chat failures by kind."),
	); err != nil {
		return nil, err
	}
	if met.CaptureSessions, err = m.Int64Counter("tutor.capture.sessions",
		metric.WithDescription("Total finished recording sessions by outcome."),
	); err != nil {
		return nil, err
	}

	if met.ActiveCaptures, err = m.Int64UpDownCounter("tutor.active_captures",
		metric.WithDescription("Number of open audio captures."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("tutor.http.request.duration",
		metric.WithDescription("Local HTTP endpoint latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records a transcription provider call.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordChatFailure records a terminal chat failure of the given kind.
func (m *Metrics) RecordChatFailure(ctx context.Context, kind string) {
	m.ChatFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordCaptureSession records the outcome of a finished recording session.
func (m *Metrics) RecordCaptureSession(ctx context.Context, outcome string) {
	m.CaptureSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
