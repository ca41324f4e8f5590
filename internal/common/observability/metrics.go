// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Observability owns the OpenTelemetry meter provider and the job/search instruments.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	searchCounter  otelmetric.Int64Counter
	searchDuration otelmetric.Float64Histogram
}

// New registers a Prometheus-exporting meter provider as the global provider.
func New(serviceName string, logger *zap.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		logger.Warn("Failed to create Prometheus exporter", zap.Error(err))
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return newWithProvider(provider, serviceName)
}

// NewWithReader builds instruments on a private provider, used by tests with a ManualReader.
func NewWithReader(serviceName string, reader metric.Reader) *Observability {
	return newWithProvider(metric.NewMeterProvider(metric.WithReader(reader)), serviceName)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	searchCounter, _ := meter.Int64Counter(
		"search.processed",
		otelmetric.WithDescription("Number of search invocations"),
	)

	searchDuration, _ := meter.Float64Histogram(
		"search.duration",
		otelmetric.WithDescription("Search invocation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		jobCounter:     jobCounter,
		jobDuration:    jobDuration,
		searchCounter:  searchCounter,
		searchDuration: searchDuration,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordSearch counts one search invocation and its duration by provenance.
func (o *Observability) RecordSearch(ctx context.Context, provenance string, duration time.Duration) {
	if o == nil || o.searchCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("provenance", provenance))
	o.searchCounter.Add(ctx, 1, attrs)
	o.searchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
