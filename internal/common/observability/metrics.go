package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records workflow runs through OpenTelemetry. The Prometheus
// exporter registers with the default registry, so the values show up on the
// same /metrics endpoint as the promauto collectors.
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	workflowCounter  otelmetric.Int64Counter
	workflowDuration otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return newWithProvider(provider, serviceName), nil
}

// NewWithReader builds an instance on a caller-provided reader; tests use a
// ManualReader.
func NewWithReader(reader metric.Reader, serviceName string) *Observability {
	return newWithProvider(metric.NewMeterProvider(metric.WithReader(reader)), serviceName)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	workflowCounter, _ := meter.Int64Counter(
		"workflows.runs",
		otelmetric.WithDescription("Number of workflow runs by workflow and status"),
	)

	workflowDuration, _ := meter.Float64Histogram(
		"workflows.duration",
		otelmetric.WithDescription("Workflow run duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		workflowCounter:  workflowCounter,
		workflowDuration: workflowDuration,
	}
}

// RecordWorkflow counts one run of workflow and records its duration.
// A nil receiver is a no-op so callers can leave observability unset.
func (o *Observability) RecordWorkflow(ctx context.Context, workflow, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("status", status),
	)
	if o.workflowCounter != nil {
		o.workflowCounter.Add(ctx, 1, attrs)
	}
	if o.workflowDuration != nil {
		o.workflowDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
