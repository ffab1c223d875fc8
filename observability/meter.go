package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/idmigrate/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricProduced       = "idmigrate.records.produced"
	MetricDequeued       = "idmigrate.records.dequeued"
	MetricWritten        = "idmigrate.records.written"
	MetricSkipped        = "idmigrate.records.skipped"
	MetricFailed         = "idmigrate.records.failed"
	MetricSourceErrors   = "idmigrate.source.errors"
	MetricRecordDuration = "idmigrate.record.duration"
)

// Metrics holds the migration instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	produced       metric.Int64Counter
	dequeued       metric.Int64Counter
	written        metric.Int64Counter
	skipped        metric.Int64Counter
	failed         metric.Int64Counter
	sourceErrors   metric.Int64Counter
	recordDuration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.produced, MetricProduced, "Records handed to the relay by the producer"},
		{&m.dequeued, MetricDequeued, "Records taken from the relay by workers"},
		{&m.written, MetricWritten, "Records stored at the destination"},
		{&m.skipped, MetricSkipped, "Records skipped by reason"},
		{&m.failed, MetricFailed, "Records that aborted a worker, by error code"},
		{&m.sourceErrors, MetricSourceErrors, "Malformed source records"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}

	recordDuration, err := meter.Float64Histogram(MetricRecordDuration,
		metric.WithDescription("Time to convert and store one record in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRecordDuration, err)
	}
	m.recordDuration = recordDuration

	return m, nil
}

// RecordProduced counts a record accepted by the relay.
func (m *Metrics) RecordProduced(ctx context.Context) {
	if m == nil {
		return
	}
	m.produced.Add(ctx, 1)
}

// RecordDequeued counts a record taken by a worker.
func (m *Metrics) RecordDequeued(ctx context.Context) {
	if m == nil {
		return
	}
	m.dequeued.Add(ctx, 1)
}

// RecordWritten counts a stored record and its processing time.
func (m *Metrics) RecordWritten(ctx context.Context, duration time.Duration, dryRun bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("dry_run", dryRun))
	m.written.Add(ctx, 1, attrs)
	m.recordDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSkipped counts a skipped record.
func (m *Metrics) RecordSkipped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordFailed counts a record whose error stopped the run.
func (m *Metrics) RecordFailed(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// RecordSourceError counts a malformed source record.
func (m *Metrics) RecordSourceError(ctx context.Context) {
	if m == nil {
		return
	}
	m.sourceErrors.Add(ctx, 1)
}
