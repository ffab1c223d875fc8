package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/idmigrate/component"
)

// Component owns the tracer and meter providers for one process.
type Component struct {
	cfg         Config
	service     string
	version     string
	environment string

	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates the observability component.
func NewComponent(cfg Config, service, version, environment string) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, service: service, version: version, environment: environment}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start initializes the enabled exporters and the migration instruments.
// Disabled exporters leave the global no-op providers in place.
func (c *Component) Start(ctx context.Context) error {
	if c.cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, c.cfg.tracerConfig(c.service, c.version, c.environment))
		if err != nil {
			return fmt.Errorf("observability start: %w", err)
		}
		c.tp = tp
	}
	if c.cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, c.cfg.meterConfig(c.service, c.version, c.environment))
		if err != nil {
			return fmt.Errorf("observability start: %w", err)
		}
		c.mp = mp
	}

	metrics, err := NewMetrics(Meter(c.service))
	if err != nil {
		return fmt.Errorf("observability start: %w", err)
	}
	c.metrics = metrics
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health always reports healthy; exporters retry in the background.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Metrics returns the instruments created by Start, or nil before Start.
func (c *Component) Metrics() *Metrics { return c.metrics }

// TextfilePath returns the configured textfile path, empty when disabled.
func (c *Component) TextfilePath() string { return c.cfg.Textfile.Path }

// Describe returns summary info for the run summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name: "Observability",
		Type: "otel",
		Details: fmt.Sprintf("tracing=%t metrics=%t textfile=%q",
			c.cfg.Tracing.Enabled, c.cfg.Metrics.Enabled, c.cfg.Textfile.Path),
	}
}
