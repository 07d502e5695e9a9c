package observe

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/engramhq/engram-go/observe/exporters"
)

// Config selects which telemetry signals the client emits and where they go.
// The zero value disables every signal; NewObserver then returns an Observer
// whose tracer, meter, and logger are all no-ops.
type Config struct {
	ServiceName string
	Version     string
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Logging     LoggingConfig
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool
	Exporter  string  // one of: otlp, stdout, none
	Endpoint  string  // collector endpoint for otlp; OTEL env vars apply when empty
	SamplePct float64 // fraction of calls sampled, 0 to 1
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool
	Exporter string // one of: otlp, prometheus, stdout, none
	Endpoint string // collector endpoint for otlp; OTEL env vars apply when empty
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Enabled bool
	Level   string // one of: debug, info, warn, error
}

func (c TracingConfig) validate() error {
	if !slices.Contains(ValidTracingExporters, c.Exporter) {
		return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, c.Exporter)
	}
	if c.SamplePct < MinSamplePct || c.SamplePct > MaxSamplePct {
		return fmt.Errorf("%w, got: %f", ErrInvalidSamplePct, c.SamplePct)
	}
	return nil
}

func (c MetricsConfig) validate() error {
	if !slices.Contains(ValidMetricsExporters, c.Exporter) {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, c.Exporter)
	}
	return nil
}

func (c LoggingConfig) validate() error {
	if !slices.Contains(ValidLogLevels, c.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Level)
	}
	return nil
}

// Validate reports the first configuration problem found. Disabled
// subsystems are not checked, so a config can carry a bogus exporter
// name as long as that signal stays off.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.Tracing.Enabled {
		if err := c.Tracing.validate(); err != nil {
			return err
		}
	}
	if c.Metrics.Enabled {
		if err := c.Metrics.validate(); err != nil {
			return err
		}
	}
	if c.Logging.Enabled {
		if err := c.Logging.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Observer hands out the telemetry primitives the client is wired with.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: Shutdown gives up when ctx is done and returns its error.
// - Errors: Shutdown joins per-provider failures instead of stopping at the first.
type Observer interface {
	// Tracer returns the tracer spans are started from.
	Tracer() trace.Tracer

	// Meter returns the meter instruments are built on.
	Meter() metric.Meter

	// Logger returns the structured logger.
	Logger() Logger

	// Shutdown flushes and stops every provider this Observer owns.
	Shutdown(ctx context.Context) error
}

// Logger is the structured logging surface call-path code writes to.
//
// Contract:
// - Concurrency: safe for concurrent use; one logger may serve every goroutine.
// - Errors: logging is best-effort; it never panics and never fails the call.
// - Ownership: WithCall returns a derived logger; the receiver is unchanged.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	WithCall(meta CallMeta) Logger
}

// Field is one key/value pair on a log line.
type Field struct {
	Key   string
	Value any
}

// telemetry bundles the live providers behind the Observer interface.
// Provider fields stay nil for disabled signals; Shutdown skips them.
type telemetry struct {
	tracer         trace.Tracer
	meter          metric.Meter
	logger         Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// NewObserver builds an Observer from cfg. Each enabled signal gets a
// real provider wired to its exporter; disabled signals get no-ops, so
// callers never branch on whether telemetry is on.
func NewObserver(ctx context.Context, cfg Config) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}

	t := &telemetry{
		tracer: tracenoop.NewTracerProvider().Tracer("noop"),
		meter:  noop.NewMeterProvider().Meter("noop"),
		logger: nopLogger{},
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, cfg.Tracing, res)
		if err != nil {
			return nil, fmt.Errorf("set up tracing: %w", err)
		}
		otel.SetTracerProvider(tp)
		t.tracerProvider = tp
		t.tracer = tp.Tracer(cfg.ServiceName)
	}

	if cfg.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, cfg.Metrics, res)
		if err != nil {
			return nil, fmt.Errorf("set up metrics: %w", err)
		}
		otel.SetMeterProvider(mp)
		t.meterProvider = mp
		t.meter = mp.Meter(cfg.ServiceName)
	}

	if cfg.Logging.Enabled {
		t.logger = NewLogger(cfg.Logging.Level)
	}

	return t, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := exporters.NewTracingExporter(ctx, cfg.Exporter, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplePct)),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// samplerFor clamps the ratio sampler to its degenerate forms so a
// SamplePct of exactly 0 or 1 never goes through ID hashing.
func samplerFor(pct float64) sdktrace.Sampler {
	switch {
	case pct >= 1.0:
		return sdktrace.AlwaysSample()
	case pct <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(pct)
	}
}

func newMeterProvider(ctx context.Context, cfg MetricsConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	reader, err := exporters.NewMetricsReader(ctx, cfg.Exporter, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("create metrics reader: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

func (t *telemetry) Tracer() trace.Tracer { return t.tracer }
func (t *telemetry) Meter() metric.Meter  { return t.meter }
func (t *telemetry) Logger() Logger       { return t.logger }

func (t *telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shut down trace provider: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shut down meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
