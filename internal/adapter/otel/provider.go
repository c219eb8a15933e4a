package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Exporter selects where telemetry is sent.
type Exporter string

const (
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
	ExporterNone   Exporter = "none" // providers are installed but nothing leaves the process
)

// Config holds OpenTelemetry provider configuration.
type Config struct {
	ServiceName    string        `env:"OTEL_SERVICE_NAME" envDefault:"cropseason"`
	ServiceVersion string        `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
	Environment    string        `env:"OTEL_ENVIRONMENT" envDefault:"development"` // "development" or "production"
	Exporter       Exporter      `env:"OTEL_EXPORTER" envDefault:"stdout"`
	SampleRatio    float64       `env:"OTEL_TRACES_SAMPLE_RATIO" envDefault:"1"`
	MetricInterval time.Duration `env:"OTEL_METRIC_INTERVAL" envDefault:"30s"`
	Insecure       bool          // plain HTTP for OTLP
}

// ConfigFromEnv builds Config from OTEL_* environment variables. OTLP runs
// insecure in development.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing otel config: %w", err)
	}
	cfg.Insecure = cfg.Environment == "development"
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Exporter {
	case ExporterStdout, ExporterOTLP, ExporterNone:
	default:
		return fmt.Errorf("unsupported exporter: %q (use %q, %q or %q)",
			c.Exporter, ExporterStdout, ExporterOTLP, ExporterNone)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("sample ratio %v out of range [0, 1]", c.SampleRatio)
	}
	return nil
}

// Providers holds the installed providers. Shutdown must be called on exit
// to flush pending telemetry.
type Providers struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}
	if err := p.MeterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// Setup builds the tracer and meter providers described by cfg and
// registers them globally along with the W3C propagators.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("creating tracer provider: %w", err)
	}

	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("creating meter provider: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Providers{TracerProvider: tp, MeterProvider: mp}, nil
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	var (
		exporter trace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case ExporterOTLP:
		var otlpOpts []otlptracehttp.Option
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, otlpOpts...)
	case ExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterNone:
		return trace.NewTracerProvider(opts...), nil
	}
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(append(opts, trace.WithBatcher(exporter))...), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*metric.MeterProvider, error) {
	var (
		exporter metric.Exporter
		err      error
	)
	switch cfg.Exporter {
	case ExporterOTLP:
		var otlpOpts []otlpmetrichttp.Option
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err = otlpmetrichttp.New(ctx, otlpOpts...)
	case ExporterStdout:
		exporter, err = stdoutmetric.New()
	case ExporterNone:
		return metric.NewMeterProvider(metric.WithResource(res)), nil
	}
	if err != nil {
		return nil, err
	}

	var readerOpts []metric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, metric.WithInterval(cfg.MetricInterval))
	}
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter, readerOpts...)),
	), nil
}
