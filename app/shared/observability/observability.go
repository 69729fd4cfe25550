// Package observability builds the logger, tracer and metrics registry every
// module receives.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects the observability backends.
type Config struct {
	ServiceName    string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
	ServiceVersion string
}

// Observability bundles the telemetry handles passed to modules.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry

	shutdown func(context.Context) error
}

// Init sets up logging, tracing and the Prometheus registry. Tracing is
// opt-in: without an OTLP endpoint a noop tracer is used and no global
// provider is registered.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	logger := NewLogger(cfg.Environment)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs := &Observability{
		Logger:   logger,
		Registry: reg,
		shutdown: func(context.Context) error { return nil },
	}

	if cfg.OTLPEndpoint == "" {
		obs.Tracer = noop.NewTracerProvider().Tracer(cfg.ServiceName)
		logger.Info("Tracing disabled, no OTLP endpoint configured")
		return obs, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	obs.Tracer = tp.Tracer(cfg.ServiceName)
	obs.shutdown = tp.Shutdown
	logger.Info("Tracing enabled", slog.String("endpoint", cfg.OTLPEndpoint))
	return obs, nil
}

// NewNoop returns handles suitable for tests and offline tools.
func NewNoop() *Observability {
	return &Observability{
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
		Registry: prometheus.NewRegistry(),
		shutdown: func(context.Context) error { return nil },
	}
}

// Shutdown flushes pending spans.
func (o *Observability) Shutdown(ctx context.Context) error {
	return o.shutdown(ctx)
}

// NewLogger returns a JSON logger for deployed environments and a text logger
// for local development.
func NewLogger(environment string) *slog.Logger {
	switch environment {
	case "", "development", "local":
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0 || rate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}
