// Package observability builds the logger, tracer and metrics registry shared
// by every module.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	remindermetrics "github.com/Black-And-White-Club/kamisato/app/observability/metrics/reminder"
	"github.com/Black-And-White-Club/kamisato/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the ambient telemetry handles.
type Observability struct {
	Logger          *slog.Logger
	Tracer          trace.Tracer
	Registry        *prometheus.Registry
	ReminderMetrics remindermetrics.ReminderMetrics

	provider *sdktrace.TracerProvider
}

// New builds observability from config, logging JSON to stdout.
func New(ctx context.Context, cfg config.ObservabilityConfig) (*Observability, error) {
	return NewWithWriter(ctx, cfg, os.Stdout)
}

// NewWithWriter is New with a custom log destination.
func NewWithWriter(ctx context.Context, cfg config.ObservabilityConfig, w io.Writer) (*Observability, error) {
	logger := NewLogger(w, cfg.LogLevel).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs := &Observability{
		Logger:          logger,
		Tracer:          noop.NewTracerProvider().Tracer(cfg.ServiceName),
		Registry:        reg,
		ReminderMetrics: remindermetrics.NewPrometheus(reg),
	}

	if cfg.OTLPEndpoint == "" {
		logger.InfoContext(ctx, "Tracing disabled, no OTLP endpoint configured")
		return obs, nil
	}

	provider, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	obs.provider = provider
	obs.Tracer = provider.Tracer(cfg.ServiceName)
	logger.InfoContext(ctx, "Tracing enabled",
		slog.String("otlp_endpoint", cfg.OTLPEndpoint),
		slog.Float64("sample_rate", cfg.TraceSampleRate),
	)
	return obs, nil
}

func newTracerProvider(ctx context.Context, cfg config.ObservabilityConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", cfg.Environment),
	)

	rate := cfg.TraceSampleRate
	if rate == 0 {
		rate = config.DefaultSampleRate
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	), nil
}

// Shutdown flushes buffered spans. It is a no-op when tracing is disabled.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.provider == nil {
		return nil
	}
	if err := o.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// NewLogger returns a JSON slog logger at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
