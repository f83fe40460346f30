package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mkguldan/empirical/internal/config"
)

const (
	ServiceName = "vcpanel"
	MeterName   = "github.com/mkguldan/empirical"
)

// Telemetry owns the tracer and meter used by pipeline stages. Metrics are
// collected into a private Prometheus registry and dumped to a textfile on
// Shutdown, since a batch run has no scrape endpoint.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *promclient.Registry
	tracer         trace.Tracer

	rowsIn        metric.Int64Counter
	rowsOut       metric.Int64Counter
	stageErrors   metric.Int64Counter
	stageDuration metric.Float64Histogram

	metricsFile string
	logger      *slog.Logger
}

// NewTelemetry initializes tracing and metrics from configuration.
func NewTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	return newTelemetry(cfg, os.Stderr, logger)
}

func newTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	t := &Telemetry{
		metricsFile: cfg.MetricsFile,
		logger:      logger,
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		otel.SetTracerProvider(t.tracerProvider)
		t.tracer = t.tracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	case "", "none":
		t.tracer = noop.NewTracerProvider().Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	t.registry = promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(t.registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	if err := t.createInstruments(t.meterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))); err != nil {
		return nil, err
	}

	logger.Debug("Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", cfg.MetricsFile))
	return t, nil
}

func (t *Telemetry) createInstruments(meter metric.Meter) error {
	var err error
	if t.rowsIn, err = meter.Int64Counter("vcpanel_rows_in",
		metric.WithDescription("Rows entering a pipeline stage")); err != nil {
		return err
	}
	if t.rowsOut, err = meter.Int64Counter("vcpanel_rows_out",
		metric.WithDescription("Rows leaving a pipeline stage")); err != nil {
		return err
	}
	if t.stageErrors, err = meter.Int64Counter("vcpanel_stage_errors",
		metric.WithDescription("Pipeline stages that returned an error")); err != nil {
		return err
	}
	if t.stageDuration, err = meter.Float64Histogram("vcpanel_stage_duration",
		metric.WithDescription("Pipeline stage duration"),
		metric.WithUnit("s")); err != nil {
		return err
	}
	return nil
}

// StageSpan tracks one running stage.
type StageSpan struct {
	t     *Telemetry
	ctx   context.Context
	span  trace.Span
	stage string
	start time.Time
}

// StartStage opens a span for the named stage.
func (t *Telemetry) StartStage(ctx context.Context, stage string) (context.Context, *StageSpan) {
	if t == nil {
		return ctx, nil
	}
	ctx, span := t.tracer.Start(ctx, stage, trace.WithAttributes(
		attribute.String("vcpanel.stage", stage),
		attribute.String("vcpanel.run_id", GetRunID(ctx)),
	))
	return ctx, &StageSpan{t: t, ctx: ctx, span: span, stage: stage, start: time.Now()}
}

// End records row counts and duration and closes the span.
func (s *StageSpan) End(rowsIn, rowsOut int, err error) {
	if s == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", s.stage))
	s.t.rowsIn.Add(s.ctx, int64(rowsIn), attrs)
	s.t.rowsOut.Add(s.ctx, int64(rowsOut), attrs)
	s.t.stageDuration.Record(s.ctx, time.Since(s.start).Seconds(), attrs)

	s.span.SetAttributes(
		attribute.Int("vcpanel.rows_in", rowsIn),
		attribute.Int("vcpanel.rows_out", rowsOut),
	)
	if err != nil {
		s.t.stageErrors.Add(s.ctx, 1, attrs)
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

// Gatherer exposes the metrics registry.
func (t *Telemetry) Gatherer() promclient.Gatherer {
	return t.registry
}

// Shutdown flushes spans and writes the metrics textfile when configured.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error

	if t.metricsFile != "" {
		if err := os.MkdirAll(filepath.Dir(t.metricsFile), 0755); err != nil {
			errs = append(errs, fmt.Errorf("metrics directory: %w", err))
		} else if err := promclient.WriteToTextfile(t.metricsFile, t.registry); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		} else {
			t.logger.InfoContext(ctx, "Metrics written", slog.String("file", t.metricsFile))
		}
	}

	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %v", errs)
	}
	return nil
}
