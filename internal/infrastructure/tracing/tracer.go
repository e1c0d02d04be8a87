// Package tracing wraps OpenTelemetry for workspace operations. Each
// operation gets a span and each of its steps a child span.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of deskflip spans.
const TracerName = "github.com/jbctechsolutions/deskflip"

// ExporterType selects where spans go.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled        bool
	ExporterType   ExporterType
	OTLPEndpoint   string // host:port of an OTLP/HTTP collector
	ServiceName    string
	ServiceVersion string
	Environment    string
	SampleRate     float64   // 0.0 to 1.0
	Output         io.Writer // stdout exporter target, os.Stdout when nil
}

// DefaultConfig returns tracing disabled.
func DefaultConfig() Config {
	return Config{
		ExporterType: ExporterNone,
		ServiceName:  "deskflip",
		Environment:  "development",
		SampleRate:   1.0,
	}
}

// Tracer starts workspace spans.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// Default returns a tracer that records nothing.
func Default() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}
}

// New builds a tracer. A disabled config or the none exporter yields the
// no-op tracer.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone || cfg.ExporterType == "" {
		return Default(), nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	// No merge with resource.Default(): its schema URL may differ from ours.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Tracer{tracer: provider.Tracer(TracerName), provider: provider}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.Output != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Output))
		}
		return stdouttrace.New(opts...)
	case ExporterOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}
}

// Enabled reports whether spans are exported.
func (t *Tracer) Enabled() bool {
	return t.provider != nil
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// OperationSpan covers one workspace operation.
type OperationSpan struct {
	span trace.Span
}

// StartOperationSpan starts the span for op moving from one profile to another.
func (t *Tracer) StartOperationSpan(ctx context.Context, op string, fromID, toID int) (context.Context, *OperationSpan) {
	ctx, span := t.tracer.Start(ctx, "workspace."+op,
		trace.WithAttributes(
			attribute.String("workspace.operation", op),
			attribute.Int("workspace.profile.from", fromID),
			attribute.Int("workspace.profile.to", toID),
		),
	)
	return ctx, &OperationSpan{span: span}
}

// Finish records the journal status and warning count and ends the span.
func (o *OperationSpan) Finish(status string, warnings int, err error) {
	o.span.SetAttributes(
		attribute.String("workspace.status", status),
		attribute.Int("workspace.warnings", warnings),
	)
	endWith(o.span, err)
}

// StepSpan covers one step of an operation.
type StepSpan struct {
	span trace.Span
}

// StartStepSpan starts a child span for a step such as capture or redirect.
func (t *Tracer) StartStepSpan(ctx context.Context, step string, bestEffort bool) (context.Context, *StepSpan) {
	ctx, span := t.tracer.Start(ctx, "step."+step,
		trace.WithAttributes(
			attribute.String("step.name", step),
			attribute.Bool("step.best_effort", bestEffort),
		),
	)
	return ctx, &StepSpan{span: span}
}

// Finish ends the step span; a nil err means success.
func (s *StepSpan) Finish(err error) {
	endWith(s.span, err)
}

func endWith(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
