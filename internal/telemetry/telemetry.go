package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracerName = "github.com/unkn0wn-root/tinylisp/internal/telemetry"

	modeKey      = attribute.Key("tinylisp.run.mode")
	sourceLenKey = attribute.Key("tinylisp.run.source_bytes")
	phaseKey     = attribute.Key("tinylisp.phase")
	resultKey    = attribute.Key("tinylisp.run.result")
	errKindKey   = attribute.Key("tinylisp.run.error_kind")
	stepsKey     = attribute.Key("tinylisp.run.steps")
)

type Instrumenter interface {
	Start(ctx context.Context, info RunStart) (context.Context, RunSpan)
	Shutdown(ctx context.Context) error
}

type RunStart struct {
	Path   string
	Mode   string
	Source string
}

type RunResult struct {
	Err       error
	ErrorKind string
	Value     string
	Steps     int
}

// RunSpan covers one program or snippet run. Phase wraps fn in a child
// span named after the phase.
type RunSpan interface {
	Phase(name string, fn func() error) error
	End(result RunResult)
}

type providerOptions struct {
	exporter       sdktrace.SpanExporter
	spanProcessors []sdktrace.SpanProcessor
}

type Option func(*providerOptions)

func WithSpanProcessor(proc sdktrace.SpanProcessor) Option {
	return func(opts *providerOptions) {
		if proc != nil {
			opts.spanProcessors = append(opts.spanProcessors, proc)
		}
	}
}

func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(opts *providerOptions) {
		if exp != nil {
			opts.exporter = exp
		}
	}
}

type manager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	shutdown sync.Once
}

func New(cfg Config, opts ...Option) (Instrumenter, error) {
	builder := providerOptions{}
	for _, opt := range opts {
		opt(&builder)
	}

	if !cfg.Enabled() && builder.exporter == nil && len(builder.spanProcessors) == 0 {
		return Noop(), nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(buildResourceAttributes(cfg)...),
	)
	if err != nil {
		return nil, err
	}

	exporter := builder.exporter
	if exporter == nil && cfg.Enabled() {
		exporter, err = newExporter(cfg)
		if err != nil {
			return nil, err
		}
	}

	var tpOpts []sdktrace.TracerProviderOption
	tpOpts = append(tpOpts, sdktrace.WithResource(res))
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, proc := range builder.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(proc))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &manager{tracer: tp.Tracer(tracerName), provider: tp}, nil
}

func (m *manager) Start(ctx context.Context, info RunStart) (context.Context, RunSpan) {
	ctx, span := m.tracer.Start(
		ctx,
		spanNameFor(info),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(buildSpanAttributes(info)...),
	)
	return ctx, &runSpan{ctx: ctx, tracer: m.tracer, span: span}
}

func (m *manager) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	var shutdownErr error
	m.shutdown.Do(func() {
		shutdownErr = m.provider.Shutdown(ctx)
	})
	return shutdownErr
}

type runSpan struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
}

func (rs *runSpan) Phase(name string, fn func() error) error {
	if rs == nil || rs.span == nil {
		return fn()
	}
	_, span := rs.tracer.Start(
		rs.ctx,
		"tinylisp."+name,
		trace.WithAttributes(phaseKey.String(name)),
	)
	err := fn()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}

func (rs *runSpan) End(result RunResult) {
	if rs == nil || rs.span == nil {
		return
	}

	if result.Steps > 0 {
		rs.span.SetAttributes(stepsKey.Int(result.Steps))
	}
	if result.Err != nil {
		rs.span.RecordError(result.Err)
		if result.ErrorKind != "" {
			rs.span.SetAttributes(errKindKey.String(result.ErrorKind))
		}
		rs.span.SetStatus(codes.Error, result.Err.Error())
	} else {
		rs.span.SetAttributes(resultKey.String(result.Value))
		rs.span.SetStatus(codes.Ok, "OK")
	}
	rs.span.End()
}

func Noop() Instrumenter {
	return noopInstrumenter{}
}

type noopInstrumenter struct{}

type noopSpan struct{}

func (noopInstrumenter) Start(ctx context.Context, _ RunStart) (context.Context, RunSpan) {
	return ctx, noopSpan{}
}

func (noopInstrumenter) Shutdown(context.Context) error { return nil }

func (noopSpan) Phase(_ string, fn func() error) error { return fn() }

func (noopSpan) End(RunResult) {}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("telemetry endpoint is required")
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	client := otlptracegrpc.NewClient(clientOpts...)
	return otlptrace.New(ctx, client)
}

func buildResourceAttributes(cfg Config) []attribute.KeyValue {
	name := cfg.ServiceName
	if strings.TrimSpace(name) == "" {
		name = DefaultServiceName
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
	}
	if strings.TrimSpace(cfg.Version) != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.Version))
	}
	return attrs
}

func buildSpanAttributes(info RunStart) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		sourceLenKey.Int(len(info.Source)),
	}
	if mode := strings.TrimSpace(info.Mode); mode != "" {
		attrs = append(attrs, modeKey.String(mode))
	}
	if path := strings.TrimSpace(info.Path); path != "" {
		attrs = append(attrs, semconv.CodeFilepath(path))
	}
	return attrs
}

func spanNameFor(info RunStart) string {
	if mode := strings.TrimSpace(info.Mode); mode != "" {
		return "tinylisp." + mode
	}
	return "tinylisp.run"
}
