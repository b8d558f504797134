// Package observability provides OpenTelemetry tracing for Tabula.
//
// Tracing is off until Initialize is called with Enabled set; until then
// every span is a no-op. Spans are exported through the stdout exporter to
// the configured writer.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

const instrumentationName = "github.com/ajitpratap0/tabula"

var (
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	provider *sdktrace.TracerProvider
	mu       sync.RWMutex
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// SamplingRate is the sampled fraction of traces; 0 means always sample
	SamplingRate float64
	// Writer receives exported spans; nil means stderr
	Writer io.Writer
	// PrettyPrint indents the exported JSON
	PrettyPrint bool
}

// DefaultConfig returns a disabled tracing configuration
func DefaultConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "tabula",
		ServiceVersion: "dev",
	}
}

// Initialize installs the tracer provider. Calling it again replaces the
// previous provider after shutting it down.
func Initialize(ctx context.Context, config TracingConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if provider != nil {
		_ = provider.Shutdown(ctx)
		provider = nil
	}
	if !config.Enabled {
		tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
		),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create trace resource")
	}

	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if config.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create stdout exporter")
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate <= 0 || config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	tracer = provider.Tracer(instrumentationName)
	return nil
}

// Shutdown flushes pending spans and removes the provider.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider = nil
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to shutdown tracer")
	}
	return nil
}

// GetTracer returns the current tracer
func GetTracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return tracer
}

// Span wraps a trace span and batches its attributes until End.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// NewSpan starts a span as a child of any span in ctx.
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := GetTracer().Start(ctx, operationName)
	return ctx, &Span{
		span:      span,
		startTime: time.Now(),
	}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	case []string:
		attr = attribute.StringSlice(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Fail marks the span as failed with err. A nil err marks it ok.
func (s *Span) Fail(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	var e *errors.Error
	if errors.As(err, &e) {
		s.SetAttribute("error.type", string(e.Type))
	}
}

// Duration returns the time since the span started
func (s *Span) Duration() time.Duration {
	return time.Since(s.startTime)
}

// End sets the batched attributes and ends the span
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// DialectTracer names spans after a dialect and an operation.
type DialectTracer struct {
	dialect string
}

// NewDialectTracer creates a tracer for one dialect
func NewDialectTracer(dialect string) *DialectTracer {
	return &DialectTracer{dialect: dialect}
}

// StartSpan starts a span named tabula.<dialect>.<operation>.
func (dt *DialectTracer) StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := NewSpan(ctx, fmt.Sprintf("tabula.%s.%s", dt.dialect, operation))
	span.SetAttribute("tabula.dialect", dt.dialect)
	span.SetAttribute("tabula.operation", operation)
	return ctx, span
}

// Trace runs fn inside a span and records its error, which is returned unchanged.
func (dt *DialectTracer) Trace(ctx context.Context, operation string, fn func(ctx context.Context, span *Span) error) error {
	ctx, span := dt.StartSpan(ctx, operation)
	defer span.End()

	err := fn(ctx, span)
	span.SetAttribute("tabula.duration_ms", span.Duration().Milliseconds())
	span.Fail(err)
	return err
}
