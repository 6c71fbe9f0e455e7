// Package observability provides OpenTelemetry tracing for arrowfeat runs
package observability

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	tracerMu sync.RWMutex
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer("arrowfeat")
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	SamplingRate   float64
	BatchTimeout   time.Duration
	PrettyPrint    bool
	Writer         io.Writer // defaults to stdout
}

// Tracer returns the package tracer; a no-op tracer until InitTracing or SetTracer.
func Tracer() trace.Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	return tracer
}

// SetTracer replaces the package tracer.
func SetTracer(t trace.Tracer) {
	if t == nil {
		return
	}
	tracerMu.Lock()
	tracer = t
	tracerMu.Unlock()
}

// Span wraps a trace.Span and batches attributes until End.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// StartSpan starts a span on t, or on the package tracer when t is nil.
func StartSpan(ctx context.Context, t trace.Tracer, operationName string) (context.Context, *Span) {
	if t == nil {
		t = Tracer()
	}
	ctx, span := t.Start(ctx, operationName)

	return ctx, &Span{
		span:      span,
		startTime: time.Now(),
	}
}

// SetAttribute adds an attribute to the span (batched until End)
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
	case []float64:
		attr = attribute.Float64Slice(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// RecordResult marks the span as failed or ok depending on err.
func (s *Span) RecordResult(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		return
	}
	s.span.SetStatus(codes.Ok, "")
}

// End flushes batched attributes, records the duration and ends the span.
func (s *Span) End() {
	s.attributes = append(s.attributes, attribute.Int64("duration_us", time.Since(s.startTime).Microseconds()))
	s.span.SetAttributes(s.attributes...)
	s.span.End()
}

// TraceBatch runs fn inside a span describing one record batch.
func TraceBatch(ctx context.Context, t trace.Tracer, kernel string, index, rows int, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, t, kernel+".batch")
	defer span.End()

	span.SetAttribute("batch.index", index)
	span.SetAttribute("batch.rows", rows)

	err := fn(ctx)
	span.RecordResult(err)
	return err
}
