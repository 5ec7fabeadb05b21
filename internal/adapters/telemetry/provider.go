package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/berth/internal/core/ports"
)

var (
	_ ports.Tracer = (*OTelTracer)(nil)
	_ ports.Span   = (*OTelSpan)(nil)
)

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
// Spans are delivered to the renderer through a Bridge span processor.
type OTelTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	renderer ports.Renderer
}

// NewOTelTracer creates a tracer with its own provider. A nil renderer records spans only.
func NewOTelTracer(name string, renderer ports.Renderer, opts ...sdktrace.TracerProviderOption) *OTelTracer {
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithSpanProcessor(NewBridge(renderer))}, opts...)
	provider := sdktrace.NewTracerProvider(opts...)
	return &OTelTracer{
		provider: provider,
		tracer:   provider.Tracer(name),
		renderer: renderer,
	}
}

// Shutdown flushes and stops the tracer provider.
func (t *OTelTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// Start creates a new span. Output written to the span is batched to the renderer.
func (t *OTelTracer) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	ctx, span := t.tracer.Start(ctx, name)

	var batcher *OutputBatcher
	if t.renderer != nil {
		spanID := span.SpanContext().SpanID().String()
		renderer := t.renderer
		batcher = NewOutputBatcher(0, 0, func(data []byte) {
			renderer.OnTaskLog(spanID, data)
		})
	}

	return ctx, &OTelSpan{span: span, batcher: batcher}
}

// EmitPlan records the planned stages on the current span and announces them to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, stages []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("stages", stages),
		))
	}

	if t.renderer != nil {
		t.renderer.OnPlanEmit(stages)
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span    trace.Span
	batcher *OutputBatcher
}

// End flushes buffered output, records its size and completes the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		_ = s.batcher.Close()
		s.span.SetAttributes(attribute.Int64("berth.output.bytes", s.batcher.Bytes()))
	}
	s.span.End()
}

// RecordError records an error for the span and marks it failed.
// The status carries the top level message only; the logger prints the full chain.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)

	msg := err.Error()
	if m, ok := err.(interface{ Message() string }); ok {
		msg = m.Message()
	}
	s.span.SetStatus(codes.Error, msg)
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write satisfies io.Writer by batching output to the renderer or adding a log event.
// Output arriving after End is dropped so long-running writers never fail.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	if s.batcher != nil {
		n, err = s.batcher.Write(p)
		if errors.Is(err, ErrBatcherClosed) {
			return len(p), nil
		}
		return n, err
	}
	if s.span.IsRecording() {
		s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	}
	return len(p), nil
}
