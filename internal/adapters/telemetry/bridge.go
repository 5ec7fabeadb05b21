package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/berth/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge implements sdktrace.SpanProcessor to forward span lifecycles to a Renderer.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a new Bridge.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{
		renderer: renderer,
	}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var parentID string
	if parentSpan := trace.SpanFromContext(parent); parentSpan.SpanContext().IsValid() {
		parentID = parentSpan.SpanContext().SpanID().String()
	}

	b.renderer.OnTaskStart(
		sc.SpanID().String(),
		parentID,
		s.Name(),
		s.StartTime(),
	)
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	spanID := sc.SpanID().String()

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "stage failed"
		}
		err = errors.New(desc)
	} else if line := stageSummary(s.Attributes()); line != "" {
		b.renderer.OnTaskLog(spanID, []byte(line+"\n"))
	}

	b.renderer.OnTaskComplete(
		spanID,
		s.EndTime(),
		err,
	)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

// stageSummary describes what a successful stage produced, from the attributes
// the pipeline sets on its span. Spans without such attributes yield "".
func stageSummary(attrs []attribute.KeyValue) string {
	values := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		values[kv.Key] = kv.Value
	}

	if d, ok := values["berth.lock.digest"]; ok {
		return fmt.Sprintf("lock %s (%d packages)", shortDigest(d.AsString()), values["berth.lock.packages"].AsInt64())
	}
	if id, ok := values["berth.image.id"]; ok {
		return fmt.Sprintf("image %s (%d packages)", id.AsString(), values["berth.image.packages"].AsInt64())
	}
	return ""
}

// shortDigest abbreviates "sha256:<hex>" to its first 12 hex characters.
func shortDigest(d string) string {
	algo, hex, ok := strings.Cut(d, ":")
	if !ok || len(hex) <= 12 {
		return d
	}
	return algo + ":" + hex[:12]
}
