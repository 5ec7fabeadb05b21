package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/berth/internal/adapters/telemetry"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/zerr"
)

// recordingRenderer is a simple test double for ports.Renderer.
type recordingRenderer struct {
	mu       sync.Mutex
	plans    [][]string
	started  []string
	logs     []byte
	complete []error
}

func (r *recordingRenderer) Start(_ context.Context) error { return nil }
func (r *recordingRenderer) Stop() error                   { return nil }
func (r *recordingRenderer) Wait() error                   { return nil }

func (r *recordingRenderer) OnPlanEmit(stages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, stages)
}

func (r *recordingRenderer) OnTaskStart(_, _, name string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}

func (r *recordingRenderer) OnTaskLog(_ string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, data...)
}

func (r *recordingRenderer) OnTaskComplete(_ string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = append(r.complete, err)
}

func TestOTelTracer_SpanLifecycle(t *testing.T) {
	renderer := &recordingRenderer{}
	tracer := telemetry.NewOTelTracer("test", renderer)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	_, span := tracer.Start(context.Background(), "assemble")
	span.SetAttribute("packages", 3)
	n, err := span.Write([]byte("Installing collected packages\n"))
	require.NoError(t, err)
	assert.Equal(t, 30, n)
	span.End()

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	assert.Equal(t, []string{"assemble"}, renderer.started)
	assert.Equal(t, "Installing collected packages\n", string(renderer.logs))
	assert.Equal(t, []error{nil}, renderer.complete)
}

func TestOTelTracer_RecordErrorUsesMessage(t *testing.T) {
	renderer := &recordingRenderer{}
	tracer := telemetry.NewOTelTracer("test", renderer)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	_, span := tracer.Start(context.Background(), "launch")
	span.RecordError(&domain.StageError{
		Stage: domain.StageLaunch,
		State: domain.StateAssembled,
		Err:   zerr.With(zerr.Wrap(domain.ErrBindError, "address in use"), "addr", "0.0.0.0:8000"),
	})
	span.End()

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	require.Len(t, renderer.complete, 1)
	assert.EqualError(t, renderer.complete[0], "launch stage failed (halted at assembled)")
}

func TestOTelTracer_WriteAfterEnd(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test", &recordingRenderer{})
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	_, span := tracer.Start(context.Background(), "server")
	span.End()

	n, err := span.Write([]byte("late output"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	renderer := &recordingRenderer{}
	tracer := telemetry.NewOTelTracer("test", renderer, sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	ctx, span := tracer.Start(context.Background(), "build")
	tracer.EmitPlan(ctx, []string{"resolve", "assemble"})
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	assert.Equal(t, [][]string{{"resolve", "assemble"}}, renderer.plans)
}

func TestOTelTracer_NilRenderer(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test", nil)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	ctx, span := tracer.Start(context.Background(), "resolve")
	tracer.EmitPlan(ctx, []string{"resolve"})
	n, err := span.Write([]byte("log"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	span.End()
}
