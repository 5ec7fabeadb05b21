package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/berth/internal/adapters/telemetry"
	"go.trai.ch/berth/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestBridge_OnStart(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockRenderer := mocks.NewMockRenderer(ctrl)
	bridge := telemetry.NewBridge(mockRenderer)

	tp := sdktrace.NewTracerProvider()
	tracer := tp.Tracer("test")
	rootCtx, root := tracer.Start(context.Background(), "build")
	defer root.End()

	mockRenderer.EXPECT().
		OnTaskStart(gomock.Any(), root.SpanContext().SpanID().String(), "resolve", gomock.Any()).
		Times(1)

	_, span := tracer.Start(rootCtx, "resolve")
	defer span.End()

	if rwSpan, ok := span.(sdktrace.ReadWriteSpan); ok {
		bridge.OnStart(rootCtx, rwSpan)
	}
}

func TestBridge_OnStartWithNilRenderer(_ *testing.T) {
	bridge := telemetry.NewBridge(nil)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	if rwSpan, ok := span.(sdktrace.ReadWriteSpan); ok {
		bridge.OnStart(ctx, rwSpan)
	}
}

func TestBridge_OnEnd(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockRenderer := mocks.NewMockRenderer(ctrl)
	bridge := telemetry.NewBridge(mockRenderer)

	mockRenderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), nil).Times(1)

	tp := sdktrace.NewTracerProvider()
	_, span := tp.Tracer("test").Start(context.Background(), "test-span")
	span.End()

	if roSpan, ok := span.(sdktrace.ReadOnlySpan); ok {
		bridge.OnEnd(roSpan)
	}
}

func TestBridge_OnEndWithError(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockRenderer := mocks.NewMockRenderer(ctrl)
	bridge := telemetry.NewBridge(mockRenderer)

	var got error
	mockRenderer.EXPECT().
		OnTaskComplete(gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ string, _ time.Time, err error) { got = err }).
		Times(1)

	tp := sdktrace.NewTracerProvider()
	_, span := tp.Tracer("test").Start(context.Background(), "test-span")
	span.SetStatus(codes.Error, "resolve stage failed (halted at unresolved)")
	span.End()

	if roSpan, ok := span.(sdktrace.ReadOnlySpan); ok {
		bridge.OnEnd(roSpan)
	}
	assert.EqualError(t, got, "resolve stage failed (halted at unresolved)")
}

func TestBridge_OnEndSummarizesStage(t *testing.T) {
	tests := []struct {
		name  string
		attrs []attribute.KeyValue
		want  string
	}{
		{
			name: "lock",
			attrs: []attribute.KeyValue{
				attribute.String("berth.lock.digest", "sha256:0123456789abcdef0123"),
				attribute.Int("berth.lock.packages", 4),
			},
			want: "lock sha256:0123456789ab (4 packages)\n",
		},
		{
			name: "image",
			attrs: []attribute.KeyValue{
				attribute.String("berth.image.id", "9f86d081884c7d65"),
				attribute.Int("berth.image.packages", 2),
			},
			want: "image 9f86d081884c7d65 (2 packages)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockRenderer := mocks.NewMockRenderer(ctrl)
			bridge := telemetry.NewBridge(mockRenderer)

			tp := sdktrace.NewTracerProvider()
			_, span := tp.Tracer("test").Start(context.Background(), tt.name)
			span.SetAttributes(tt.attrs...)
			span.End()

			spanID := span.SpanContext().SpanID().String()
			gomock.InOrder(
				mockRenderer.EXPECT().OnTaskLog(spanID, []byte(tt.want)),
				mockRenderer.EXPECT().OnTaskComplete(spanID, gomock.Any(), nil),
			)

			if roSpan, ok := span.(sdktrace.ReadOnlySpan); ok {
				bridge.OnEnd(roSpan)
			}
		})
	}
}
