package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation, so the same event stream
// drives either colored terminal output or plain CI logs.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called with the stages a run will execute, in order.
	OnPlanEmit(stages []string)

	// OnTaskStart is called when a stage or step begins.
	// parentID is empty for top level stages.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a step emits output. data may contain partial lines.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a stage or step finishes. err is nil on success.
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
