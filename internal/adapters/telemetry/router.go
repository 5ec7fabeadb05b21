package telemetry

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/berth/internal/core/ports"
)

var _ ports.Renderer = (*Router)(nil)

// Router forwards renderer events to the renderer selected for the current run.
// The tracer is built once, while each run picks the interactive or the linear view.
type Router struct {
	mu     sync.RWMutex
	target ports.Renderer
}

// NewRouter creates a Router that forwards to target until Use selects another renderer.
func NewRouter(target ports.Renderer) *Router {
	return &Router{target: target}
}

// Use makes r the destination of subsequent events.
func (r *Router) Use(target ports.Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

func (r *Router) current() ports.Renderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.target
}

// Start starts the selected renderer.
func (r *Router) Start(ctx context.Context) error {
	if t := r.current(); t != nil {
		return t.Start(ctx)
	}
	return nil
}

// Stop stops the selected renderer.
func (r *Router) Stop() error {
	if t := r.current(); t != nil {
		return t.Stop()
	}
	return nil
}

// Wait waits for the selected renderer.
func (r *Router) Wait() error {
	if t := r.current(); t != nil {
		return t.Wait()
	}
	return nil
}

// OnPlanEmit forwards the plan.
func (r *Router) OnPlanEmit(stages []string) {
	if t := r.current(); t != nil {
		t.OnPlanEmit(stages)
	}
}

// OnTaskStart forwards a start event.
func (r *Router) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	if t := r.current(); t != nil {
		t.OnTaskStart(spanID, parentID, name, startTime)
	}
}

// OnTaskLog forwards step output.
func (r *Router) OnTaskLog(spanID string, data []byte) {
	if t := r.current(); t != nil {
		t.OnTaskLog(spanID, data)
	}
}

// OnTaskComplete forwards a completion event.
func (r *Router) OnTaskComplete(spanID string, endTime time.Time, err error) {
	if t := r.current(); t != nil {
		t.OnTaskComplete(spanID, endTime, err)
	}
}
