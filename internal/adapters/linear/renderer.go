// Package linear provides a synchronous, line-buffered renderer for pipeline progress.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/berth/internal/ui/output"
	"go.trai.ch/berth/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer with linear, chronological output.
// Lifecycle lines go to stderr; step output goes to stdout prefixed with the step name.
type Renderer struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output
	quiet  bool

	tasks   map[string]*taskState // spanID -> task state
	buffers map[string]*bytes.Buffer
}

type taskState struct {
	// name is the span name qualified by its parent, e.g. "assemble/install".
	name      string
	startTime time.Time
}

// NewRenderer creates a new Renderer. Nil writers default to os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	r := &Renderer{
		tasks:   make(map[string]*taskState),
		buffers: make(map[string]*bytes.Buffer),
	}
	r.SetOutput(stdout, stderr, output.ColorProfile)
	return r
}

// SetOutput redirects the renderer and selects its color profile.
func (r *Renderer) SetOutput(stdout, stderr io.Writer, profile func() termenv.Profile) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stdout = stdout
	r.stderr = stderr
	r.output = output.NewWithProfile(stderr, profile)
}

// SetQuiet suppresses lifecycle lines. Step output is still printed.
func (r *Renderer) SetQuiet(quiet bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quiet = quiet
}

// Start is a no-op for the linear renderer.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}

	return nil
}

// Wait is a no-op for the linear renderer.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the stages the run will execute.
func (r *Renderer) OnPlanEmit(stages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quiet || len(stages) == 0 {
		return
	}
	plan := strings.Join(stages, " "+style.Arrow+" ")
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", r.output.String("Plan:").Bold().String(), plan)
}

// OnTaskStart prints a start message. Steps inside a stage are labelled stage/step.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parent, ok := r.tasks[parentID]; ok {
		name = parent.name + "/" + name
	}
	r.tasks[spanID] = &taskState{
		name:      name,
		startTime: startTime,
	}
	r.buffers[spanID] = new(bytes.Buffer)

	if r.quiet {
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.prefixLocked(name))
}

// OnTaskLog buffers log data and prints complete lines with the step prefix.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			if len(line) > 0 {
				newBuf := new(bytes.Buffer)
				newBuf.Write(line)
				r.buffers[spanID] = newBuf
			}
			break
		}

		r.printLineLocked(task.name, line)
	}
}

// OnTaskComplete flushes the remaining buffer and prints the outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)

	delete(r.tasks, spanID)
	delete(r.buffers, spanID)

	if r.quiet {
		return
	}

	duration := endTime.Sub(task.startTime).Round(time.Millisecond)
	prefix := r.prefixLocked(task.name)

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(r.output.Color(string(style.Red))).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
		return
	}
	symbol := r.output.String(style.Check).Foreground(r.output.Color(string(style.Green))).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
}

// flushBufferLocked prints any partial line left for a task.
// Must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(task.name, buf.Bytes())
		buf.Reset()
	}
}

func (r *Renderer) prefixLocked(name string) string {
	return r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
}

// printLineLocked prints a line with the task name prefix. Progress bars redraw
// with carriage returns; only the last frame of such a line is printed.
// Must be called with r.mu held.
func (r *Renderer) printLineLocked(taskName string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if i := bytes.LastIndexByte(line, '\r'); i >= 0 {
		line = line[i+1:]
	}

	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", taskName, string(line))
}
