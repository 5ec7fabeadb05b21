// Package telemetry traces pipeline stages with OpenTelemetry and forwards them to a renderer.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultSizeLimit is how much stage output is buffered before whole lines are forwarded.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is how long output may sit in the buffer, partial lines included.
	DefaultTimeLimit = 50 * time.Millisecond
)

// ErrBatcherClosed is returned when writing to a closed OutputBatcher.
var ErrBatcherClosed = zerr.New("stage output is closed")

// OutputBatcher groups subprocess output (pip, apt-get, the server) into chunks
// for the renderer. A size-triggered flush forwards complete lines only, so a
// line is never split between two renderer calls unless it outlives the time
// limit. It is safe for concurrent use.
type OutputBatcher struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	total  int64
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewOutputBatcher returns a batcher delivering chunks to onFlush.
// Call Close to stop the background ticker.
func NewOutputBatcher(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *OutputBatcher {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	b := &OutputBatcher{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		stopCh:    make(chan struct{}),
		ticker:    time.NewTicker(timeLimit),
	}
	go b.run()

	return b
}

// Write buffers p. Once sizeLimit is reached every complete line is forwarded.
func (b *OutputBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBatcherClosed
	}

	n, _ := b.buffer.Write(p)
	b.total += int64(n)

	if b.buffer.Len() >= b.sizeLimit {
		b.flushLinesLocked()
		b.ticker.Reset(b.timeLimit)
	}
	return n, nil
}

// Flush forwards everything buffered, including a trailing partial line.
func (b *OutputBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.flushAllLocked()
}

// Bytes returns how many bytes were written in total.
func (b *OutputBatcher) Bytes() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Close stops the background flusher and forwards what is left.
func (b *OutputBatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	close(b.stopCh)
	b.flushAllLocked()
	return nil
}

func (b *OutputBatcher) run() {
	for {
		select {
		case <-b.ticker.C:
			b.Flush()
		case <-b.stopCh:
			b.ticker.Stop()
			return
		}
	}
}

// flushLinesLocked forwards the buffer up to its last newline. A buffer without
// any newline is forwarded whole so a single huge line cannot grow without bound.
func (b *OutputBatcher) flushLinesLocked() {
	end := bytes.LastIndexByte(b.buffer.Bytes(), '\n')
	if end < 0 {
		b.flushAllLocked()
		return
	}
	b.deliverLocked(end + 1)
}

func (b *OutputBatcher) flushAllLocked() {
	b.deliverLocked(b.buffer.Len())
}

// deliverLocked runs the callback under the lock so chunks arrive in write order.
func (b *OutputBatcher) deliverLocked(n int) {
	if n == 0 {
		return
	}

	data := make([]byte, n)
	copy(data, b.buffer.Next(n))

	if b.onFlush != nil {
		b.onFlush(data)
	}
}
