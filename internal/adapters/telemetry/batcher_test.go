package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/adapters/telemetry"
)

type chunks struct {
	mu   sync.Mutex
	got  []string
	seen chan struct{}
}

func newChunks() *chunks {
	return &chunks{seen: make(chan struct{}, 16)}
}

func (c *chunks) add(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, string(data))
	select {
	case c.seen <- struct{}{}:
	default:
	}
}

func (c *chunks) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestOutputBatcher_SizeFlushKeepsPartialLine(t *testing.T) {
	c := newChunks()
	// A large time limit ensures only the size limit triggers a flush.
	b := telemetry.NewOutputBatcher(8, time.Hour, c.add)
	defer func() { _ = b.Close() }()

	_, err := b.Write([]byte("Coll"))
	require.NoError(t, err)
	assert.Empty(t, c.all())

	_, err = b.Write([]byte("ecting\nfast"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Collecting\n"}, c.all())

	require.NoError(t, b.Close())
	assert.Equal(t, []string{"Collecting\n", "fast"}, c.all())
}

func TestOutputBatcher_SizeFlushWithoutNewline(t *testing.T) {
	c := newChunks()
	b := telemetry.NewOutputBatcher(4, time.Hour, c.add)
	defer func() { _ = b.Close() }()

	_, err := b.Write([]byte("########"))
	require.NoError(t, err)
	assert.Equal(t, []string{"########"}, c.all())
}

func TestOutputBatcher_TimeFlushIncludesPartialLine(t *testing.T) {
	c := newChunks()
	b := telemetry.NewOutputBatcher(100, 20*time.Millisecond, c.add)
	defer func() { _ = b.Close() }()

	_, err := b.Write([]byte("Installing"))
	require.NoError(t, err)

	select {
	case <-c.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for flush")
	}
	assert.Equal(t, []string{"Installing"}, c.all())
}

func TestOutputBatcher_CloseFlushesAndRejects(t *testing.T) {
	c := newChunks()
	b := telemetry.NewOutputBatcher(100, time.Hour, c.add)

	_, err := b.Write([]byte("tail"))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	assert.Equal(t, []string{"tail"}, c.all())
	assert.Equal(t, int64(4), b.Bytes())

	_, err = b.Write([]byte("late"))
	require.ErrorIs(t, err, telemetry.ErrBatcherClosed)
	require.NoError(t, b.Close())
	assert.Equal(t, int64(4), b.Bytes())
}
