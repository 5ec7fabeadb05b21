package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/adapters/watcher"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
)

func collect(w *watcher.Watcher) <-chan ports.WatchEvent {
	ch := make(chan ports.WatchEvent, 64)
	go func() {
		defer close(ch)
		for ev := range w.Events() {
			ch <- ev
		}
	}()
	return ch
}

func waitFor(t *testing.T, ch <-chan ports.WatchEvent, match func(ports.WatchEvent) bool) ports.WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event stream closed")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for file event")
			return ports.WatchEvent{}
		}
	}
}

func TestWatcher_ReportsManifestWrite(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, domain.ManifestFileName)
	require.NoError(t, os.WriteFile(manifest, []byte("fastapi\n"), domain.FilePerm))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Start(ctx, dir))
	defer func() { _ = w.Stop() }()
	events := collect(w)

	require.NoError(t, os.WriteFile(manifest, []byte("fastapi\nuvicorn\n"), domain.FilePerm))

	ev := waitFor(t, events, func(ev ports.WatchEvent) bool { return ev.Path == manifest })
	assert.Contains(t, []ports.WatchOp{ports.OpWrite, ports.OpCreate}, ev.Operation)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Start(ctx, dir))
	defer func() { _ = w.Stop() }()
	events := collect(w)

	sub := filepath.Join(dir, "requirements")
	require.NoError(t, os.Mkdir(sub, domain.DirPerm))
	waitFor(t, events, func(ev ports.WatchEvent) bool { return ev.Path == sub })

	nested := filepath.Join(sub, "base.in")
	require.Eventually(t, func() bool {
		if err := os.WriteFile(nested, []byte("httpx\n"), domain.FilePerm); err != nil {
			return false
		}
		select {
		case ev := <-events:
			return ev.Path == nested
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_SkipsStateDir(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, domain.StateDirName)
	require.NoError(t, os.Mkdir(state, domain.DirPerm))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Start(ctx, dir))
	defer func() { _ = w.Stop() }()
	events := collect(w)

	require.NoError(t, os.WriteFile(filepath.Join(state, "CURRENT"), []byte("x\n"), domain.FilePerm))
	marker := filepath.Join(dir, "marker")
	require.NoError(t, os.WriteFile(marker, nil, domain.FilePerm))

	ev := waitFor(t, events, func(ports.WatchEvent) bool { return true })
	assert.Equal(t, marker, ev.Path)
}

func TestWatcher_StopEndsEvents(t *testing.T) {
	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Start(context.Background(), t.TempDir()))
	events := collect(w)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not close")
	}
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	w := watcher.NewWatcher(nil)
	err := w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.NoError(t, w.Stop())
}
