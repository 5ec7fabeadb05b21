package tui_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/adapters/tui"
	"go.trai.ch/berth/internal/ui/output"
)

func headless(ctx context.Context) []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	}
}

func TestRenderer_DeliversEventsToModel(t *testing.T) {
	model := tui.NewModel(io.Discard, output.PlainProfile)
	renderer := tui.NewRenderer(model, headless(context.Background())...)
	now := time.Now()

	require.NoError(t, renderer.Start(context.Background()))
	renderer.OnPlanEmit([]string{"resolve", "assemble"})
	renderer.OnTaskStart("r", "", "resolve", now)
	renderer.OnTaskLog("r", []byte("fetched 3 packages\n"))
	renderer.OnTaskComplete("r", now.Add(time.Second), nil)
	require.NoError(t, renderer.Stop())
	require.NoError(t, renderer.Wait())

	require.Len(t, model.Steps, 2)
	assert.Equal(t, tui.StatusDone, model.Steps[0].Status)
	assert.Equal(t, tui.StatusPending, model.Steps[1].Status)
	assert.Positive(t, model.Steps[0].Term.UsedHeight())
}

func TestRenderer_CancelledContextIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	renderer := tui.NewRenderer(tui.NewModel(io.Discard, output.PlainProfile), headless(ctx)...)

	require.NoError(t, renderer.Start(ctx))
	cancel()
	require.NoError(t, renderer.Wait())

	// Events after exit are dropped rather than blocking.
	renderer.OnTaskLog("r", []byte("late\n"))
	require.NoError(t, renderer.Stop())
}
