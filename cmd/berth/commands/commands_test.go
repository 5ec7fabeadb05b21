package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/cmd/berth/commands"
	"go.trai.ch/berth/internal/app"
	"go.trai.ch/berth/internal/build"
)

type call struct {
	name      string
	overrides app.Overrides
	resolve   app.ResolveOptions
	clean     app.CleanOptions
	launch    bool
}

type mockApp struct {
	calls []call
	err   error
}

func (m *mockApp) Resolve(_ context.Context, o app.Overrides, opts app.ResolveOptions) error {
	m.calls = append(m.calls, call{name: "resolve", overrides: o, resolve: opts})
	return m.err
}

func (m *mockApp) Assemble(_ context.Context, o app.Overrides) error {
	m.calls = append(m.calls, call{name: "assemble", overrides: o})
	return m.err
}

func (m *mockApp) Launch(_ context.Context, o app.Overrides) error {
	m.calls = append(m.calls, call{name: "launch", overrides: o})
	return m.err
}

func (m *mockApp) Build(_ context.Context, o app.Overrides, launch bool) error {
	m.calls = append(m.calls, call{name: "build", overrides: o, launch: launch})
	return m.err
}

func (m *mockApp) Clean(_ context.Context, o app.Overrides, opts app.CleanOptions) error {
	m.calls = append(m.calls, call{name: "clean", overrides: o, clean: opts})
	return m.err
}

func execute(t *testing.T, m *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(m)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_WireFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want call
	}{
		{
			name: "resolve with defaults",
			args: []string{"resolve"},
			want: call{name: "resolve", overrides: app.Overrides{Output: "auto"}},
		},
		{
			name: "resolve watch and export",
			args: []string{"resolve", "--watch", "--export", "requirements.txt", "-m", "pyproject.toml"},
			want: call{
				name:      "resolve",
				overrides: app.Overrides{Manifest: "pyproject.toml", Output: "auto"},
				resolve:   app.ResolveOptions{Watch: true, Export: "requirements.txt"},
			},
		},
		{
			name: "assemble with native deps",
			args: []string{"assemble", "--native", "libpq5", "-n", "libxml2", "--payload", "src", "-o", "json"},
			want: call{
				name: "assemble",
				overrides: app.Overrides{
					Output:     "json",
					NativeDeps: []string{"libpq5", "libxml2"},
					PayloadDir: "src",
				},
			},
		},
		{
			name: "launch on another address",
			args: []string{"launch", "--host", "127.0.0.1", "--port", "9000", "-c", "prod.yaml"},
			want: call{
				name:      "launch",
				overrides: app.Overrides{ConfigPath: "prod.yaml", Host: "127.0.0.1", Port: 9000, Output: "auto"},
			},
		},
		{
			name: "build and launch",
			args: []string{"build", "--launch", "-l", "app.lock"},
			want: call{name: "build", overrides: app.Overrides{Lock: "app.lock", Output: "auto"}, launch: true},
		},
		{
			name: "clean everything",
			args: []string{"clean", "--all"},
			want: call{name: "clean", overrides: app.Overrides{Output: "auto"}, clean: app.CleanOptions{All: true}},
		},
		{
			name: "clean cache",
			args: []string{"clean", "--cache"},
			want: call{name: "clean", overrides: app.Overrides{Output: "auto"}, clean: app.CleanOptions{Cache: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockApp{}
			_, err := execute(t, m, tt.args...)
			require.NoError(t, err)
			require.Len(t, m.calls, 1)
			assert.Equal(t, tt.want, m.calls[0])
		})
	}
}

func TestCommands_PropagatesErrors(t *testing.T) {
	m := &mockApp{err: errors.New("simulated error")}

	_, err := execute(t, m, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated error")
}

func TestCommands_RejectsArguments(t *testing.T) {
	m := &mockApp{}

	_, err := execute(t, m, "resolve", "extra")
	require.Error(t, err)
	assert.Empty(t, m.calls)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "berth version "+build.Version)
}
