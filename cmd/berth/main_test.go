package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/app"
	"go.trai.ch/berth/internal/core/domain"
)

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	tests := []struct {
		name         string
		setup        func(t *testing.T, dir string)
		args         []string
		expectedExit int
		check        func(t *testing.T, dir string)
	}{
		{
			name:         "version",
			args:         []string{"berth", "version"},
			expectedExit: 0,
		},
		{
			name: "resolve empty manifest against local index",
			setup: func(t *testing.T, dir string) {
				t.Helper()
				writeFile(t, filepath.Join(dir, "index.yaml"), "packages: {}\n")
				writeFile(t, filepath.Join(dir, domain.ConfigFileName), "index:\n  path: index.yaml\n")
				writeFile(t, filepath.Join(dir, domain.ManifestFileName), "# nothing yet\n")
			},
			args:         []string{"berth", "resolve", "-o", "plain"},
			expectedExit: 0,
			check: func(t *testing.T, dir string) {
				t.Helper()
				assert.FileExists(t, filepath.Join(dir, domain.LockFileName))
			},
		},
		{
			name: "invalid manifest",
			setup: func(t *testing.T, dir string) {
				t.Helper()
				writeFile(t, filepath.Join(dir, domain.ManifestFileName), "==1.0\n")
			},
			args:         []string{"berth", "resolve", "-o", "plain"},
			expectedExit: 1,
		},
		{
			name:         "missing explicit config",
			args:         []string{"berth", "resolve", "-c", "absent.yaml"},
			expectedExit: 1,
		},
		{
			name:         "assemble without lock",
			args:         []string{"berth", "assemble", "-o", "plain"},
			expectedExit: 1,
		},
		{
			name:         "clean empty project",
			args:         []string{"berth", "clean", "--all"},
			expectedExit: 0,
		},
		{
			name:         "unknown command",
			args:         []string{"berth", "deploy"},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")
			dir := t.TempDir()
			if tt.setup != nil {
				tt.setup(t, dir)
			}
			t.Chdir(dir)

			os.Args = tt.args
			exitCode := run(func(a *app.App) {
				a.WithOutput(io.Discard, io.Discard)
			})
			assert.Equal(t, tt.expectedExit, exitCode)

			if tt.check != nil {
				tt.check(t, dir)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}
