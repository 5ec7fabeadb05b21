package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/adapters/config"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, domain.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func TestLoader_Load_FullFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
version: "1"
host: 127.0.0.1
port: 9000
manifest: deps/requirements.in
lock: deps/berth.lock
stateDir: /var/lib/berth
payload:
  dir: src
  ignore: ["tests/", "*.md"]
native: [libpq5, libgomp1, libpq5]
server:
  entrypoint: api.app:create
  command: gunicorn -k uvicorn.workers.UvicornWorker "{entrypoint}" --bind {host}:{port}
  readyTimeout: 45s
index:
  timeout: 5s
python:
  version: "3.11"
  machine: aarch64
metrics:
  path: metrics/berth.prom
`)

	cfg, err := config.NewLoader(mockLogger).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, filepath.Join(dir, "deps", "requirements.in"), cfg.ManifestPath)
	assert.Equal(t, filepath.Join(dir, "deps", "berth.lock"), cfg.LockPath)
	assert.Equal(t, "/var/lib/berth", cfg.StateDir)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.PayloadDir)
	assert.Equal(t, []string{"tests/", "*.md"}, cfg.PayloadIgnore)
	assert.Equal(t, []string{"libgomp1", "libpq5"}, cfg.NativeDeps)
	assert.Equal(t, "api.app:create", cfg.Entrypoint)
	assert.Equal(t, []string{
		"gunicorn", "-k", "uvicorn.workers.UvicornWorker", "{entrypoint}", "--bind", "{host}:{port}",
	}, cfg.ServerCommand)
	assert.Equal(t, 45*time.Second, cfg.ReadyTimeout)
	assert.Equal(t, domain.DefaultIndexURL, cfg.Index.URL)
	assert.Equal(t, 5*time.Second, cfg.Index.Timeout)
	assert.Equal(t, "3.11", cfg.Python.Version)
	assert.Equal(t, "aarch64", cfg.Python.Machine)
	assert.Equal(t, "linux", cfg.Python.Platform)
	assert.Equal(t, filepath.Join(dir, "metrics", "berth.prom"), cfg.MetricsPath)
}

func TestLoader_Load_EmptyFileKeepsDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "\n")

	cfg, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultHost, cfg.Host)
	assert.Equal(t, domain.DefaultPort, cfg.Port)
	assert.Equal(t, domain.DefaultEntrypoint, cfg.Entrypoint)
	assert.Equal(t, domain.DefaultServerCommand, cfg.ServerCommand)
	assert.Equal(t, filepath.Clean(dir), cfg.PayloadDir)
}

func TestLoader_Load_WarnsWhenBothIndexesSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).Times(1)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
index:
  url: https://mirror.example.com
  path: index.yaml
`)

	cfg, err := config.NewLoader(mockLogger).Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.yaml"), cfg.Index.Path)
	assert.Equal(t, "https://mirror.example.com", cfg.Index.URL)
}

func TestLoader_Load_LocalIndexHasNoInstallURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
index:
  path: index.yaml
`)

	cfg, err := config.NewLoader(mockLogger).Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.yaml"), cfg.Index.Path)
	assert.Empty(t, cfg.Index.URL)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown field", "hots: 0.0.0.0\n", domain.ErrConfigParseFailed},
		{"malformed yaml", "port: [\n", domain.ErrConfigParseFailed},
		{"unsupported version", "version: \"2\"\n", domain.ErrInvalidConfig},
		{"port out of range", "port: 70000\n", domain.ErrInvalidConfig},
		{"bad entrypoint", "server:\n  entrypoint: main\n", domain.ErrInvalidConfig},
		{"bad duration", "server:\n  readyTimeout: soon\n", domain.ErrInvalidConfig},
		{"unterminated quote", "server:\n  command: python \"-m\n", domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			path := writeConfig(t, t.TempDir(), tt.content)

			_, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_Load_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(filepath.Join(t.TempDir(), domain.ConfigFileName))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}
