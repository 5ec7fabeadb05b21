package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/berth/internal/core/domain"
)

func TestIndexConfig(t *testing.T) {
	tests := []struct {
		name     string
		index    domain.IndexConfig
		manifest string
		wantURL  string
	}{
		{
			name:     "manifest overrides default index",
			index:    domain.IndexConfig{URL: domain.DefaultIndexURL},
			manifest: "https://mirror.example.com/simple",
			wantURL:  "https://mirror.example.com/simple",
		},
		{
			name:     "configured index wins",
			index:    domain.IndexConfig{URL: "https://corp.example.com"},
			manifest: "https://mirror.example.com/simple",
			wantURL:  "https://corp.example.com",
		},
		{
			name:     "local mirror wins",
			index:    domain.IndexConfig{URL: domain.DefaultIndexURL, Path: "index.yaml"},
			manifest: "https://mirror.example.com/simple",
			wantURL:  domain.DefaultIndexURL,
		},
		{
			name:    "no manifest index",
			index:   domain.IndexConfig{URL: domain.DefaultIndexURL},
			wantURL: domain.DefaultIndexURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultConfig()
			cfg.Index = tt.index
			got := indexConfig(cfg, &domain.Manifest{IndexURL: tt.manifest})
			assert.Equal(t, tt.wantURL, got.URL)
		})
	}
}

func TestPayloadIgnores(t *testing.T) {
	root := t.TempDir()

	cfg := domain.DefaultConfig()
	cfg.PayloadDir = root
	cfg.StateDir = filepath.Join(root, domain.StateDirName)
	cfg.PayloadIgnore = []string{"tests/"}
	assert.Equal(t, []string{"tests/", ".berth/"}, payloadIgnores(cfg))

	cfg.StateDir = filepath.Join(root, "var", "berth")
	assert.Equal(t, []string{"tests/", "var/berth/"}, payloadIgnores(cfg))

	cfg.PayloadDir = filepath.Join(root, "service")
	cfg.StateDir = filepath.Join(root, domain.StateDirName)
	assert.Equal(t, []string{"tests/"}, payloadIgnores(cfg))

	cfg.StateDir = cfg.PayloadDir
	assert.Equal(t, []string{"tests/"}, payloadIgnores(cfg))
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{}, sortedUnique(nil))
	assert.Equal(t, []string{"a", "b"}, sortedUnique([]string{"b", "a", "b"}))
}
