package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelevantChange(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "pyproject.toml")
	config := filepath.Join(dir, "berth.yaml")

	tests := []struct {
		path string
		want bool
	}{
		{path: manifest, want: true},
		{path: config, want: true},
		{path: filepath.Join(dir, "requirements", "base.in"), want: true},
		{path: filepath.Join(dir, "constraints.txt"), want: true},
		{path: filepath.Join(dir, "main.py"), want: false},
		{path: filepath.Join(dir, "berth.lock"), want: false},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			assert.Equal(t, tt.want, relevantChange(tt.path, manifest, config))
		})
	}
}
