package shell

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEnvironment(t *testing.T) {
	sep := string(os.PathListSeparator)

	tests := []struct {
		name      string
		sysEnv    []string
		overrides []string
		expected  []string
	}{
		{
			name:     "System Only (Allowed)",
			sysEnv:   []string{"USER=test", "PATH=/bin", "HOME=/home/test"},
			expected: []string{"HOME=/home/test", "PATH=/bin", "USER=test"},
		},
		{
			name:     "System Only (Filtered)",
			sysEnv:   []string{"USER=test", "SSH_AUTH_SOCK=/tmp/ssh", "PYTHONPATH=/usr/lib/py"},
			expected: []string{"USER=test"},
		},
		{
			name:      "Image PATH is prepended",
			sysEnv:    []string{"USER=test", "PATH=/bin"},
			overrides: []string{"PATH=/image/bin", "PYTHONPATH=/image/site-packages"},
			expected:  []string{"PATH=/image/bin" + sep + "/bin", "PYTHONPATH=/image/site-packages", "USER=test"},
		},
		{
			name:      "Override replaces system value",
			sysEnv:    []string{"USER=test"},
			overrides: []string{"USER=berth", "PYTHONUNBUFFERED=1"},
			expected:  []string{"PYTHONUNBUFFERED=1", "USER=berth"},
		},
		{
			name:      "Malformed override is ignored",
			sysEnv:    []string{"USER=test"},
			overrides: []string{"NOEQUALS"},
			expected:  []string{"USER=test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveEnvironment(tt.sysEnv, tt.overrides))
		})
	}
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	tool := dir + "/tool"
	//nolint:gosec // Test requires executable file
	assert.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o700))

	got, err := lookPath("tool", []string{"PATH=/nonexistent" + string(os.PathListSeparator) + dir})
	assert.NoError(t, err)
	assert.Equal(t, tool, got)

	_, err = lookPath("tool", []string{"HOME=/root"})
	assert.Error(t, err)
}
