package index_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/adapters/index"
	"go.trai.ch/berth/internal/core/domain"
)

const mirror = `packages:
  Typing_Extensions:
    - version: "4.12.2"
      requires_python: ">=3.8"
  pydantic:
    - version: "2.8.2"
      requires: ["typing-extensions>=4.6.1"]
      hashes: ["aaaa"]
    - version: "2.10.0"
      requires: ["typing-extensions>=4.12.2"]
`

func writeMirror(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func TestLocal_VersionsAndRelease(t *testing.T) {
	local, err := index.NewLocal(writeMirror(t, mirror))
	require.NoError(t, err)

	versions, err := local.Versions(context.Background(), "pydantic")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "2.10.0", versions[0].String())
	assert.Equal(t, "2.8.2", versions[1].String())

	release, err := local.Release(context.Background(), "pydantic", domain.MustParseVersion("2.8.2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"typing-extensions>=4.6.1"}, release.Requires)
	assert.Equal(t, []string{"aaaa"}, release.Hashes)

	ext, err := local.Versions(context.Background(), "typing.extensions")
	require.NoError(t, err)
	assert.Len(t, ext, 1)
}

func TestLocal_NotFound(t *testing.T) {
	local, err := index.NewLocal(writeMirror(t, mirror))
	require.NoError(t, err)

	_, err = local.Versions(context.Background(), "django")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)

	_, err = local.Release(context.Background(), "pydantic", domain.MustParseVersion("1.0"))
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestNewLocal_Invalid(t *testing.T) {
	_, err := index.NewLocal(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrLocalIndexReadFailed)

	_, err = index.NewLocal(writeMirror(t, "packages: ["))
	assert.ErrorIs(t, err, domain.ErrLocalIndexReadFailed)

	_, err = index.NewLocal(writeMirror(t, "packages:\n  x:\n    - version: latest\n"))
	assert.ErrorIs(t, err, domain.ErrLocalIndexReadFailed)
}

func TestFactory_Open(t *testing.T) {
	factory := index.NewFactory()

	idx, err := factory.Open(domain.IndexConfig{Path: writeMirror(t, mirror)}, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &index.Local{}, idx)

	idx, err = factory.Open(domain.IndexConfig{URL: domain.DefaultIndexURL, Timeout: domain.DefaultIndexTimeout}, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &index.PyPI{}, idx)
}
