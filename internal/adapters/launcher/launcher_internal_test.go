package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/core/domain"
)

func TestTopLevelNames(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{line: "app = FastAPI()", want: true},
		{line: "app: FastAPI = FastAPI()", want: true},
		{line: "api, app = build()", want: true},
		{line: "def app(scope, receive, send):", want: true},
		{line: "async def app(scope, receive, send):", want: true},
		{line: "class app:", want: true},
		{line: "from service.main import app", want: true},
		{line: "from service.main import api as app", want: true},
		{line: "from service.main import (router, app)", want: true},
		{line: "import app", want: true},
		{line: "import service.asgi as app", want: true},
		{line: "application = FastAPI()", want: false},
		{line: "if app == 1:", want: false},
		{line: "from service.main import app as api", want: false},
		{line: "import app.routes", want: true},
		{line: "def application():", want: false},
		{line: "print(app)", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, topLevelNames(tt.line, "app"))
		})
	}
}

func TestDefinesName_ParenthesisedImport(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{name: "trailing comma", source: "from .api import (\n    app,\n)\n", want: true},
		{name: "alias on continuation", source: "from .api import (\n    router,\n    api as app,  # asgi\n)\n", want: true},
		{name: "closing on last name", source: "from .api import (router,\n    app)\n", want: true},
		{name: "other names", source: "from .api import (\n    router,\n    api,\n)\nx = 1\n", want: false},
		{name: "nested binding after import", source: "from .api import (\n    router,\n)\ndef make():\n    app = 1\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "main.py")
			require.NoError(t, os.WriteFile(path, []byte(tt.source), domain.FilePerm))

			got, err := definesName(path, "app")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandCommand(t *testing.T) {
	vars := map[string]string{
		"entrypoint": "main:app",
		"host":       "0.0.0.0",
		"port":       "8000",
		"app_dir":    "/images/abc/app",
	}

	args, err := expandCommand(domain.DefaultServerCommand, vars)
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", "-m", "uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000"}, args)

	args, err = expandCommand([]string{`gunicorn -k uvicorn.workers.UvicornWorker --chdir '{app_dir}' -b {host}:{port} {entrypoint}`}, vars)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gunicorn", "-k", "uvicorn.workers.UvicornWorker", "--chdir", "/images/abc/app",
		"-b", "0.0.0.0:8000", "main:app",
	}, args)

	_, err = expandCommand([]string{`uvicorn "main:app`}, vars)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = expandCommand([]string{""}, vars)
	require.ErrorIs(t, err, domain.ErrEmptyCommand)
}

func TestDialAddress(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8000", dialAddress("0.0.0.0:8000"))
	assert.Equal(t, "[::1]:8000", dialAddress("[::]:8000"))
	assert.Equal(t, "10.0.0.5:8000", dialAddress("10.0.0.5:8000"))
}

func TestTailBuffer(t *testing.T) {
	tail := &tailBuffer{limit: 8}
	_, _ = tail.Write([]byte("0123456789"))
	_, _ = tail.Write([]byte("ab"))
	assert.Equal(t, "456789ab", tail.String())
}
