package domain

import (
	"net"
	"runtime"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultHost binds all interfaces.
	DefaultHost = "0.0.0.0"
	// DefaultPort is the port the server listens on.
	DefaultPort = 8000
	// DefaultEntrypoint is the ASGI application object the server imports.
	DefaultEntrypoint = "main:app"
	// DefaultIndexURL is the public Python package index.
	DefaultIndexURL = "https://pypi.org"
	// DefaultIndexTimeout bounds every request to the package index.
	DefaultIndexTimeout = 30 * time.Second
	// DefaultReadyTimeout bounds how long the launcher waits for the server to listen.
	DefaultReadyTimeout = 30 * time.Second
	// DefaultPythonVersion is the interpreter version resolution targets.
	DefaultPythonVersion = "3.12"
)

// DefaultServerCommand starts uvicorn on the configured entry point and address.
var DefaultServerCommand = []string{
	"python3", "-m", "uvicorn", "{entrypoint}", "--host", "{host}", "--port", "{port}",
}

// Config is the effective configuration passed to every pipeline stage.
type Config struct {
	Host         string
	Port         int
	ManifestPath string
	LockPath     string
	StateDir     string

	PayloadDir    string
	PayloadIgnore []string
	NativeDeps    []string

	Entrypoint    string
	ServerCommand []string
	ReadyTimeout  time.Duration

	Index  IndexConfig
	Python PythonConfig

	// MetricsPath, when set, receives a Prometheus textfile after every run.
	MetricsPath string
}

// IndexConfig selects and tunes the package index.
type IndexConfig struct {
	URL     string
	Path    string
	Timeout time.Duration
}

// PythonConfig describes the interpreter packages are resolved and installed for.
type PythonConfig struct {
	Version    string
	Platform   string
	Machine    string
	Executable string
}

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		ManifestPath:  ManifestFileName,
		LockPath:      LockFileName,
		StateDir:      StateDirName,
		PayloadDir:    ".",
		Entrypoint:    DefaultEntrypoint,
		ServerCommand: append([]string(nil), DefaultServerCommand...),
		ReadyTimeout:  DefaultReadyTimeout,
		Index: IndexConfig{
			URL:     DefaultIndexURL,
			Timeout: DefaultIndexTimeout,
		},
		Python: PythonConfig{
			Version:    DefaultPythonVersion,
			Platform:   "linux",
			Machine:    hostMachine(),
			Executable: "python3",
		},
	}
}

func hostMachine() string {
	switch runtime.GOARCH {
	case "arm64":
		return "aarch64"
	default:
		return "x86_64"
	}
}

// Validate checks the configuration for values no stage can work with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "port out of range"), "port", c.Port)
	}
	if c.Host != "localhost" && net.ParseIP(c.Host) == nil {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "host is not an IP address"), "host", c.Host)
	}
	if _, _, err := c.SplitEntrypoint(); err != nil {
		return err
	}
	if c.ManifestPath == "" || c.LockPath == "" || c.StateDir == "" {
		return zerr.Wrap(ErrInvalidConfig, "manifest, lock and state paths must be set")
	}
	if len(c.ServerCommand) == 0 {
		return zerr.Wrap(ErrInvalidConfig, "server command must not be empty")
	}
	if c.ReadyTimeout <= 0 || c.Index.Timeout <= 0 {
		return zerr.Wrap(ErrInvalidConfig, "timeouts must be positive")
	}
	if _, err := ParseVersion(c.Python.Version); err != nil {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "invalid python version"), "python", c.Python.Version)
	}
	return nil
}

// SplitEntrypoint splits "module:attribute" into its parts.
func (c *Config) SplitEntrypoint() (module, attr string, err error) {
	module, attr, ok := strings.Cut(c.Entrypoint, ":")
	if !ok || module == "" || attr == "" {
		return "", "", zerr.With(zerr.Wrap(ErrInvalidConfig, "entrypoint must be module:attribute"), "entrypoint", c.Entrypoint)
	}
	return module, attr, nil
}

// Address returns the host:port the server binds.
func (c *Config) Address() string {
	return joinHostPort(c.Host, c.Port)
}

// MarkerEnv returns the environment used to evaluate dependency markers.
func (c *Config) MarkerEnv() MarkerEnv {
	full := c.Python.Version
	if strings.Count(full, ".") == 1 {
		full += ".0"
	}
	short := full
	if parts := strings.SplitN(full, ".", 3); len(parts) >= 2 {
		short = parts[0] + "." + parts[1]
	}

	system := "Linux"
	osName := "posix"
	switch c.Python.Platform {
	case "darwin":
		system = "Darwin"
	case "win32":
		system = "Windows"
		osName = "nt"
	}

	return MarkerEnv{
		PythonVersion:                short,
		PythonFullVersion:            full,
		SysPlatform:                  c.Python.Platform,
		PlatformSystem:               system,
		OSName:                       osName,
		PlatformMachine:              c.Python.Machine,
		ImplementationName:           "cpython",
		PlatformPythonImplementation: "CPython",
	}
}
