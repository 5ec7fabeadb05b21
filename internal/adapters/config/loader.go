// Package config provides the berth.yaml configuration loader.
package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mattn/go-shellwords"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only berth.yaml format version understood by the loader.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration file at path and merges it over domain.DefaultConfig.
// Relative paths in the file are resolved against the file's directory.
func (l *Loader) Load(path string) (*domain.Config, error) {
	var file Berthfile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, err
	}

	if file.Version != "" && file.Version != SupportedVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unsupported config version"), "version", file.Version)
	}

	cfg, err := l.apply(domain.DefaultConfig(), &file, filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

func (l *Loader) apply(cfg *domain.Config, file *Berthfile, baseDir string) (*domain.Config, error) {
	setString(&cfg.Host, file.Host)
	if file.Port != 0 {
		cfg.Port = file.Port
	}

	setPath(&cfg.ManifestPath, file.Manifest, baseDir)
	setPath(&cfg.LockPath, file.Lock, baseDir)
	setPath(&cfg.StateDir, file.StateDir, baseDir)
	setPath(&cfg.PayloadDir, file.Payload.Dir, baseDir)
	if file.Payload.Dir == "" && baseDir != "." {
		cfg.PayloadDir = filepath.Clean(baseDir)
	}
	cfg.PayloadIgnore = slices.Clone(file.Payload.Ignore)
	cfg.NativeDeps = canonicalizeStrings(file.Native)

	setString(&cfg.Entrypoint, file.Server.Entrypoint)
	if file.Server.Command != "" {
		args, err := shellwords.Parse(file.Server.Command)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "server command is not valid shell syntax"), "command", file.Server.Command)
		}
		cfg.ServerCommand = args
	}
	if err := setDuration(&cfg.ReadyTimeout, file.Server.ReadyTimeout, "server.readyTimeout"); err != nil {
		return nil, err
	}

	setString(&cfg.Index.URL, file.Index.URL)
	setPath(&cfg.Index.Path, file.Index.Path, baseDir)
	switch {
	case file.Index.URL != "" && file.Index.Path != "":
		l.Logger.Warn("both index.url and index.path are set; the local index at " + cfg.Index.Path +
			" is used for resolution and " + cfg.Index.URL + " for installation")
	case file.Index.Path != "":
		// A local mirror carries metadata only; installing needs an explicit url.
		cfg.Index.URL = ""
	}
	if err := setDuration(&cfg.Index.Timeout, file.Index.Timeout, "index.timeout"); err != nil {
		return nil, err
	}

	setString(&cfg.Python.Version, file.Python.Version)
	setString(&cfg.Python.Platform, file.Python.Platform)
	setString(&cfg.Python.Machine, file.Python.Machine)
	setString(&cfg.Python.Executable, file.Python.Executable)

	setPath(&cfg.MetricsPath, file.Metrics.Path, baseDir)

	return cfg, nil
}

// readAndUnmarshalYAML reads a YAML file and strictly decodes it into target.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is provided by the user on purpose
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no config file"), "path", configPath)
		}
		return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", configPath)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", configPath)
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setPath(dst *string, value, baseDir string) {
	if value == "" {
		return
	}
	if filepath.IsAbs(value) {
		*dst = filepath.Clean(value)
		return
	}
	*dst = filepath.Clean(filepath.Join(baseDir, value))
}

func setDuration(dst *time.Duration, value, field string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid duration"), field, value)
	}
	*dst = d
	return nil
}

// canonicalizeStrings sorts and deduplicates names so equal configurations compare equal.
func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
