// Package manifest reads dependency manifests in requirements.in and pyproject.toml form.
package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/zerr"
)

// PyprojectFileName is the name of the standard Python project file.
const PyprojectFileName = "pyproject.toml"

// Loader implements ports.ManifestLoader.
type Loader struct{}

// NewLoader creates a new manifest Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the manifest at path. Files named pyproject.toml or ending in .toml
// are read as pyproject files; everything else as a requirements file.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	m := &domain.Manifest{Source: path}

	var err error
	if filepath.Base(path) == PyprojectFileName || strings.EqualFold(filepath.Ext(path), ".toml") {
		err = loadPyproject(path, m)
	} else {
		err = loadRequirements(path, m, map[string]bool{})
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func readManifestFile(path string) ([]byte, error) {
	// #nosec G304 -- manifest paths come from configuration or an include directive
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	msg := "cannot read manifest"
	if errors.Is(err, fs.ErrNotExist) {
		msg = "manifest does not exist"
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrManifestReadFailed, msg), "file", path)
}

func invalidAt(path string, line int, msg string) error {
	err := zerr.With(zerr.Wrap(domain.ErrInvalidManifest, msg), "file", path)
	if line > 0 {
		err = zerr.With(err, "line", line)
	}
	return err
}
