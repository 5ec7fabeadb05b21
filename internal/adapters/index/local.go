package index

import (
	"context"
	"os"
	"slices"

	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.PackageIndex = (*Local)(nil)

// Local implements ports.PackageIndex over a YAML mirror file:
//
//	packages:
//	  fastapi:
//	    - version: 0.115.0
//	      requires: ["starlette>=0.40.0,<0.42.0"]
//	      requires_python: ">=3.8"
//	      hashes: ["<sha256 hex>"]
type Local struct {
	releases map[string][]*domain.Release
}

type mirrorFile struct {
	Packages map[string][]mirrorRelease `yaml:"packages"`
}

type mirrorRelease struct {
	Version        string   `yaml:"version"`
	Requires       []string `yaml:"requires"`
	RequiresPython string   `yaml:"requires_python"`
	Hashes         []string `yaml:"hashes"`
}

// NewLocal reads and indexes the mirror file at path.
func NewLocal(path string) (*Local, error) {
	//nolint:gosec // Mirror path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrLocalIndexReadFailed, err.Error()), "path", path)
	}

	var file mirrorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrLocalIndexReadFailed, err.Error()), "path", path)
	}

	releases := make(map[string][]*domain.Release, len(file.Packages))
	for rawName, entries := range file.Packages {
		name := domain.NormalizeName(rawName)
		for _, entry := range entries {
			version, err := domain.ParseVersion(entry.Version)
			if err != nil {
				parseErr := zerr.With(zerr.Wrap(domain.ErrLocalIndexReadFailed, "invalid version"), "package", name)
				return nil, zerr.With(zerr.With(parseErr, "version", entry.Version), "path", path)
			}
			releases[name] = append(releases[name], &domain.Release{
				Name:           name,
				Version:        version,
				Requires:       entry.Requires,
				RequiresPython: entry.RequiresPython,
				Hashes:         entry.Hashes,
			})
		}
	}
	for _, rs := range releases {
		slices.SortFunc(rs, func(a, b *domain.Release) int {
			return b.Version.Compare(a.Version)
		})
	}

	return &Local{releases: releases}, nil
}

// Versions returns the mirrored versions of a package, highest first.
func (l *Local) Versions(_ context.Context, name string) ([]domain.Version, error) {
	name = domain.NormalizeName(name)
	rs, ok := l.releases[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "local index has no such package"), "package", name)
	}

	versions := make([]domain.Version, len(rs))
	for i, r := range rs {
		versions[i] = r.Version
	}
	return versions, nil
}

// Release returns the mirrored metadata of one version.
func (l *Local) Release(_ context.Context, name string, version domain.Version) (*domain.Release, error) {
	name = domain.NormalizeName(name)
	for _, r := range l.releases[name] {
		if r.Version.Equal(version) {
			out := *r
			return &out, nil
		}
	}
	notFound := zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "local index has no such release"), "package", name)
	return nil, zerr.With(notFound, "version", version.String())
}
