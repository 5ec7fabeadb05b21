package domain

import (
	"slices"
	"strings"
)

// LockSchemaVersion is the current lock file format version.
const LockSchemaVersion = 1

// Release describes one published version of a package in an index.
type Release struct {
	Name           string
	Version        Version
	Requires       []string
	RequiresPython string
	// Hashes are the hex encoded sha256 digests of the release's distribution files.
	Hashes []string
}

// LockedPackage is a single pinned package.
type LockedPackage struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Requires []string `json:"requires"`
	Hashes   []string `json:"hashes"`
}

// Lock is the fully pinned resolution of a Manifest.
// It carries no timestamps so that an unchanged resolution serializes identically.
type Lock struct {
	SchemaVersion  int             `json:"schemaVersion"`
	ManifestDigest string          `json:"manifestDigest"`
	Python         string          `json:"python"`
	Packages       []LockedPackage `json:"packages"`
}

// NewLock builds a lock from pinned packages, sorting packages and their fields.
func NewLock(manifestDigest, python string, pkgs []LockedPackage) *Lock {
	out := make([]LockedPackage, len(pkgs))
	for i, p := range pkgs {
		p.Requires = sortedUnique(p.Requires)
		p.Hashes = sortedUnique(p.Hashes)
		out[i] = p
	}
	slices.SortFunc(out, func(a, b LockedPackage) int {
		return strings.Compare(a.Name, b.Name)
	})
	return &Lock{
		SchemaVersion:  LockSchemaVersion,
		ManifestDigest: manifestDigest,
		Python:         python,
		Packages:       out,
	}
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Len returns the number of pinned packages.
func (l *Lock) Len() int {
	return len(l.Packages)
}

// Names returns the pinned package names in lock order.
func (l *Lock) Names() []string {
	names := make([]string, len(l.Packages))
	for i, p := range l.Packages {
		names[i] = p.Name
	}
	return names
}

// Get returns the pinned package with the given normalized name.
func (l *Lock) Get(name string) (LockedPackage, bool) {
	i, found := slices.BinarySearchFunc(l.Packages, name, func(p LockedPackage, n string) int {
		return strings.Compare(p.Name, n)
	})
	if !found {
		return LockedPackage{}, false
	}
	return l.Packages[i], true
}

// Pins returns the lock as a name to version map.
func (l *Lock) Pins() map[string]string {
	pins := make(map[string]string, len(l.Packages))
	for _, p := range l.Packages {
		pins[p.Name] = p.Version
	}
	return pins
}

// FullyHashed reports whether every package records at least one hash.
func (l *Lock) FullyHashed() bool {
	for _, p := range l.Packages {
		if len(p.Hashes) == 0 {
			return false
		}
	}
	return len(l.Packages) > 0
}
