// Package fs provides file system adapters for walking, copying and atomically writing files.
package fs

import (
	iofs "io/fs"
	"iter"
	"path"
	"path/filepath"
	"strings"
)

// alwaysSkipped directories never belong to an application payload.
var alwaysSkipped = []string{".git", ".jj", "__pycache__"}

// Entry is a file system entry found by the Walker.
type Entry struct {
	// Path is the entry path including the walk root.
	Path string
	// Rel is the slash separated path relative to the walk root.
	Rel string
	// Dir is the underlying directory entry.
	Dir iofs.DirEntry
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk yields every entry below root in lexical order, except the root itself,
// version control and bytecode cache directories, and entries matching ignores.
//
// An ignore pattern is matched against both the entry name and its relative path.
// A pattern ending in "/" only matches directories.
func (w *Walker) Walk(root string, ignores []string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		err := filepath.WalkDir(root, func(p string, d iofs.DirEntry, err error) error {
			if err != nil {
				if !yield(Entry{Path: p}, err) {
					return filepath.SkipAll
				}
				return nil
			}
			if p == root {
				return nil
			}

			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)

			if w.ignored(rel, d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !yield(Entry{Path: p, Rel: rel, Dir: d}, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(Entry{Path: root}, err)
		}
	}
}

// WalkFiles yields the paths of regular files below root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for entry, err := range w.Walk(root, ignores) {
			if err != nil || !entry.Dir.Type().IsRegular() {
				continue
			}
			if !yield(entry.Path) {
				return
			}
		}
	}
}

func (w *Walker) ignored(rel string, d iofs.DirEntry, ignores []string) bool {
	name := d.Name()

	if d.IsDir() {
		for _, skip := range alwaysSkipped {
			if name == skip {
				return true
			}
		}
	}

	for _, pattern := range ignores {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")
		if pattern == "" || (dirOnly && !d.IsDir()) {
			continue
		}
		if matched, _ := path.Match(pattern, name); matched {
			return true
		}
		if matched, _ := path.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}
