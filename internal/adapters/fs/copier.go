package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PayloadCopier = (*Copier)(nil)

// Copier copies an application payload and fingerprints what it copied.
type Copier struct {
	walker *Walker
}

// NewCopier creates a new Copier.
func NewCopier(walker *Walker) *Copier {
	return &Copier{walker: walker}
}

// Copy copies src into dst, preserving file modes and symlinks.
// The returned fingerprint covers every copied relative path with its kind,
// permission bits and content, so the same payload always yields the same fingerprint.
func (c *Copier) Copy(src, dst string, ignore []string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrPayloadCopyFailed, "payload directory not found"), "path", src)
	}
	if !info.IsDir() {
		return "", zerr.With(zerr.Wrap(domain.ErrPayloadCopyFailed, "payload is not a directory"), "path", src)
	}
	if err := os.MkdirAll(dst, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrPayloadCopyFailed, err.Error()), "path", dst)
	}

	hasher := xxhash.New()
	for entry, err := range c.walker.Walk(src, ignore) {
		if err != nil {
			return "", zerr.With(zerr.Wrap(domain.ErrPayloadCopyFailed, err.Error()), "path", entry.Path)
		}
		if err := c.copyEntry(entry, dst, hasher); err != nil {
			return "", zerr.With(zerr.Wrap(domain.ErrPayloadCopyFailed, err.Error()), "path", entry.Rel)
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (c *Copier) copyEntry(entry Entry, dst string, hasher *xxhash.Digest) error {
	target := filepath.Join(dst, filepath.FromSlash(entry.Rel))
	mode := entry.Dir.Type()

	switch {
	case mode.IsDir():
		writeRecord(hasher, 'd', entry.Rel)
		info, err := entry.Dir.Info()
		if err != nil {
			return err
		}
		return os.MkdirAll(target, info.Mode().Perm()|0o700)

	case mode&os.ModeSymlink != 0:
		link, err := os.Readlink(entry.Path)
		if err != nil {
			return err
		}
		writeRecord(hasher, 'l', entry.Rel)
		_, _ = hasher.WriteString(link)
		return os.Symlink(link, target)

	case mode.IsRegular():
		info, err := entry.Dir.Info()
		if err != nil {
			return err
		}
		writeRecord(hasher, 'f', entry.Rel)
		if err := binary.Write(hasher, binary.LittleEndian, uint32(info.Mode().Perm())); err != nil {
			return err
		}
		sum, err := copyFile(entry, target, info.Mode().Perm())
		if err != nil {
			return err
		}
		return binary.Write(hasher, binary.LittleEndian, sum)

	default:
		// Sockets, devices and pipes are not part of a payload.
		return nil
	}
}

func writeRecord(hasher *xxhash.Digest, kind byte, rel string) {
	_, _ = hasher.Write([]byte{0, kind})
	_, _ = hasher.WriteString(rel)
	_, _ = hasher.Write([]byte{0})
}

// copyFile copies a regular file with perm and returns the xxhash of its content.
func copyFile(entry Entry, target string, perm os.FileMode) (uint64, error) {
	in, err := os.Open(entry.Path) //nolint:gosec // Path comes from walking the payload directory
	if err != nil {
		return 0, err
	}
	defer in.Close() //nolint:errcheck // Read-only file

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm) //nolint:gosec // Target is inside the staging directory
	if err != nil {
		return 0, err
	}

	content := xxhash.New()
	if _, err := io.Copy(io.MultiWriter(out, content), in); err != nil {
		_ = out.Close()
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	return content.Sum64(), nil
}
