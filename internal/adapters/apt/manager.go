// Package apt installs native Debian packages into an image root filesystem
// without touching the host's package database.
package apt

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

// packageNamePattern accepts a Debian package name with optional :arch and =version suffixes.
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+(:[a-z0-9-]+)?(=[A-Za-z0-9.+:~_-]+)?$`)

var _ ports.NativePackageManager = (*Manager)(nil)

// Manager implements ports.NativePackageManager with apt-get download and dpkg-deb.
type Manager struct {
	executor ports.Executor
}

// NewManager creates a new apt Manager.
func NewManager(executor ports.Executor) *Manager {
	return &Manager{executor: executor}
}

// Install downloads every named package and extracts it into rootfs.
// Names are sorted and deduplicated so the extraction order is stable.
func (m *Manager) Install(ctx context.Context, names []string, rootfs string, out io.Writer) error {
	if err := os.MkdirAll(rootfs, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrNativeDependencyMissing, err.Error()), "rootfs", rootfs)
	}

	pkgs := slices.Clone(names)
	slices.Sort(pkgs)
	pkgs = slices.Compact(pkgs)
	if len(pkgs) == 0 {
		return nil
	}

	downloadDir, err := os.MkdirTemp("", "berth-apt-*")
	if err != nil {
		return zerr.Wrap(domain.ErrNativeDependencyMissing, err.Error())
	}
	defer func() { _ = os.RemoveAll(downloadDir) }()

	for _, pkg := range pkgs {
		if !packageNamePattern.MatchString(pkg) {
			return zerr.With(zerr.Wrap(domain.ErrNativeDependencyMissing, "invalid package name"), "package", pkg)
		}

		dir := filepath.Join(downloadDir, pkg)
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.Wrap(domain.ErrNativeDependencyMissing, err.Error())
		}

		download := &domain.Command{Name: "apt-get download", Args: []string{"apt-get", "download", pkg}, Dir: dir}
		if err := m.executor.Execute(ctx, download, out, out); err != nil {
			missing := zerr.With(zerr.Wrap(domain.ErrNativeDependencyMissing, "package could not be downloaded"), "package", pkg)
			return zerr.With(missing, "cause", err.Error())
		}

		debs, err := filepath.Glob(filepath.Join(dir, "*.deb"))
		if err != nil || len(debs) == 0 {
			return zerr.With(zerr.Wrap(domain.ErrNativeDependencyMissing, "download produced no archive"), "package", pkg)
		}
		slices.Sort(debs)

		for _, deb := range debs {
			extract := &domain.Command{Name: "dpkg-deb", Args: []string{"dpkg-deb", "-x", deb, rootfs}, Dir: dir}
			if err := m.executor.Execute(ctx, extract, out, out); err != nil {
				extractErr := zerr.With(zerr.Wrap(domain.ErrNativeDependencyMissing, "package could not be extracted"), "package", pkg)
				return zerr.With(extractErr, "cause", err.Error())
			}
		}
	}
	return nil
}
