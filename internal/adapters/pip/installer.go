// Package pip installs locked Python packages with pip and verifies the result.
package pip

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/berth/internal/adapters/index"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Installer = (*Installer)(nil)

// Installer implements ports.Installer by running pip against an exported requirements file.
type Installer struct {
	executor ports.Executor
	locks    ports.LockStore
}

// NewInstaller creates a new pip Installer.
func NewInstaller(executor ports.Executor, locks ports.LockStore) *Installer {
	return &Installer{executor: executor, locks: locks}
}

// Install installs exactly the locked packages into target, downloading them
// from the index the lock was resolved against.
// Dependencies are never resolved by pip; the lock already pins the full closure.
func (i *Installer) Install(
	ctx context.Context,
	lock *domain.Lock,
	target string,
	idx domain.IndexConfig,
	py domain.PythonConfig,
	out io.Writer,
) error {
	if err := os.MkdirAll(target, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrInstallFailure, err.Error()), "target", target)
	}
	if lock.Len() == 0 {
		return nil
	}

	indexURL, err := installIndexURL(idx)
	if err != nil {
		return err
	}

	reqPath, cleanup, err := i.writeRequirements(lock)
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{
		py.Executable, "-m", "pip", "install",
		"--no-deps",
		"--no-compile",
		"--disable-pip-version-check",
		"--no-input",
		"--index-url", indexURL,
		"--target", target,
	}
	if lock.FullyHashed() {
		args = append(args, "--require-hashes")
	}
	args = append(args, "-r", reqPath)

	cmd := &domain.Command{
		Name: "pip install",
		Args: args,
		Dir:  target,
		Env:  []string{"PYTHONDONTWRITEBYTECODE=1"},
	}
	if err := i.executor.Execute(ctx, cmd, out, out); err != nil {
		installErr := zerr.With(zerr.Wrap(domain.ErrInstallFailure, "pip install failed"), "packages", lock.Len())
		return zerr.With(zerr.With(installErr, "cause", err.Error()), "target", target)
	}
	return nil
}

// installIndexURL returns the pip index URL for idx. A local metadata mirror
// holds no distributions, so it needs an explicit index.url to download from.
func installIndexURL(idx domain.IndexConfig) (string, error) {
	if idx.URL == "" {
		err := zerr.Wrap(domain.ErrInstallFailure, "lock was resolved from a local index without an installable url; set index.url")
		return "", zerr.With(err, "index_path", idx.Path)
	}
	simple, err := index.SimpleURL(idx.URL)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrInstallFailure, "invalid index url"), "url", idx.URL)
	}
	return simple, nil
}

func (i *Installer) writeRequirements(lock *domain.Lock) (path string, cleanup func(), err error) {
	tmpFile, err := os.CreateTemp("", "berth-requirements-*.txt")
	if err != nil {
		return "", nil, zerr.Wrap(domain.ErrInstallFailure, err.Error())
	}

	path = tmpFile.Name()
	cleanup = func() {
		_ = os.Remove(path)
	}

	if err := i.locks.ExportRequirements(tmpFile, lock); err != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, zerr.Wrap(domain.ErrInstallFailure, err.Error())
	}
	if err := tmpFile.Close(); err != nil {
		cleanup()
		return "", nil, zerr.Wrap(domain.ErrInstallFailure, err.Error())
	}
	return path, cleanup, nil
}

// Verify compares the packages installed in target with the lock.
// Any missing, extra or drifted package fails with domain.ErrInstallFailure.
func (i *Installer) Verify(lock *domain.Lock, target string) ([]domain.ImageEntry, error) {
	installed, err := ScanInstalled(target)
	if err != nil {
		return nil, err
	}

	pins := lock.Pins()
	var missing, extra, drift []string
	for name, want := range pins {
		got, ok := installed[name]
		switch {
		case !ok:
			missing = append(missing, name)
		case !sameVersion(want, got):
			drift = append(drift, name+" "+want+" != "+got)
		}
	}
	for name := range installed {
		if _, ok := pins[name]; !ok {
			extra = append(extra, name)
		}
	}

	if len(missing)+len(extra)+len(drift) > 0 {
		verifyErr := zerr.With(zerr.Wrap(domain.ErrInstallFailure, "installed packages do not match the lock"), "target", target)
		for _, group := range []struct {
			key   string
			names []string
		}{{"missing", missing}, {"extra", extra}, {"drift", drift}} {
			if len(group.names) == 0 {
				continue
			}
			slices.Sort(group.names)
			verifyErr = zerr.With(verifyErr, group.key, strings.Join(group.names, ", "))
		}
		return nil, verifyErr
	}

	entries := make([]domain.ImageEntry, 0, len(installed))
	for _, pkg := range lock.Packages {
		entries = append(entries, domain.ImageEntry{Name: pkg.Name, Version: pkg.Version})
	}
	return entries, nil
}

func sameVersion(a, b string) bool {
	va, errA := domain.ParseVersion(a)
	vb, errB := domain.ParseVersion(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return va.Equal(vb)
}

// ScanInstalled returns the normalized name and version of every distribution
// installed in dir, read from its *.dist-info/METADATA file.
func ScanInstalled(dir string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.dist-info", "METADATA"))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInstallFailure, err.Error()), "target", dir)
	}

	installed := make(map[string]string, len(matches))
	for _, path := range matches {
		//nolint:gosec // Path comes from a glob inside the image directory
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInstallFailure, err.Error()), "path", path)
		}
		name, version := parseMetadata(data)
		if name == "" || version == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInstallFailure, "distribution metadata lacks name or version"), "path", path)
		}
		installed[domain.NormalizeName(name)] = version
	}
	return installed, nil
}

// parseMetadata reads the Name and Version headers of a core metadata file.
// Headers end at the first blank line, where the long description begins.
func parseMetadata(data []byte) (name, version string) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			name = strings.TrimSpace(value)
		case "version":
			version = strings.TrimSpace(value)
		}
	}
	return name, version
}
