package domain

import (
	_ "crypto/sha256" // registers the canonical digest algorithm
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Image is an assembled runtime image: installed packages, native libraries,
// the application payload and the process launch configuration.
type Image struct {
	ID                 string       `json:"id"`
	LockDigest         string       `json:"lockDigest"`
	PayloadFingerprint string       `json:"payloadFingerprint"`
	Packages           []ImageEntry `json:"packages"`
	NativeDeps         []string     `json:"nativeDeps"`
	Entrypoint         string       `json:"entrypoint"`
	Host               string       `json:"host"`
	Port               int          `json:"port"`
	WorkingDir         string       `json:"workingDir"`

	// Root is the absolute image directory. It is set when the image is loaded and never persisted.
	Root string `json:"-"`
}

// ImageEntry is an installed package recorded in the image metadata.
type ImageEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ComputeImageID derives a deterministic image identifier from its inputs.
func ComputeImageID(lockDigest, payloadFingerprint string, nativeDeps []string, entrypoint string) string {
	deps := slices.Clone(nativeDeps)
	slices.Sort(deps)
	parts := []string{
		"lock=" + lockDigest,
		"payload=" + payloadFingerprint,
		"native=" + strings.Join(deps, ","),
		"entrypoint=" + entrypoint,
	}
	return digest.FromString(strings.Join(parts, "\n")).Encoded()[:16]
}

// SitePackages returns the directory containing installed packages.
func (i *Image) SitePackages() string {
	return filepath.Join(i.Root, SitePackagesDirName)
}

// RootFS returns the directory containing native system packages.
func (i *Image) RootFS() string {
	return filepath.Join(i.Root, RootFSDirName)
}

// AppDir returns the working directory of the application payload.
func (i *Image) AppDir() string {
	return filepath.Join(i.Root, i.WorkingDir)
}

// Address returns the host:port the image is declared to serve on.
func (i *Image) Address() string {
	return joinHostPort(i.Host, i.Port)
}

// RuntimeEnv returns the environment the server process is started with.
func (i *Image) RuntimeEnv() []string {
	site := i.SitePackages()
	rootfs := i.RootFS()

	libDirs := make([]string, 0, len(nativeLibDirs()))
	for _, d := range nativeLibDirs() {
		libDirs = append(libDirs, filepath.Join(rootfs, d))
	}

	return []string{
		"PYTHONPATH=" + site,
		"PATH=" + strings.Join([]string{filepath.Join(site, "bin"), filepath.Join(rootfs, "usr", "bin")}, string(os.PathListSeparator)),
		"LD_LIBRARY_PATH=" + strings.Join(libDirs, string(os.PathListSeparator)),
		"PYTHONUNBUFFERED=1",
	}
}

func nativeLibDirs() []string {
	dirs := []string{"usr/lib", "lib", "usr/local/lib"}
	if triplet := multiarchTriplet(); triplet != "" {
		dirs = append([]string{"usr/lib/" + triplet, "lib/" + triplet}, dirs...)
	}
	return dirs
}

func multiarchTriplet() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64-linux-gnu"
	case "arm64":
		return "aarch64-linux-gnu"
	default:
		return ""
	}
}

func joinHostPort(host string, port int) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]:" + strconv.Itoa(port)
	}
	return host + ":" + strconv.Itoa(port)
}

// Staging is an image under construction. Nothing in it is visible until it is committed.
type Staging struct {
	// ImagesDir is the directory committed images are published into.
	ImagesDir string
	// Dir is the private staging directory.
	Dir string
}

// SitePackages returns the staging directory receiving installed packages.
func (s *Staging) SitePackages() string {
	return filepath.Join(s.Dir, SitePackagesDirName)
}

// RootFS returns the staging directory receiving native system packages.
func (s *Staging) RootFS() string {
	return filepath.Join(s.Dir, RootFSDirName)
}

// AppDir returns the staging directory receiving the application payload.
func (s *Staging) AppDir() string {
	return filepath.Join(s.Dir, AppDirName)
}
