package domain

import "path/filepath"

const (
	// StateDirName is the default name of the berth state directory.
	StateDirName = ".berth"

	// ImagesDirName is the name of the directory holding assembled images.
	ImagesDirName = "images"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// IndexCacheDirName is the name of the package index cache directory.
	IndexCacheDirName = "index"

	// CurrentImageFile names the file that points at the most recently committed image.
	CurrentImageFile = "CURRENT"

	// ImageMetadataFile is the name of the metadata file inside an image.
	ImageMetadataFile = "image.json"

	// SitePackagesDirName is the image directory receiving installed packages.
	SitePackagesDirName = "site-packages"

	// RootFSDirName is the image directory receiving native system packages.
	RootFSDirName = "rootfs"

	// AppDirName is the image directory receiving the application payload.
	AppDirName = "app"

	// StagingPrefix prefixes image staging directories.
	StagingPrefix = ".staging-"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "berth.yaml"

	// ManifestFileName is the default dependency manifest.
	ManifestFileName = "requirements.in"

	// LockFileName is the default lock file.
	LockFileName = "berth.lock"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// ImagesPath returns the directory holding assembled images under stateDir.
func ImagesPath(stateDir string) string {
	return filepath.Join(stateDir, ImagesDirName)
}

// IndexCachePath returns the package index cache directory under stateDir.
func IndexCachePath(stateDir string) string {
	return filepath.Join(stateDir, CacheDirName, IndexCacheDirName)
}

// CachePath returns the cache root under stateDir.
func CachePath(stateDir string) string {
	return filepath.Join(stateDir, CacheDirName)
}
