package domain

import "go.trai.ch/zerr"

var (
	// ErrUnresolvableConstraint is returned when no set of versions satisfies every constraint at once.
	ErrUnresolvableConstraint = zerr.New("unresolvable version constraint")

	// ErrPackageNotFound is returned when a named package does not exist in the package index.
	ErrPackageNotFound = zerr.New("package not found in index")

	// ErrNetwork is returned when the package index cannot be reached or answers with a server error.
	ErrNetwork = zerr.New("package index unreachable")

	// ErrInstallFailure is returned when a locked package cannot be fetched, installed or verified.
	ErrInstallFailure = zerr.New("package installation failed")

	// ErrNativeDependencyMissing is returned when a native system package cannot be installed.
	ErrNativeDependencyMissing = zerr.New("native dependency missing")

	// ErrBindError is returned when the server cannot bind its listening address.
	ErrBindError = zerr.New("failed to bind listening address")

	// ErrApplicationImportError is returned when the application entry point cannot be located or loaded.
	ErrApplicationImportError = zerr.New("application entry point could not be imported")

	// ErrServerExited is returned when the server process exits before it becomes ready.
	ErrServerExited = zerr.New("server exited before becoming ready")

	// ErrLaunchTimeout is returned when the server does not become ready within the ready timeout.
	ErrLaunchTimeout = zerr.New("server did not become ready in time")

	// ErrInvalidTransition is returned when the pipeline is asked to skip or revisit a state.
	ErrInvalidTransition = zerr.New("invalid pipeline state transition")

	// ErrInvalidVersion is returned when a version string is not a valid release version.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrInvalidConstraint is returned when a version constraint cannot be parsed.
	ErrInvalidConstraint = zerr.New("invalid version constraint")

	// ErrInvalidMarker is returned when an environment marker cannot be parsed.
	ErrInvalidMarker = zerr.New("invalid environment marker")

	// ErrInvalidRequirement is returned when a requirement line cannot be parsed.
	ErrInvalidRequirement = zerr.New("invalid requirement")

	// ErrInvalidManifest is returned when the dependency manifest is syntactically invalid.
	ErrInvalidManifest = zerr.New("invalid dependency manifest")

	// ErrManifestReadFailed is returned when the dependency manifest cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read dependency manifest")

	// ErrManifestIncludeCycle is returned when requirement files include each other.
	ErrManifestIncludeCycle = zerr.New("requirement include cycle")

	// ErrInvalidLock is returned when a lock file does not match the lock schema or its invariants.
	ErrInvalidLock = zerr.New("invalid lock file")

	// ErrLockReadFailed is returned when the lock file cannot be read.
	ErrLockReadFailed = zerr.New("failed to read lock file")

	// ErrLockWriteFailed is returned when the lock file cannot be written.
	ErrLockWriteFailed = zerr.New("failed to write lock file")

	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = zerr.New("config file not found")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the effective configuration is invalid.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrIndexCacheCreateFailed is returned when the index cache directory cannot be created.
	ErrIndexCacheCreateFailed = zerr.New("failed to create index cache directory")

	// ErrIndexCacheWriteFailed is returned when an index cache entry cannot be written.
	ErrIndexCacheWriteFailed = zerr.New("failed to write index cache entry")

	// ErrIndexResponseInvalid is returned when the package index answers with an unparsable body.
	ErrIndexResponseInvalid = zerr.New("failed to parse package index response")

	// ErrLocalIndexReadFailed is returned when the local index mirror cannot be read or parsed.
	ErrLocalIndexReadFailed = zerr.New("failed to read local index")

	// ErrImageNotFound is returned when no assembled image is available.
	ErrImageNotFound = zerr.New("runtime image not found")

	// ErrImageStageFailed is returned when the image staging area cannot be prepared.
	ErrImageStageFailed = zerr.New("failed to prepare image staging area")

	// ErrImageCommitFailed is returned when a staged image cannot be published.
	ErrImageCommitFailed = zerr.New("failed to publish runtime image")

	// ErrImageMetadataInvalid is returned when image metadata cannot be read or decoded.
	ErrImageMetadataInvalid = zerr.New("invalid runtime image metadata")

	// ErrPayloadCopyFailed is returned when the application payload cannot be copied into the image.
	ErrPayloadCopyFailed = zerr.New("failed to copy application payload")

	// ErrCommandFailed is returned when an external command exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrEmptyCommand is returned when an external command has no executable.
	ErrEmptyCommand = zerr.New("empty command")

	// ErrMetricsWriteFailed is returned when metrics cannot be written to the textfile.
	ErrMetricsWriteFailed = zerr.New("failed to write metrics")
)
