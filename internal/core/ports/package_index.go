package ports

import (
	"context"

	"go.trai.ch/berth/internal/core/domain"
)

// PackageIndex is a source of published package versions and their metadata.
//
//go:generate go run go.uber.org/mock/mockgen -source=package_index.go -destination=mocks/mock_package_index.go -package=mocks
type PackageIndex interface {
	// Versions returns every published version of the package.
	// It returns domain.ErrPackageNotFound if the index has no such package
	// and domain.ErrNetwork if the index could not be reached.
	Versions(ctx context.Context, name string) ([]domain.Version, error)

	// Release returns the metadata of a single published version.
	Release(ctx context.Context, name string, version domain.Version) (*domain.Release, error)
}

// IndexFactory opens the package index selected by the configuration.
type IndexFactory interface {
	// Open returns a local index when cfg.Path is set and a remote index otherwise.
	// cacheDir receives cached index responses.
	Open(cfg domain.IndexConfig, cacheDir string) (PackageIndex, error)
}
