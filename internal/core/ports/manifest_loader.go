package ports

import "go.trai.ch/berth/internal/core/domain"

// ManifestLoader defines the interface for reading dependency manifests.
//
//go:generate go run go.uber.org/mock/mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// Load parses the manifest at path. The format is chosen from the file name.
	Load(path string) (*domain.Manifest, error)
}
