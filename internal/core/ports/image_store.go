package ports

import "go.trai.ch/berth/internal/core/domain"

// ImageStore manages assembled images on disk. Images become visible only once committed.
//
//go:generate go run go.uber.org/mock/mockgen -source=image_store.go -destination=mocks/mock_image_store.go -package=mocks
type ImageStore interface {
	// Begin creates a private staging area under imagesDir.
	Begin(imagesDir string) (*domain.Staging, error)

	// Commit publishes the staging area as image and marks it current.
	Commit(staging *domain.Staging, image *domain.Image) (*domain.Image, error)

	// Abort discards the staging area.
	Abort(staging *domain.Staging) error

	// Current returns the most recently committed image.
	// It returns domain.ErrImageNotFound if no image has been committed.
	Current(imagesDir string) (*domain.Image, error)

	// Get returns the committed image with the given id.
	Get(imagesDir, id string) (*domain.Image, error)
}
