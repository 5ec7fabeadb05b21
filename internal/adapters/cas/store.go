// Package cas stores assembled runtime images addressed by their content-derived id.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	berthfs "go.trai.ch/berth/internal/adapters/fs"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

var imageIDPattern = regexp.MustCompile(`^[a-f0-9]{16}$`)

var _ ports.ImageStore = (*Store)(nil)

// Store implements ports.ImageStore using one directory per image.
type Store struct{}

// NewStore creates a new image Store.
func NewStore() *Store {
	return &Store{}
}

// Begin creates a private staging directory under imagesDir.
func (s *Store) Begin(imagesDir string) (*domain.Staging, error) {
	if err := os.MkdirAll(imagesDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageStageFailed, err.Error()), "path", imagesDir)
	}

	dir, err := os.MkdirTemp(imagesDir, domain.StagingPrefix+"*")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageStageFailed, err.Error()), "path", imagesDir)
	}

	return &domain.Staging{ImagesDir: imagesDir, Dir: dir}, nil
}

// Commit writes the image metadata, renames the staging directory to images/<id>
// and points CURRENT at it. An older image with the same id is replaced.
func (s *Store) Commit(staging *domain.Staging, image *domain.Image) (*domain.Image, error) {
	if !imageIDPattern.MatchString(image.ID) {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageCommitFailed, "invalid image id"), "id", image.ID)
	}

	data, err := json.MarshalIndent(image, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(domain.ErrImageCommitFailed, err.Error())
	}
	if err := berthfs.AtomicWriteFile(filepath.Join(staging.Dir, domain.ImageMetadataFile), data); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageCommitFailed, err.Error()), "id", image.ID)
	}

	final := filepath.Join(staging.ImagesDir, image.ID)
	if err := replaceDir(staging.Dir, final); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageCommitFailed, err.Error()), "id", image.ID)
	}

	current := filepath.Join(staging.ImagesDir, domain.CurrentImageFile)
	if err := berthfs.AtomicWriteFile(current, []byte(image.ID+"\n")); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageCommitFailed, err.Error()), "id", image.ID)
	}

	committed := *image
	committed.Root, err = filepath.Abs(final)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageCommitFailed, err.Error()), "id", image.ID)
	}
	return &committed, nil
}

// replaceDir renames src to dst. A directory already at dst is moved aside first
// and removed once src is in place.
func replaceDir(src, dst string) error {
	if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
		return os.Rename(src, dst)
	}

	old, err := os.MkdirTemp(filepath.Dir(dst), ".old-*")
	if err != nil {
		return err
	}
	aside := filepath.Join(old, filepath.Base(dst))
	if err := os.Rename(dst, aside); err != nil {
		_ = os.RemoveAll(old)
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		_ = os.Rename(aside, dst)
		_ = os.RemoveAll(old)
		return err
	}
	return os.RemoveAll(old)
}

// Abort removes the staging directory. Aborting a nil staging area is a no-op.
func (s *Store) Abort(staging *domain.Staging) error {
	if staging == nil {
		return nil
	}
	if err := os.RemoveAll(staging.Dir); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrImageStageFailed, err.Error()), "path", staging.Dir)
	}
	return nil
}

// Current returns the image CURRENT points at.
func (s *Store) Current(imagesDir string) (*domain.Image, error) {
	//nolint:gosec // Path is constructed from the configured state directory
	data, err := os.ReadFile(filepath.Join(imagesDir, domain.CurrentImageFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrImageNotFound, "no image assembled; run berth assemble first"), "path", imagesDir)
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrImageMetadataInvalid, err.Error()), "path", imagesDir)
	}
	return s.Get(imagesDir, strings.TrimSpace(string(data)))
}

// Get loads the metadata of a committed image.
func (s *Store) Get(imagesDir, id string) (*domain.Image, error) {
	if !imageIDPattern.MatchString(id) {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageNotFound, "invalid image id"), "id", id)
	}

	root := filepath.Join(imagesDir, id)
	//nolint:gosec // id is validated against imageIDPattern
	data, err := os.ReadFile(filepath.Join(root, domain.ImageMetadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrImageNotFound, "image is not committed"), "id", id)
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrImageMetadataInvalid, err.Error()), "id", id)
	}

	var image domain.Image
	if err := json.Unmarshal(data, &image); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageMetadataInvalid, err.Error()), "id", id)
	}
	if image.ID != id {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageMetadataInvalid, "metadata id does not match directory"), "id", id)
	}

	image.Root, err = filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrImageMetadataInvalid, err.Error()), "id", id)
	}
	return &image, nil
}
