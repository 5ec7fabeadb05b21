package cas_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.trai.ch/berth/internal/adapters/cas"
	"go.trai.ch/berth/internal/core/domain"
)

func newImage(id string) *domain.Image {
	return &domain.Image{
		ID:                 id,
		LockDigest:         "sha256:" + strings.Repeat("0", 64),
		PayloadFingerprint: "00000000deadbeef",
		Packages:           []domain.ImageEntry{{Name: "uvicorn", Version: "0.30.1"}},
		NativeDeps:         []string{},
		Entrypoint:         "main:app",
		Host:               "0.0.0.0",
		Port:               8000,
		WorkingDir:         domain.AppDirName,
	}
}

func stage(t *testing.T, store *cas.Store, imagesDir, content string) *domain.Staging {
	t.Helper()
	staging, err := store.Begin(imagesDir)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := os.MkdirAll(staging.AppDir(), domain.DirPerm); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staging.AppDir(), "main.py"), []byte(content), domain.FilePerm); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return staging
}

func TestStore_CommitAndCurrent(t *testing.T) {
	imagesDir := filepath.Join(t.TempDir(), domain.ImagesDirName)
	store := cas.NewStore()

	staging := stage(t, store, imagesDir, "app = 1\n")
	if !strings.HasPrefix(filepath.Base(staging.Dir), domain.StagingPrefix) {
		t.Errorf("staging dir %q lacks prefix %q", staging.Dir, domain.StagingPrefix)
	}

	committed, err := store.Commit(staging, newImage("0123456789abcdef"))
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if committed.Root != filepath.Join(imagesDir, "0123456789abcdef") {
		t.Errorf("unexpected root %q", committed.Root)
	}
	if _, err := os.Stat(staging.Dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging dir still exists after commit")
	}

	current, err := store.Current(imagesDir)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current.ID != "0123456789abcdef" || current.Port != 8000 {
		t.Errorf("unexpected current image %+v", current)
	}
	if len(current.Packages) != 1 || current.Packages[0].Name != "uvicorn" {
		t.Errorf("unexpected packages %+v", current.Packages)
	}

	data, err := os.ReadFile(filepath.Join(current.AppDir(), "main.py"))
	if err != nil {
		t.Fatalf("payload missing from committed image: %v", err)
	}
	if string(data) != "app = 1\n" {
		t.Errorf("unexpected payload %q", data)
	}
}

func TestStore_CommitReplacesSameID(t *testing.T) {
	imagesDir := filepath.Join(t.TempDir(), domain.ImagesDirName)
	store := cas.NewStore()

	if _, err := store.Commit(stage(t, store, imagesDir, "first\n"), newImage("00000000000000aa")); err != nil {
		t.Fatalf("first Commit failed: %v", err)
	}
	if _, err := store.Commit(stage(t, store, imagesDir, "second\n"), newImage("00000000000000aa")); err != nil {
		t.Fatalf("second Commit failed: %v", err)
	}

	image, err := store.Get(imagesDir, "00000000000000aa")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(image.AppDir(), "main.py"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second\n" {
		t.Errorf("expected replaced payload, got %q", data)
	}

	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "00000000000000aa,CURRENT" {
		t.Errorf("unexpected images dir contents %v", names)
	}
}

func TestStore_Abort(t *testing.T) {
	imagesDir := filepath.Join(t.TempDir(), domain.ImagesDirName)
	store := cas.NewStore()

	staging := stage(t, store, imagesDir, "app = 1\n")
	if err := store.Abort(staging); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if _, err := os.Stat(staging.Dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging dir still exists after abort")
	}
	if _, err := store.Current(imagesDir); !errors.Is(err, domain.ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound after abort, got %v", err)
	}
	if err := store.Abort(nil); err != nil {
		t.Errorf("Abort(nil) = %v, want nil", err)
	}
}

func TestStore_Get_Errors(t *testing.T) {
	imagesDir := t.TempDir()
	store := cas.NewStore()

	if _, err := store.Get(imagesDir, "../../etc"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound for invalid id, got %v", err)
	}
	if _, err := store.Get(imagesDir, "00000000000000ff"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound for missing image, got %v", err)
	}

	corrupt := filepath.Join(imagesDir, "00000000000000ee")
	if err := os.MkdirAll(corrupt, domain.DirPerm); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(corrupt, domain.ImageMetadataFile), []byte("{"), domain.FilePerm); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := store.Get(imagesDir, "00000000000000ee"); !errors.Is(err, domain.ErrImageMetadataInvalid) {
		t.Errorf("expected ErrImageMetadataInvalid, got %v", err)
	}
}

func TestStore_Commit_InvalidID(t *testing.T) {
	imagesDir := t.TempDir()
	store := cas.NewStore()

	staging := stage(t, store, imagesDir, "x\n")
	if _, err := store.Commit(staging, newImage("not-an-id")); !errors.Is(err, domain.ErrImageCommitFailed) {
		t.Errorf("expected ErrImageCommitFailed, got %v", err)
	}
}
