package ports

import (
	"context"
	"io"

	"go.trai.ch/berth/internal/core/domain"
)

// Installer installs locked packages into a target directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type Installer interface {
	// Install installs exactly the locked packages into target from index, writing tool output to out.
	Install(ctx context.Context, lock *domain.Lock, target string, index domain.IndexConfig, py domain.PythonConfig, out io.Writer) error

	// Verify checks that target holds exactly the locked packages and versions.
	Verify(lock *domain.Lock, target string) ([]domain.ImageEntry, error)
}

// NativePackageManager installs native system packages into a root filesystem.
type NativePackageManager interface {
	// Install extracts the named packages into rootfs.
	// It returns domain.ErrNativeDependencyMissing if a package cannot be obtained.
	Install(ctx context.Context, names []string, rootfs string, out io.Writer) error
}
