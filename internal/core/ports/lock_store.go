package ports

import (
	"io"

	"go.trai.ch/berth/internal/core/domain"
)

// LockStore persists locks in their canonical serialized form.
//
//go:generate go run go.uber.org/mock/mockgen -source=lock_store.go -destination=mocks/mock_lock_store.go -package=mocks
type LockStore interface {
	// Save writes the lock atomically and returns the digest of the written bytes.
	Save(path string, lock *domain.Lock) (string, error)

	// Load reads and validates a lock, returning it with the digest of its bytes.
	Load(path string) (*domain.Lock, string, error)

	// ExportRequirements writes the lock as a pinned requirements file.
	ExportRequirements(w io.Writer, lock *domain.Lock) error
}
