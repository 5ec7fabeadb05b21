// Package lockfile persists locks as canonical JSON.
package lockfile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/kaptinlin/jsonschema"
	"github.com/opencontainers/go-digest"
	berthfs "go.trai.ch/berth/internal/adapters/fs"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

//go:embed lock.schema.json
var lockSchema []byte

var _ ports.LockStore = (*Store)(nil)

// Store implements ports.LockStore.
type Store struct {
	schema func() (*jsonschema.Schema, error)
}

// NewStore creates a new lock Store.
func NewStore() *Store {
	return &Store{
		schema: sync.OnceValues(func() (*jsonschema.Schema, error) {
			return jsonschema.NewCompiler().Compile(lockSchema)
		}),
	}
}

// Encode returns the canonical serialization of lock: RFC 8785 JSON followed by a newline.
func Encode(lock *domain.Lock) ([]byte, error) {
	raw, err := json.Marshal(lock)
	if err != nil {
		return nil, err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, err
	}
	return append(canonical, '\n'), nil
}

// Save writes the lock atomically and returns the digest of the written bytes.
func (s *Store) Save(path string, lock *domain.Lock) (string, error) {
	data, err := Encode(lock)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrLockWriteFailed, err.Error()), "path", path)
	}
	if err := berthfs.AtomicWriteFile(path, data); err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrLockWriteFailed, err.Error()), "path", path)
	}
	return digest.FromBytes(data).String(), nil
}

// Load reads a lock, validates it against the lock schema and its invariants,
// and returns it with the digest of its bytes.
func (s *Store) Load(path string) (*domain.Lock, string, error) {
	// #nosec G304 -- lock path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		msg := "cannot read lock"
		if errors.Is(err, fs.ErrNotExist) {
			msg = "no lock file; run berth resolve first"
		}
		return nil, "", zerr.With(zerr.Wrap(domain.ErrLockReadFailed, msg), "path", path)
	}

	lock, err := s.decode(data)
	if err != nil {
		return nil, "", zerr.With(err, "path", path)
	}
	return lock, digest.FromBytes(data).String(), nil
}

func (s *Store) decode(data []byte) (*domain.Lock, error) {
	schema, err := s.schema()
	if err != nil {
		return nil, zerr.Wrap(err, "lock schema does not compile")
	}

	result := schema.ValidateJSON(data)
	if !result.IsValid() {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidLock, "schema validation failed"), "errors", fmt.Sprintf("%v", result.Errors))
	}

	var lock domain.Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, zerr.Wrap(domain.ErrInvalidLock, err.Error())
	}
	if err := checkInvariants(&lock); err != nil {
		return nil, err
	}
	return &lock, nil
}

// checkInvariants rejects locks that the schema admits but NewLock could never produce.
func checkInvariants(lock *domain.Lock) error {
	for i, pkg := range lock.Packages {
		if i > 0 && strings.Compare(lock.Packages[i-1].Name, pkg.Name) >= 0 {
			return zerr.With(zerr.Wrap(domain.ErrInvalidLock, "packages are not sorted and unique"), "package", pkg.Name)
		}
		if _, err := domain.ParseVersion(pkg.Version); err != nil {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidLock, "unparsable version"), "package", pkg.Name), "version", pkg.Version)
		}
		if !slices.IsSorted(pkg.Requires) || !slices.IsSorted(pkg.Hashes) {
			return zerr.With(zerr.Wrap(domain.ErrInvalidLock, "package fields are not sorted"), "package", pkg.Name)
		}
		for _, dep := range pkg.Requires {
			if _, ok := lock.Get(dep); !ok {
				return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidLock, "dependency is not pinned"), "package", pkg.Name), "requires", dep)
			}
		}
	}
	return nil
}

// ExportRequirements writes the lock as a pip requirements file.
// Hashes are included only when every package has them, since pip's hash checking
// is all or nothing.
func (s *Store) ExportRequirements(w io.Writer, lock *domain.Lock) error {
	withHashes := lock.FullyHashed()

	var b strings.Builder
	for _, pkg := range lock.Packages {
		b.WriteString(pkg.Name)
		b.WriteString("==")
		b.WriteString(pkg.Version)
		if withHashes {
			for _, h := range pkg.Hashes {
				b.WriteString(" \\\n    --hash=sha256:")
				b.WriteString(h)
			}
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}
