// Package index implements the PackageIndex port against the PyPI JSON API and
// against a local YAML mirror.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/zalando/go-keyring"
	berthfs "go.trai.ch/berth/internal/adapters/fs"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	// KeyringService is the OS keyring service holding index credentials, keyed by host.
	KeyringService = "berth"

	tokenUser       = "__token__"
	maxResponseSize = 64 << 20
)

var _ ports.PackageIndex = (*PyPI)(nil)

// PyPI implements ports.PackageIndex using the PyPI JSON API with an on-disk
// cache of release metadata.
type PyPI struct {
	base       *url.URL
	cacheDir   string
	httpClient *http.Client
	credential func() (string, bool)

	group    singleflight.Group
	mu       sync.Mutex
	versions map[string][]domain.Version
	// published maps name@normalized to the version string as the index spells it.
	published map[string]string
}

// NewPyPI creates a PyPI index client rooted at baseURL.
// Release metadata is cached under cacheDir.
func NewPyPI(baseURL, cacheDir string, timeout time.Duration) (*PyPI, error) {
	return newPyPIWithClient(baseURL, cacheDir, &http.Client{Timeout: timeout})
}

func newPyPIWithClient(baseURL, cacheDir string, client *http.Client) (*PyPI, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(cacheDir)
	if err := os.MkdirAll(cleanPath, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrIndexCacheCreateFailed, err.Error()), "path", cleanPath)
	}

	host := base.Hostname()
	return &PyPI{
		base:       base,
		cacheDir:   cleanPath,
		httpClient: client,
		credential: sync.OnceValues(func() (string, bool) {
			return lookupCredential(host)
		}),
		versions:  make(map[string][]domain.Version),
		published: make(map[string]string),
	}, nil
}

// parseBaseURL accepts both the index root and its /simple endpoint.
func parseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "index url must be absolute"), "url", raw)
	}
	base.Path = strings.TrimSuffix(base.Path, "/simple")
	return base, nil
}

// lookupCredential reads the index token stored in the OS keyring for host.
func lookupCredential(host string) (string, bool) {
	secret, err := keyring.Get(KeyringService, host)
	if err != nil || secret == "" {
		return "", false
	}
	return secret, true
}

// SimpleURL returns the simple repository endpoint of the index at raw, as pip
// expects it in --index-url. A token stored in the keyring for the index host
// is embedded as basic auth unless raw already carries credentials.
func SimpleURL(raw string) (string, error) {
	base, err := parseBaseURL(raw)
	if err != nil {
		return "", err
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/simple/"
	if base.User == nil {
		if secret, ok := lookupCredential(base.Hostname()); ok {
			base.User = url.UserPassword(tokenUser, secret)
		}
	}
	return base.String(), nil
}

type projectResponse struct {
	Releases map[string][]distribution `json:"releases"`
}

type releaseResponse struct {
	Info struct {
		Name           string   `json:"name"`
		Version        string   `json:"version"`
		RequiresDist   []string `json:"requires_dist"`
		RequiresPython string   `json:"requires_python"`
	} `json:"info"`
	URLs []distribution `json:"urls"`
}

type distribution struct {
	Filename string            `json:"filename"`
	Digests  map[string]string `json:"digests"`
	Yanked   bool              `json:"yanked"`
}

// releaseCacheEntry is the on-disk form of a release. Published releases never change.
type releaseCacheEntry struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Requires       []string `json:"requires"`
	RequiresPython string   `json:"requiresPython"`
	Hashes         []string `json:"hashes"`
}

// Versions returns the installable versions of a package.
// Versions whose files are all yanked, or that have no files at all, are skipped.
func (p *PyPI) Versions(ctx context.Context, name string) ([]domain.Version, error) {
	name = domain.NormalizeName(name)

	p.mu.Lock()
	cached, ok := p.versions[name]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := p.group.Do(name, func() (any, error) {
		var resp projectResponse
		if err := p.getJSON(ctx, name, p.endpoint(name), &resp); err != nil {
			return nil, err
		}

		versions := make([]domain.Version, 0, len(resp.Releases))
		published := make(map[string]string, len(resp.Releases))
		for raw, files := range resp.Releases {
			if !installable(files) {
				continue
			}
			version, err := domain.ParseVersion(raw)
			if err != nil {
				continue
			}
			versions = append(versions, version)
			published[name+"@"+version.String()] = raw
		}
		domain.SortVersionsDesc(versions)

		p.mu.Lock()
		p.versions[name] = versions
		for k, raw := range published {
			p.published[k] = raw
		}
		p.mu.Unlock()
		return versions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Version), nil
}

func installable(files []distribution) bool {
	for _, f := range files {
		if !f.Yanked {
			return true
		}
	}
	return false
}

// Release returns the dependency metadata and file hashes of one version.
func (p *PyPI) Release(ctx context.Context, name string, version domain.Version) (*domain.Release, error) {
	name = domain.NormalizeName(name)
	cachePath := p.cachePath(name, version)

	if entry, err := loadRelease(cachePath); err == nil {
		return entry.toRelease(version), nil
	}

	key := name + "@" + version.String()
	v, err, _ := p.group.Do("release:"+key, func() (any, error) {
		p.mu.Lock()
		raw, ok := p.published[key]
		p.mu.Unlock()
		if !ok {
			raw = version.String()
		}

		var resp releaseResponse
		if err := p.getJSON(ctx, name, p.endpoint(name, raw), &resp); err != nil {
			return nil, zerr.With(err, "version", version.String())
		}

		entry := &releaseCacheEntry{
			Name:           name,
			Version:        version.String(),
			Requires:       resp.Info.RequiresDist,
			RequiresPython: resp.Info.RequiresPython,
		}
		for _, f := range resp.URLs {
			if f.Yanked {
				continue
			}
			if h := f.Digests["sha256"]; h != "" {
				entry.Hashes = append(entry.Hashes, strings.ToLower(h))
			}
		}

		// A failed cache write only costs a refetch.
		_ = saveRelease(cachePath, entry)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*releaseCacheEntry).toRelease(version), nil
}

func (e *releaseCacheEntry) toRelease(version domain.Version) *domain.Release {
	return &domain.Release{
		Name:           e.Name,
		Version:        version,
		Requires:       e.Requires,
		RequiresPython: e.RequiresPython,
		Hashes:         e.Hashes,
	}
}

func (p *PyPI) endpoint(segments ...string) string {
	u := *p.base
	parts := []string{u.Path, "pypi"}
	parts = append(parts, segments...)
	parts = append(parts, "json")
	u.Path = strings.Join(parts, "/")
	u.RawPath = ""
	return u.String()
}

func (p *PyPI) cachePath(name string, version domain.Version) string {
	key := digest.FromString(p.base.String() + "\n" + name + "@" + version.String()).Encoded()
	return filepath.Join(p.cacheDir, key+".json")
}

func (p *PyPI) getJSON(ctx context.Context, name, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrNetwork, err.Error()), "package", name)
	}
	req.Header.Set("Accept", "application/json")
	if secret, ok := p.credential(); ok {
		req.SetBasicAuth(tokenUser, secret)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return zerr.Wrap(ctx.Err(), "index request cancelled")
		}
		netErr := zerr.With(zerr.Wrap(domain.ErrNetwork, err.Error()), "package", name)
		return zerr.With(netErr, "host", p.base.Host)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "index has no such package"), "package", name)
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := zerr.With(zerr.Wrap(domain.ErrNetwork, "unexpected index response"), "status_code", resp.StatusCode)
		return zerr.With(statusErr, "package", name)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrNetwork, err.Error()), "package", name)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrIndexResponseInvalid, err.Error()), "package", name)
	}
	return nil
}

func loadRelease(path string) (*releaseCacheEntry, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, zerr.Wrap(err, "failed to read index cache entry")
	}

	var entry releaseCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, "failed to decode index cache entry")
	}
	return &entry, nil
}

func saveRelease(path string, entry *releaseCacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrIndexCacheWriteFailed, err.Error())
	}
	if err := berthfs.AtomicWriteFile(path, data); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrIndexCacheWriteFailed, err.Error()), "path", path)
	}
	return nil
}
