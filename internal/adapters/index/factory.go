package index

import (
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
)

var _ ports.IndexFactory = (*Factory)(nil)

// Factory opens the package index selected by the configuration.
type Factory struct{}

// NewFactory creates a new index Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Open returns a Local index when cfg.Path is set and a PyPI client otherwise.
func (f *Factory) Open(cfg domain.IndexConfig, cacheDir string) (ports.PackageIndex, error) {
	if cfg.Path != "" {
		return NewLocal(cfg.Path)
	}
	return NewPyPI(cfg.URL, cacheDir, cfg.Timeout)
}
