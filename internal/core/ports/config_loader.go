package ports

import "go.trai.ch/berth/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path and merges it over the defaults.
	// It returns domain.ErrConfigNotFound if the file does not exist.
	Load(path string) (*domain.Config, error)
}
