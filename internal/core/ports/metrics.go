package ports

import (
	"time"

	"go.trai.ch/berth/internal/core/domain"
)

// Metrics records pipeline measurements.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveStage records the duration and outcome of a stage.
	ObserveStage(stage domain.Stage, d time.Duration, err error)
	// SetLockedPackages records the package count of the latest lock.
	SetLockedPackages(n int)
	// SetImagePackages records the package count of the latest image.
	SetImagePackages(n int)
	// Flush writes the collected metrics to a textfile at path.
	Flush(path string) error
}
