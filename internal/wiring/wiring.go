// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/berth/internal/adapters/apt"
	_ "go.trai.ch/berth/internal/adapters/cas"
	_ "go.trai.ch/berth/internal/adapters/config"
	_ "go.trai.ch/berth/internal/adapters/fs"
	_ "go.trai.ch/berth/internal/adapters/index"
	_ "go.trai.ch/berth/internal/adapters/launcher"
	_ "go.trai.ch/berth/internal/adapters/linear"
	_ "go.trai.ch/berth/internal/adapters/lockfile"
	_ "go.trai.ch/berth/internal/adapters/logger"
	_ "go.trai.ch/berth/internal/adapters/manifest"
	_ "go.trai.ch/berth/internal/adapters/metrics"
	_ "go.trai.ch/berth/internal/adapters/pip"
	_ "go.trai.ch/berth/internal/adapters/shell"
	_ "go.trai.ch/berth/internal/adapters/telemetry"
	_ "go.trai.ch/berth/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/berth/internal/app"
	_ "go.trai.ch/berth/internal/engine/pipeline"
)
