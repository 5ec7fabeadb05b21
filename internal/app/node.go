package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/berth/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/berth/internal/adapters/linear"    //nolint:depguard // Wired in app layer
	"go.trai.ch/berth/internal/adapters/lockfile"  //nolint:depguard // Wired in app layer
	"go.trai.ch/berth/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/berth/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/berth/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/berth/internal/engine/pipeline"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the app components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles the pieces the command layer needs.
type Components struct {
	App          *App
	Logger       ports.Logger
	ConfigLoader ports.ConfigLoader
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			pipeline.NodeID,
			lockfile.NodeID,
			watcher.NodeID,
			logger.NodeID,
			linear.NodeID,
			telemetry.RouterNodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			p, err := graft.Dep[*pipeline.Pipeline](ctx)
			if err != nil {
				return nil, err
			}
			locks, err := graft.Dep[ports.LockStore](ctx)
			if err != nil {
				return nil, err
			}
			w, err := graft.Dep[ports.Watcher](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			renderer, err := graft.Dep[*linear.Renderer](ctx)
			if err != nil {
				return nil, err
			}
			router, err := graft.Dep[*telemetry.Router](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return New(loader, p, locks, w, log, renderer, router, tracer), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID, config.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log, ConfigLoader: loader}, nil
		},
	})
}
