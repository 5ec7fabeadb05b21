package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/berth/internal/adapters/apt"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/index"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/launcher"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/lockfile"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/manifest"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/pip"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/berth/internal/core/ports"
)

// NodeID is the unique identifier for the pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[*Pipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifest.NodeID,
			lockfile.NodeID,
			index.NodeID,
			pip.NodeID,
			apt.NodeID,
			fs.CopierNodeID,
			cas.NodeID,
			launcher.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Pipeline, error) {
			manifests, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}
			locks, err := graft.Dep[ports.LockStore](ctx)
			if err != nil {
				return nil, err
			}
			indexes, err := graft.Dep[ports.IndexFactory](ctx)
			if err != nil {
				return nil, err
			}
			installer, err := graft.Dep[ports.Installer](ctx)
			if err != nil {
				return nil, err
			}
			natives, err := graft.Dep[ports.NativePackageManager](ctx)
			if err != nil {
				return nil, err
			}
			payload, err := graft.Dep[ports.PayloadCopier](ctx)
			if err != nil {
				return nil, err
			}
			images, err := graft.Dep[ports.ImageStore](ctx)
			if err != nil {
				return nil, err
			}
			launch, err := graft.Dep[ports.Launcher](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			recorder, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(manifests, locks, indexes, installer, natives, payload, images, launch, tracer, recorder, log), nil
		},
	})
}
