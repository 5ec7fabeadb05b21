package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/berth/internal/adapters/linear"
	"go.trai.ch/berth/internal/core/ports"
)

const (
	// RouterNodeID is the unique identifier for the renderer router Graft node.
	RouterNodeID graft.ID = "adapter.telemetry.router"
	// TracerNodeID is the unique identifier for the telemetry Graft node.
	TracerNodeID graft.ID = "adapter.telemetry"
)

func init() {
	graft.Register(graft.Node[*Router]{
		ID:        RouterNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{linear.NodeID},
		Run: func(ctx context.Context) (*Router, error) {
			renderer, err := graft.Dep[*linear.Renderer](ctx)
			if err != nil {
				return nil, err
			}
			return NewRouter(renderer), nil
		},
	})

	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{RouterNodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			router, err := graft.Dep[*Router](ctx)
			if err != nil {
				return nil, err
			}
			return NewOTelTracer("berth", router), nil
		},
	})
}
