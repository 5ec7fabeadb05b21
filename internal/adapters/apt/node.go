package apt

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/berth/internal/adapters/shell"
	"go.trai.ch/berth/internal/core/ports"
)

// NodeID is the unique identifier for the native package manager Graft node.
const NodeID graft.ID = "adapter.apt"

func init() {
	graft.Register(graft.Node[ports.NativePackageManager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.NativePackageManager, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewManager(executor), nil
		},
	})
}
