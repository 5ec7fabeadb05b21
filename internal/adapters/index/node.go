package index

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/berth/internal/core/ports"
)

// NodeID is the unique identifier for the index factory Graft node.
const NodeID graft.ID = "adapter.index"

func init() {
	graft.Register(graft.Node[ports.IndexFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.IndexFactory, error) {
			return NewFactory(), nil
		},
	})
}
