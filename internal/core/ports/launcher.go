package ports

import (
	"context"
	"io"

	"go.trai.ch/berth/internal/core/domain"
)

// Launcher starts the application server from an assembled image.
//
//go:generate go run go.uber.org/mock/mockgen -source=launcher.go -destination=mocks/mock_launcher.go -package=mocks
type Launcher interface {
	// Launch starts the server and returns once it accepts connections.
	// The server is stopped when ctx is cancelled.
	Launch(ctx context.Context, image *domain.Image, cfg *domain.Config, out io.Writer) (Server, error)
}

// Server is a running application server.
type Server interface {
	// Addr returns the address the server listens on.
	Addr() string
	// Wait blocks until the server exits.
	Wait() error
	// Stop terminates the server and waits for it to exit.
	Stop() error
}
