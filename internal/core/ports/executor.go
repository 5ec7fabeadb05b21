package ports

import (
	"context"
	"io"

	"go.trai.ch/berth/internal/core/domain"
)

// Executor runs external commands.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command to completion.
	Execute(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error

	// Start runs the command in the background, streaming its output to out.
	// Cancelling ctx terminates the process.
	Start(ctx context.Context, cmd *domain.Command, out io.Writer) (Process, error)
}

// Process is a started command.
type Process interface {
	// Pid returns the operating system process id.
	Pid() int
	// Wait blocks until the process exits.
	Wait() error
}
