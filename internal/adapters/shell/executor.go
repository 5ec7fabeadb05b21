// Package shell runs external commands inside a pseudo terminal.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultGracePeriod is how long a cancelled command may take to exit after SIGTERM
// before it is killed.
const DefaultGracePeriod = 5 * time.Second

var _ ports.Executor = (*Executor)(nil)

type ptyProcess struct {
	cmd    *exec.Cmd
	ioDone <-chan struct{}
}

func (p *ptyProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *ptyProcess) Wait() error {
	err := p.cmd.Wait()

	// Output may still be buffered in the pty after the process exits.
	<-p.ioDone

	return err
}

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	grace time.Duration
}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{grace: DefaultGracePeriod}
}

// NewExecutorWithGrace creates an Executor with a custom termination grace period.
func NewExecutorWithGrace(grace time.Duration) *Executor {
	return &Executor{grace: grace}
}

// Start launches the command in a pty. The pty merges stdout and stderr into out.
// Cancelling ctx sends SIGTERM and kills the process after the grace period.
func (e *Executor) Start(ctx context.Context, command *domain.Command, out io.Writer) (ports.Process, error) {
	if len(command.Args) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrEmptyCommand, "nothing to run"), "command", command.Name)
	}

	name := command.Args[0]
	args := command.Args[1:]

	cmdEnv := resolveEnvironment(os.Environ(), command.Env)

	executable := name
	if !filepath.IsAbs(name) && !strings.Contains(name, string(filepath.Separator)) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // command comes from configuration
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = command.Dir
	cmd.Env = cmdEnv
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.grace

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCommandFailed, err.Error()), "command", command.Name)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		// Reads fail with EIO once the last process holding the terminal exits.
		_, _ = io.Copy(out, ptmx)
	}()

	return &ptyProcess{cmd: cmd, ioDone: ioDone}, nil
}

// Execute runs the command and waits for it to complete.
// Output from the pty is written to stdout; stderr is unused because the pty merges both streams.
func (e *Executor) Execute(ctx context.Context, command *domain.Command, stdout, _ io.Writer) error {
	proc, err := e.Start(ctx, command, stdout)
	if err != nil {
		return err
	}

	if err := proc.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		failed := zerr.With(zerr.Wrap(domain.ErrCommandFailed, err.Error()), "command", command.Name)
		return zerr.With(failed, "exit_code", exitCode)
	}

	return nil
}

// allowListedEnvVars are the host variables a command inherits. Everything else
// must be passed explicitly so installs and servers do not depend on the caller's shell.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment filters the host environment and applies overrides.
// An override PATH is prepended to the host PATH.
func resolveEnvironment(sysEnv, overrides []string) []string {
	envMap := filterSystemEnv(sysEnv)

	for _, entry := range overrides {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
