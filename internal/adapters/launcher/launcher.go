// Package launcher starts the application server from an assembled image
// and waits until it accepts connections.
package launcher

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-shellwords"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// PollInterval is how often readiness is probed.
	PollInterval = 100 * time.Millisecond
	dialTimeout  = 250 * time.Millisecond
	tailSize     = 8 * 1024
)

var _ ports.Launcher = (*Launcher)(nil)

// Launcher implements ports.Launcher on top of an Executor.
type Launcher struct {
	executor ports.Executor
	interval time.Duration
}

// New creates a Launcher.
func New(executor ports.Executor) *Launcher {
	return &Launcher{executor: executor, interval: PollInterval}
}

// Launch checks the entry point and the address, starts the server command
// inside the image and returns once the server accepts TCP connections.
func (l *Launcher) Launch(ctx context.Context, image *domain.Image, cfg *domain.Config, out io.Writer) (ports.Server, error) {
	if err := checkEntrypoint(cfg.Entrypoint, image.AppDir(), image.SitePackages()); err != nil {
		return nil, err
	}

	addr := cfg.Address()
	if err := probeBind(addr); err != nil {
		return nil, err
	}

	args, err := expandCommand(cfg.ServerCommand, map[string]string{
		"entrypoint": cfg.Entrypoint,
		"host":       cfg.Host,
		"port":       strconv.Itoa(cfg.Port),
		"app_dir":    image.AppDir(),
	})
	if err != nil {
		return nil, err
	}

	tail := &tailBuffer{limit: tailSize}
	if out == nil {
		out = io.Discard
	}

	procCtx, cancel := context.WithCancel(ctx)
	proc, err := l.executor.Start(procCtx, &domain.Command{
		Name: "server",
		Args: args,
		Dir:  image.AppDir(),
		Env:  image.RuntimeEnv(),
	}, io.MultiWriter(out, tail))
	if err != nil {
		cancel()
		return nil, err
	}

	srv := &server{addr: addr, cancel: cancel, done: make(chan struct{})}
	go func() {
		srv.err = proc.Wait()
		close(srv.done)
	}()

	if err := l.awaitReady(ctx, srv, cfg.ReadyTimeout); err != nil {
		_ = srv.Stop()
		if errors.Is(err, errExited) {
			return nil, classifyExit(srv.err, tail.String(), addr)
		}
		return nil, err
	}
	return srv, nil
}

var errExited = errors.New("server exited")

func (l *Launcher) awaitReady(ctx context.Context, srv *server, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	target := dialAddress(srv.addr)
	for {
		if ready(ctx, target) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-srv.done:
			if err := ctx.Err(); err != nil {
				return err
			}
			return errExited
		case <-deadline.C:
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrLaunchTimeout, "no listener on address"), "address", srv.addr), "timeout", timeout.String())
		case <-ticker.C:
		}
	}
}

func ready(ctx context.Context, addr string) bool {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// dialAddress maps a wildcard bind address to the matching loopback address.
func dialAddress(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return net.JoinHostPort(host, port)
}

// probeBind fails if addr cannot be listened on right now.
func probeBind(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrBindError, err.Error()), "address", addr)
	}
	return ln.Close()
}

// expandCommand substitutes {name} placeholders. A single-element command is
// treated as a shell-quoted command line.
func expandCommand(command []string, vars map[string]string) ([]string, error) {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	replacer := strings.NewReplacer(pairs...)

	if len(command) == 1 {
		args, err := shellwords.Parse(command[0])
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "server command is not valid shell syntax"), "command", command[0])
		}
		command = args
	}

	args := make([]string, 0, len(command))
	for _, arg := range command {
		args = append(args, replacer.Replace(arg))
	}
	if len(args) == 0 {
		return nil, zerr.Wrap(domain.ErrEmptyCommand, "server command is empty")
	}
	return args, nil
}

var (
	bindMarkers = []string{
		"address already in use",
		"error while attempting to bind",
		"[errno 98]",
		"[errno 48]",
		"cannot assign requested address",
	}
	importMarkers = []string{
		"error loading asgi app",
		"could not import module",
		"modulenotfounderror",
		"importerror",
		"attributeerror",
	}
)

// classifyExit maps the output of a server that exited before becoming ready to a failure kind.
func classifyExit(waitErr error, output, addr string) error {
	lower := strings.ToLower(output)
	lastLines := lastLines(output, 5)

	var err error
	switch {
	case containsAny(lower, bindMarkers):
		err = zerr.Wrap(domain.ErrBindError, "server could not bind its address")
	case containsAny(lower, importMarkers):
		err = zerr.Wrap(domain.ErrApplicationImportError, "server could not load the application")
	default:
		err = zerr.Wrap(domain.ErrServerExited, "server exited during startup")
	}
	err = zerr.With(err, "address", addr)
	if waitErr != nil {
		err = zerr.With(err, "exit", waitErr.Error())
	}
	if lastLines != "" {
		err = zerr.With(err, "output", lastLines)
	}
	return err
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type server struct {
	addr    string
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	stopped atomic.Bool
}

func (s *server) Addr() string {
	return s.addr
}

// Wait blocks until the process exits. A process stopped through Stop reports no error.
func (s *server) Wait() error {
	<-s.done
	if s.stopped.Load() || s.err == nil {
		return nil
	}
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrServerExited, "server stopped unexpectedly"), "address", s.addr), "exit", s.err.Error())
}

// Stop sends SIGTERM, kills the process after the executor grace period and waits for it.
func (s *server) Stop() error {
	s.stopped.Store(true)
	s.cancel()
	<-s.done
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
