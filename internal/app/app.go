// Package app implements the application layer for berth.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/berth/internal/adapters/detector"
	"go.trai.ch/berth/internal/adapters/fs"
	"go.trai.ch/berth/internal/adapters/linear"
	"go.trai.ch/berth/internal/adapters/logger"
	"go.trai.ch/berth/internal/adapters/telemetry"
	"go.trai.ch/berth/internal/adapters/tui"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/berth/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// Overrides carries command line settings that take precedence over the config file.
// Zero values leave the configured value unchanged.
type Overrides struct {
	ConfigPath string
	Host       string
	Port       int
	Manifest   string
	Lock       string
	Output     string
	NativeDeps []string
	PayloadDir string
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	pipeline     *pipeline.Pipeline
	locks        ports.LockStore
	watcher      ports.Watcher
	logger       ports.Logger
	renderer     *linear.Renderer
	router       *telemetry.Router
	tracer       ports.Tracer
	stdout       io.Writer
	stderr       io.Writer

	mode       detector.OutputMode
	watching   bool
	teaOptions []tea.ProgramOption
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	p *pipeline.Pipeline,
	locks ports.LockStore,
	watcher ports.Watcher,
	log ports.Logger,
	renderer *linear.Renderer,
	router *telemetry.Router,
	tracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		pipeline:     p,
		locks:        locks,
		watcher:      watcher,
		logger:       log,
		renderer:     renderer,
		router:       router,
		tracer:       tracer,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput redirects progress output. It is primarily used by tests.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithTeaOptions adds options to the interactive program.
// It is primarily used by tests to detach the program from the terminal.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	// Watch re-resolves whenever the manifest or configuration changes.
	Watch bool
	// Export, when set, receives the lock as a pinned requirements file.
	Export string
}

// Resolve produces the lock file from the manifest.
func (a *App) Resolve(ctx context.Context, o Overrides, opts ResolveOptions) error {
	cfg, err := a.setup(o)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	resolveOnce := func() error {
		// Reload so config edits picked up by the watcher take effect.
		current, err := a.LoadConfig(o)
		if err != nil {
			return err
		}
		res, err := a.run(ctx, current, domain.StateUnresolved, domain.StateLocked)
		if err != nil {
			return err
		}
		a.logger.Info(fmt.Sprintf("locked %d packages in %s", res.Lock.Len(), current.LockPath))
		if opts.Export != "" {
			return a.export(opts.Export, res.Lock)
		}
		return nil
	}

	if !opts.Watch {
		return resolveOnce()
	}
	a.watching = true
	defer func() { a.watching = false }()
	return a.watch(ctx, cfg, o.ConfigPath, resolveOnce)
}

func (a *App) export(path string, lock *domain.Lock) error {
	var buf bytes.Buffer
	if err := a.locks.ExportRequirements(&buf, lock); err != nil {
		return err
	}
	if err := fs.AtomicWriteFile(path, buf.Bytes()); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to export requirements"), "path", path)
	}
	a.logger.Info("exported requirements to " + path)
	return nil
}

// Assemble builds the runtime image from the existing lock file.
func (a *App) Assemble(ctx context.Context, o Overrides) error {
	cfg, err := a.setup(o)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	res, err := a.run(ctx, cfg, domain.StateLocked, domain.StateAssembled)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("assembled image %s with %d packages", res.Image.ID, len(res.Image.Packages)))
	return nil
}

// Launch starts the server from the current image and serves until ctx is cancelled.
func (a *App) Launch(ctx context.Context, o Overrides) error {
	cfg, err := a.setup(o)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	res, err := a.run(ctx, cfg, domain.StateAssembled, domain.StateRunning)
	if err != nil {
		return err
	}
	return a.serve(ctx, res.Server)
}

// Build runs every stage from the manifest, through launch when launch is set.
func (a *App) Build(ctx context.Context, o Overrides, launch bool) error {
	cfg, err := a.setup(o)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	target := domain.StateAssembled
	if launch {
		target = domain.StateRunning
	}

	res, err := a.run(ctx, cfg, domain.StateUnresolved, target)
	if err != nil {
		return err
	}
	if !launch {
		a.logger.Info(fmt.Sprintf("assembled image %s with %d packages", res.Image.ID, len(res.Image.Packages)))
		return nil
	}
	return a.serve(ctx, res.Server)
}

func (a *App) serve(ctx context.Context, srv ports.Server) error {
	a.logger.Info("serving on " + srv.Addr())

	exited := make(chan error, 1)
	go func() {
		exited <- srv.Wait()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("stopping server")
		return srv.Stop()
	case err := <-exited:
		return err
	}
}

// run drives the pipeline with the renderer active. Runs that end before
// launch use the interactive interface on a terminal; serving and watching
// keep the linear log.
func (a *App) run(ctx context.Context, cfg *domain.Config, from, to domain.State) (*pipeline.Result, error) {
	if a.mode == detector.ModeTUI && to < domain.StateRunning && !a.watching {
		return a.runInteractive(ctx, cfg, from, to)
	}

	a.router.Use(a.renderer)
	if err := a.renderer.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = a.renderer.Stop()
	}()

	return a.pipeline.Run(ctx, cfg, from, to)
}

// runInteractive runs the pipeline behind the terminal interface. Quitting
// the interface cancels the run.
func (a *App) runInteractive(ctx context.Context, cfg *domain.Config, from, to domain.State) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(a.stderr)}, a.teaOptions...)
	renderer := tui.NewRenderer(tui.NewModel(a.stderr, detector.Profile(a.mode)), opts...)

	a.router.Use(renderer)
	defer a.router.Use(a.renderer)

	if err := renderer.Start(ctx); err != nil {
		return nil, err
	}
	exited := make(chan error, 1)
	go func() {
		err := renderer.Wait()
		cancel()
		exited <- err
	}()

	res, err := a.pipeline.Run(ctx, cfg, from, to)
	_ = renderer.Stop()
	if waitErr := <-exited; waitErr != nil && err == nil {
		err = zerr.Wrap(waitErr, "terminal interface failed")
	}
	return res, err
}

// setup selects the output mode and loads the effective configuration.
func (a *App) setup(o Overrides) (*domain.Config, error) {
	if err := a.configureOutput(o.Output); err != nil {
		return nil, err
	}
	return a.LoadConfig(o)
}

func (a *App) configureOutput(flag string) error {
	mode, err := detector.ResolveMode(detector.DetectEnvironment(), flag)
	if err != nil {
		return err
	}

	a.mode = mode
	a.renderer.SetOutput(a.stdout, a.stderr, detector.Profile(mode))
	a.renderer.SetQuiet(mode == detector.ModeJSON)

	if l, ok := a.logger.(interface{ SetMode(logger.Mode) }); ok {
		switch mode {
		case detector.ModeJSON:
			l.SetMode(logger.ModeJSON)
		case detector.ModeColor, detector.ModeTUI:
			l.SetMode(logger.ModePretty)
		default:
			l.SetMode(logger.ModePlain)
		}
	}
	return nil
}

// LoadConfig reads the config file and applies the overrides. A missing default
// config file means defaults apply; a missing explicit one is an error.
func (a *App) LoadConfig(o Overrides) (*domain.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = domain.ConfigFileName
	}

	cfg, err := a.configLoader.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConfigNotFound) && o.ConfigPath == "":
		cfg = domain.DefaultConfig()
	default:
		return nil, err
	}

	if o.Host != "" {
		cfg.Host = o.Host
	}
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.Manifest != "" {
		cfg.ManifestPath = o.Manifest
	}
	if o.Lock != "" {
		cfg.LockPath = o.Lock
	}
	if o.PayloadDir != "" {
		cfg.PayloadDir = o.PayloadDir
	}
	cfg.NativeDeps = append(cfg.NativeDeps, o.NativeDeps...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *App) shutdown(ctx context.Context) {
	if s, ok := a.tracer.(interface{ Shutdown(context.Context) error }); ok {
		_ = s.Shutdown(context.WithoutCancel(ctx))
	}
}

// CleanOptions selects what Clean removes. Images are always removed.
type CleanOptions struct {
	// Cache also removes the package index cache.
	Cache bool
	// All removes the whole state directory.
	All bool
}

// Clean removes assembled images and, optionally, cached state.
func (a *App) Clean(_ context.Context, o Overrides, options CleanOptions) error {
	cfg, err := a.LoadConfig(o)
	if err != nil {
		return err
	}

	var errs error
	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.All {
		remove(cfg.StateDir, "state directory")
		return errs
	}

	remove(domain.ImagesPath(cfg.StateDir), "images")
	if options.Cache {
		remove(domain.CachePath(cfg.StateDir), "index cache")
	}
	return errs
}
