// Package pipeline drives a project from its manifest to a running server,
// one stage at a time.
package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/berth/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// Result holds the artifacts of the last state a run reached.
type Result struct {
	State      domain.State
	Lock       *domain.Lock
	LockDigest string
	// Index is the package index the lock was resolved against.
	Index  domain.IndexConfig
	Image  *domain.Image
	Server ports.Server
}

// Pipeline runs the resolve, assemble and launch stages.
type Pipeline struct {
	manifests ports.ManifestLoader
	locks     ports.LockStore
	indexes   ports.IndexFactory
	installer ports.Installer
	natives   ports.NativePackageManager
	payload   ports.PayloadCopier
	images    ports.ImageStore
	launcher  ports.Launcher
	tracer    ports.Tracer
	metrics   ports.Metrics
	logger    ports.Logger
}

// New creates a Pipeline.
func New(
	manifests ports.ManifestLoader,
	locks ports.LockStore,
	indexes ports.IndexFactory,
	installer ports.Installer,
	natives ports.NativePackageManager,
	payload ports.PayloadCopier,
	images ports.ImageStore,
	launcher ports.Launcher,
	tracer ports.Tracer,
	metrics ports.Metrics,
	logger ports.Logger,
) *Pipeline {
	return &Pipeline{
		manifests: manifests,
		locks:     locks,
		indexes:   indexes,
		installer: installer,
		natives:   natives,
		payload:   payload,
		images:    images,
		launcher:  launcher,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run advances the pipeline from state from to state to. Starting at Locked loads
// the lock from cfg.LockPath and starting at Assembled loads the current image.
// On failure the returned error is a *domain.StageError and the Result reflects
// the state the pipeline halted in.
func (p *Pipeline) Run(ctx context.Context, cfg *domain.Config, from, to domain.State) (*Result, error) {
	if from > to || to > domain.StateRunning || from == domain.StateRunning {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidTransition, "cannot run backwards or past running"), "from", from.String())
		return &Result{State: from}, zerr.With(err, "to", to.String())
	}

	defer p.flushMetrics(cfg.MetricsPath)

	res := &Result{State: from}
	if err := p.loadArtifacts(cfg, res); err != nil {
		return res, &domain.StageError{Stage: domain.StageFor(from), State: from, Err: err}
	}

	var stages []string
	for s := from; s < to; s++ {
		stages = append(stages, string(domain.StageFor(s)))
	}
	if len(stages) == 0 {
		return res, nil
	}
	p.tracer.EmitPlan(ctx, stages)

	machine := domain.NewStateMachine(from)
	for machine.Current() < to {
		current := machine.Current()
		stage := domain.StageFor(current)

		if err := p.runStage(ctx, cfg, stage, res); err != nil {
			return res, &domain.StageError{Stage: stage, State: current, Err: err}
		}
		if err := machine.Advance(current + 1); err != nil {
			return res, err
		}
		res.State = machine.Current()
	}
	return res, nil
}

func (p *Pipeline) loadArtifacts(cfg *domain.Config, res *Result) error {
	switch res.State {
	case domain.StateLocked:
		lock, lockDigest, err := p.locks.Load(cfg.LockPath)
		if err != nil {
			return err
		}
		res.Lock, res.LockDigest = lock, lockDigest
		res.Index = p.lockedIndex(cfg)
	case domain.StateAssembled:
		img, err := p.images.Current(domain.ImagesPath(cfg.StateDir))
		if err != nil {
			return err
		}
		res.Image = img
	}
	return nil
}

// lockedIndex recovers the index an existing lock was resolved against. The
// manifest may name its own index; without a readable manifest the configured
// index applies.
func (p *Pipeline) lockedIndex(cfg *domain.Config) domain.IndexConfig {
	manifest, err := p.manifests.Load(cfg.ManifestPath)
	if err != nil {
		return cfg.Index
	}
	return indexConfig(cfg, manifest)
}

func (p *Pipeline) runStage(ctx context.Context, cfg *domain.Config, stage domain.Stage, res *Result) error {
	stageCtx, span := p.tracer.Start(ctx, string(stage))
	defer span.End()

	start := time.Now()
	var err error
	switch stage {
	case domain.StageResolve:
		err = p.resolve(stageCtx, cfg, res, span)
	case domain.StageAssemble:
		err = p.assemble(stageCtx, cfg, res, span)
	case domain.StageLaunch:
		// The server outlives the stage, so it is tied to the caller's context.
		err = p.launch(ctx, cfg, res)
	}
	p.metrics.ObserveStage(stage, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (p *Pipeline) resolve(ctx context.Context, cfg *domain.Config, res *Result, span ports.Span) error {
	manifest, err := p.manifests.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	ic := indexConfig(cfg, manifest)
	index, err := p.indexes.Open(ic, domain.IndexCachePath(cfg.StateDir))
	if err != nil {
		return err
	}

	lock, err := resolver.New(index, cfg).Resolve(ctx, manifest)
	if err != nil {
		return err
	}

	lockDigest, err := p.locks.Save(cfg.LockPath, lock)
	if err != nil {
		return err
	}

	res.Lock, res.LockDigest, res.Index = lock, lockDigest, ic
	p.metrics.SetLockedPackages(lock.Len())
	span.SetAttribute("berth.lock.digest", lockDigest)
	span.SetAttribute("berth.lock.packages", lock.Len())
	return nil
}

// indexConfig lets a manifest index URL replace the default public index.
// An explicitly configured index or local mirror always wins.
func indexConfig(cfg *domain.Config, manifest *domain.Manifest) domain.IndexConfig {
	ic := cfg.Index
	if manifest.IndexURL != "" && ic.Path == "" && ic.URL == domain.DefaultIndexURL {
		ic.URL = manifest.IndexURL
	}
	return ic
}

func (p *Pipeline) assemble(ctx context.Context, cfg *domain.Config, res *Result, span ports.Span) (err error) {
	staging, err := p.images.Begin(domain.ImagesPath(cfg.StateDir))
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if abortErr := p.images.Abort(staging); abortErr != nil {
				p.logger.Warn("failed to remove staging directory " + staging.Dir + ": " + abortErr.Error())
			}
		}
	}()

	native := sortedUnique(cfg.NativeDeps)
	if len(native) > 0 {
		if err := p.step(ctx, "native", func(stepCtx context.Context, out io.Writer) error {
			return p.natives.Install(stepCtx, native, staging.RootFS(), out)
		}); err != nil {
			return err
		}
	}

	if err := p.step(ctx, "install", func(stepCtx context.Context, out io.Writer) error {
		return p.installer.Install(stepCtx, res.Lock, staging.SitePackages(), res.Index, cfg.Python, out)
	}); err != nil {
		return err
	}

	entries, err := p.installer.Verify(res.Lock, staging.SitePackages())
	if err != nil {
		return err
	}

	fingerprint, err := p.payload.Copy(cfg.PayloadDir, staging.AppDir(), payloadIgnores(cfg))
	if err != nil {
		return err
	}

	img := &domain.Image{
		ID:                 domain.ComputeImageID(res.LockDigest, fingerprint, native, cfg.Entrypoint),
		LockDigest:         res.LockDigest,
		PayloadFingerprint: fingerprint,
		Packages:           entries,
		NativeDeps:         native,
		Entrypoint:         cfg.Entrypoint,
		Host:               cfg.Host,
		Port:               cfg.Port,
		WorkingDir:         domain.AppDirName,
	}
	committed, err := p.images.Commit(staging, img)
	if err != nil {
		return err
	}

	res.Image = committed
	p.metrics.SetImagePackages(len(entries))
	span.SetAttribute("berth.image.id", committed.ID)
	span.SetAttribute("berth.image.packages", len(entries))
	return nil
}

// step runs fn in a child span that receives its output.
func (p *Pipeline) step(ctx context.Context, name string, fn func(context.Context, io.Writer) error) error {
	stepCtx, span := p.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(stepCtx, span); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (p *Pipeline) launch(ctx context.Context, cfg *domain.Config, res *Result) error {
	_, span := p.tracer.Start(ctx, "server")

	srv, err := p.launcher.Launch(ctx, res.Image, cfg, span)
	if err != nil {
		span.RecordError(err)
		span.End()
		return err
	}

	go func() {
		if err := srv.Wait(); err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	res.Server = srv
	return nil
}

// payloadIgnores adds the state directory to the configured ignores when it lies
// inside the payload, so images never contain earlier images.
func payloadIgnores(cfg *domain.Config) []string {
	ignores := slices.Clone(cfg.PayloadIgnore)

	payload, err := filepath.Abs(cfg.PayloadDir)
	if err != nil {
		return ignores
	}
	state, err := filepath.Abs(cfg.StateDir)
	if err != nil {
		return ignores
	}
	rel, err := filepath.Rel(payload, state)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ignores
	}
	return append(ignores, filepath.ToSlash(rel)+"/")
}

func sortedUnique(in []string) []string {
	out := append([]string{}, in...)
	slices.Sort(out)
	return slices.Compact(out)
}

func (p *Pipeline) flushMetrics(path string) {
	if err := p.metrics.Flush(path); err != nil {
		p.logger.Warn("failed to write metrics: " + err.Error())
	}
}
