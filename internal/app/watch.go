package app

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/berth/internal/adapters/watcher" //nolint:depguard // Debouncer is shared with the watcher adapter
	"go.trai.ch/berth/internal/core/domain"
)

// watch resolves once, then again whenever the manifest, an included
// requirements file or the config changes. Failures are logged and watching
// continues until ctx is cancelled.
func (a *App) watch(ctx context.Context, cfg *domain.Config, configPath string, resolve func() error) error {
	manifest, err := filepath.Abs(cfg.ManifestPath)
	if err != nil {
		return err
	}
	if configPath == "" {
		configPath = domain.ConfigFileName
	}
	configFile, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	if err := resolve(); err != nil {
		a.logger.Error(err)
	}

	root := filepath.Dir(manifest)
	if err := a.watcher.Start(ctx, root); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	trigger := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		a.logger.Info("changed: " + strings.Join(paths, ", "))
		select {
		case trigger <- struct{}{}:
		default:
		}
	})

	events := a.watcher.Events()
	go func() {
		for ev := range events {
			if relevantChange(ev.Path, manifest, configFile) {
				debouncer.Add(ev.Path)
			}
		}
	}()

	a.logger.Info("watching " + root + " for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			if err := resolve(); err != nil {
				a.logger.Error(err)
			}
		}
	}
}

// relevantChange reports whether an edit to path can change the resolved lock.
func relevantChange(path, manifest, configFile string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if abs == manifest || abs == configFile {
		return true
	}
	switch filepath.Ext(abs) {
	case ".in", ".txt", ".toml":
		return true
	default:
		return false
	}
}
