package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay is how long the file must stay quiet before it is reloaded.
var reloadDelay = 100 * time.Millisecond

// Watch monitors configPath and calls onChange with the reloaded
// configuration each time the file is written or replaced. It blocks until
// ctx is cancelled.
//
// A reload that fails, or that yields no scenarios, is logged and skipped, so
// the caller keeps whatever it last computed.
func Watch(ctx context.Context, logger *zap.Logger, configPath string, onChange func(*Configuration)) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := newConfigWatcher(configPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	logger.Info("watching configuration for changes",
		zap.String("op", "config.Watch"),
		zap.String("path", configPath),
	)
	return watchLoop(ctx, logger, watcher, configPath, onChange)
}

// newConfigWatcher watches the directory holding configPath so that saves
// which rename a new file over it are still seen.
func newConfigWatcher(configPath string) (*fsnotify.Watcher, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func watchLoop(ctx context.Context, logger *zap.Logger, watcher *fsnotify.Watcher, configPath string, onChange func(*Configuration)) error {
	target := filepath.Clean(configPath)
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Restart the quiet period on every event of a save.
			settle = time.After(reloadDelay)

		case <-settle:
			settle = nil
			reload(logger, configPath, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("configuration watcher error",
				zap.String("op", "config.Watch"),
				zap.Error(err),
			)
		}
	}
}

func reload(logger *zap.Logger, configPath string, onChange func(*Configuration)) {
	conf, err := LoadConfiguration(configPath)
	if err != nil {
		logger.Error("configuration reload failed, keeping previous results",
			zap.String("op", "config.Watch"),
			zap.String("path", configPath),
			zap.Error(err),
		)
		return
	}
	if len(conf.Scenarios) == 0 {
		logger.Warn("reloaded configuration has no scenarios, keeping previous results",
			zap.String("op", "config.Watch"),
			zap.String("path", configPath),
		)
		return
	}

	logger.Debug("configuration reloaded",
		zap.String("op", "config.Watch"),
		zap.String("path", configPath),
	)
	onChange(conf)
}
