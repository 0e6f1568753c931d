package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DebounceDelay batches the burst of events an editor produces when saving.
const DebounceDelay = 200 * time.Millisecond

// Watch reloads path whenever it changes and passes the merged settings to onChange. It watches
// the parent directory so editors that replace the file are still seen. Watch blocks until ctx is
// cancelled and returns nil then.
func Watch(ctx context.Context, path string, log *zap.Logger, onChange func(Config)) error {
	if log == nil {
		log = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(target), err)
	}
	log.Debug("watching config", zap.String("path", target))

	// A stopped timer that is reset on each relevant event.
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce.Reset(DebounceDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", zap.Error(err))
		case <-debounce.C:
			cfg, err := Load(target)
			if err != nil {
				log.Warn("config reload failed, keeping previous settings", zap.Error(err))
				continue
			}
			log.Info("config reloaded", zap.String("path", target))
			onChange(cfg)
		}
	}
}
