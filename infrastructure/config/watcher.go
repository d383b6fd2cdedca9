package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/balizero/zantara-agentic/infrastructure/logging"
)

// debounceWindow collapses editor write bursts into one reload.
const debounceWindow = 200 * time.Millisecond

// Watch reloads the config file on change and calls onReload with each
// successfully parsed result. Parse failures keep the previous config and
// are logged. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, loader *Loader, onReload func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files, which drops a watch on
	// the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	var timer *time.Timer
	reload := func() {
		cfg, err := loader.LoadFile(target)
		if err != nil {
			logging.Warn().
				Add(logging.Str("path", target)).
				Add(logging.ErrorField(err)).
				Msg("config reload failed, keeping previous")
			return
		}
		logging.Info().Add(logging.Str("path", target)).Msg("config reloaded")
		onReload(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
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
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Add(logging.ErrorField(err)).Msg("config watcher error")
		}
	}
}
