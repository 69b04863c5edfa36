package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events an editor's atomic save
// produces (create + write + chmod) into a single reload.
const debounceDelay = 250 * time.Millisecond

// Watch monitors the config file and calls onChange with the freshly
// loaded Config after each change settles. It blocks until ctx is
// cancelled. A reload that fails validation is logged and dropped, so a
// half-saved or broken file never reaches onChange.
//
// The parent directory is watched rather than the file itself: atomic
// saves replace the inode, which silently kills a file-level watch.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	slog.Debug("watching config file", "path", abs)

	var pending *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(debounceDelay)
				fire = pending.C
			} else {
				pending.Reset(debounceDelay)
			}

		case <-fire:
			pending = nil
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				slog.Warn("config reload rejected, keeping previous", "path", abs, "err", err)
				continue
			}
			slog.Info("config reloaded", "path", abs)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "err", err)
		}
	}
}
