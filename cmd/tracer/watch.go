package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce duration - wait for rapid changes to settle
const debounce = 100 * time.Millisecond

// fileWatcher reports changes to a single file. It watches the file's
// directory so that editors which replace the file on save are seen too.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	logger  *slog.Logger
}

func newFileWatcher(path string, logger *slog.Logger) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return &fileWatcher{watcher: fsWatcher, path: abs, logger: logger}, nil
}

// Run calls onChange once a burst of writes to the file has settled. It
// returns when ctx is done and closes the watcher.
func (w *fileWatcher) Run(ctx context.Context, onChange func()) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			// Only handle write and create events
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
