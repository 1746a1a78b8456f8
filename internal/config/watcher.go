package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"distfs/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a file-backed Store whenever its underlying file changes
// and invokes onChange with the new Config. This is an ambient-stack
// addition beyond spec §1's "configuration loading... out of scope":
// cmd/master uses it to apply a changed liveness threshold without a
// restart. The sweep interval is read once at startup and is not reloaded.
type Watcher struct {
	path    string
	store   Store
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher watches the directory containing path for changes to it. The
// directory, not the file, is watched because Store.Save writes atomically
// via temp-file-then-rename: a watch on the file itself would follow the
// old inode away after the first rename and never fire again.
func NewWatcher(path string, store Store, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		path:    path,
		store:   store,
		watcher: fw,
		logger:  logging.Default(logger).With("component", "config_watcher"),
	}, nil
}

// Run consumes fsnotify events until ctx is cancelled, calling onChange
// with every successfully reloaded Config. Reload errors are logged and
// do not stop the watch loop, since a transient write race (temp file not
// yet renamed) should not be fatal.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := w.store.Load(ctx)
			if err != nil {
				w.logger.Warn("config reload failed", "error", err)
				continue
			}
			if cfg != nil {
				onChange(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
