// Package localstore enumerates the chunk files a chunk server holds on
// disk: one regular file per chunk, filename equal to the chunk handle
// (spec §6, "Persisted state layout"). It keeps that enumeration current
// by watching the data directory with fsnotify instead of re-walking it on
// every heartbeat tick.
package localstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"distfs/internal/gfs"
	"distfs/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Store tracks the set of chunk handles present under Dir.
type Store struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.RWMutex
	handles map[gfs.ChunkHandle]struct{}
}

// Open performs an initial scan of dir (creating it if absent) and starts
// watching it for subsequent creates/removes. Callers must run Run in a
// goroutine to consume watch events; without it the Store simply reflects
// the state at Open time.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch data dir: %w", err)
	}

	s := &Store{
		dir:     dir,
		watcher: watcher,
		logger:  logging.Default(logger).With("component", "localstore"),
		handles: make(map[gfs.ChunkHandle]struct{}),
	}
	if err := s.rescan(); err != nil {
		watcher.Close()
		return nil, err
	}
	return s, nil
}

// rescan walks Dir once, parsing every regular file's base name as a chunk
// handle. Non-numeric names are skipped with a warning rather than failing
// the scan outright — a stray file should not take a chunk server down.
func (s *Store) rescan() error {
	handles := make(map[gfs.ChunkHandle]struct{})
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read data dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		h, ok := parseHandle(entry.Name())
		if !ok {
			s.logger.Warn("ignoring non-chunk file in data dir", "name", entry.Name())
			continue
		}
		handles[h] = struct{}{}
	}
	s.mu.Lock()
	s.handles = handles
	s.mu.Unlock()
	return nil
}

func parseHandle(name string) (gfs.ChunkHandle, bool) {
	n, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return gfs.ChunkHandle(n), true
}

// Run consumes fsnotify events until ctx is cancelled, keeping the handle
// set current incrementally instead of rescanning the whole directory.
func (s *Store) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return s.watcher.Close()
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func (s *Store) handleEvent(event fsnotify.Event) {
	h, ok := parseHandle(filepath.Base(event.Name))
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		s.handles[h] = struct{}{}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(s.handles, h)
	}
}

// Handles returns a snapshot of every chunk handle currently on disk.
func (s *Store) Handles() []gfs.ChunkHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gfs.ChunkHandle, 0, len(s.handles))
	for h := range s.handles {
		out = append(out, h)
	}
	return out
}

// Delete removes a chunk file from disk and the in-memory set, used to
// apply a heartbeat reply's to_delete list.
func (s *Store) Delete(h gfs.ChunkHandle) error {
	path := filepath.Join(s.dir, strconv.FormatUint(uint64(h), 10))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete chunk file: %w", err)
	}
	s.mu.Lock()
	delete(s.handles, h)
	s.mu.Unlock()
	return nil
}

// DiskUsage reports used and available bytes on the filesystem backing
// Dir, read from the OS the way spec §6 describes ("read from the
// operating system's free-space utility on the mount").
func (s *Store) DiskUsage() (used, available uint64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(s.dir, &stat); err != nil {
		return 0, 0, fmt.Errorf("statfs: %w", err)
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	return total - free, free, nil
}
