// Package watcher re-runs a project sync when the source tree changes.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned when watching with a closed Watcher.
var ErrClosed = errors.New("watcher is closed")

// SyncFunc performs one sync pass.
type SyncFunc func(ctx context.Context) error

// Watcher watches a source tree and triggers debounced sync passes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	matcher  *filter.Matcher
	debounce time.Duration
	root     string
	paths    map[string]bool
	mu       sync.RWMutex
	closed   bool
}

// New creates a Watcher. Names excluded by matcher are neither watched nor
// allowed to trigger a sync, which keeps the sync's own writes from
// retriggering it.
func New(matcher *filter.Matcher, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  fsw,
		matcher:  matcher,
		debounce: debounce,
		paths:    make(map[string]bool),
	}, nil
}

// Watch starts watching root and every non-excluded subdirectory.
// Symlinks are not followed to avoid loops.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "watch", Path: absRoot, Err: os.ErrInvalid}
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.root = absRoot
	w.mu.Unlock()

	return w.addTree(absRoot)
}

// addTree watches dir and its non-excluded subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			return nil //nolint:nilerr // Skip entries with errors
		}

		if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		if path != dir && w.matcher.Excluded(d.Name()) {
			return filepath.SkipDir
		}

		return w.addWatch(path)
	})
}

// addWatch adds a single directory to the watch list.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		logging.Get("watcher").Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// removeWatches drops path and every watch below it.
func (w *Watcher) removeWatches(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.watcher.Remove(p)
			delete(w.paths, p)
		}
	}
}

// WatchedPaths returns the number of watched directories.
func (w *Watcher) WatchedPaths() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.paths)
}

// Relevant reports whether event should trigger a sync: it must change the
// tree's shape and no component of its path below the root may be excluded.
func (w *Watcher) Relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	w.mu.RLock()
	root := w.root
	w.mu.RUnlock()

	rel, err := filepath.Rel(root, event.Name)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.matcher.Excluded(part) {
			return false
		}
	}
	return true
}

// Run processes events until ctx is cancelled. Relevant events restart a
// debounce timer; when it fires, run is called on the calling goroutine, so
// passes never overlap. Sync errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, run SyncFunc) error {
	log := logging.Get("watcher")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return ErrClosed
			}
			w.track(event)
			if !w.Relevant(event) {
				continue
			}
			log.Debug("change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return ErrClosed
			}
			log.Error("watcher error", "error", err)

		case <-timer.C:
			if err := run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error("sync failed", "error", err)
			}
		}
	}
}

// track keeps the watch list in step with directory creation and removal.
func (w *Watcher) track(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		info, err := os.Lstat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if w.matcher.Excluded(filepath.Base(event.Name)) {
			return
		}
		_ = w.addTree(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.removeWatches(event.Name)
	}
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
