package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func newWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	matcher, err := filter.NewMatcher(filter.DefaultExclusions)
	require.NoError(t, err)

	w, err := New(matcher, testDebounce)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Watch(root))
	return w
}

// runCounting runs w in the background and counts sync passes.
func runCounting(t *testing.T, w *Watcher, hold time.Duration) (calls chan struct{}, maxInFlight *int32) {
	t.Helper()
	calls = make(chan struct{}, 16)
	maxInFlight = new(int32)
	var inFlight int32

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = w.Run(ctx, func(context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				cur := atomic.LoadInt32(maxInFlight)
				if n <= cur || atomic.CompareAndSwapInt32(maxInFlight, cur, n) {
					break
				}
			}
			time.Sleep(hold)
			atomic.AddInt32(&inFlight, -1)
			calls <- struct{}{}
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return calls, maxInFlight
}

func waitCall(t *testing.T, calls chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sync")
	}
}

func assertNoCall(t *testing.T, calls chan struct{}, wait time.Duration) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected sync")
	case <-time.After(wait):
	}
}

func TestWatch_SkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"src/net", "build/obj", ".vs", "x64"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}

	w := newWatcher(t, root)

	w.mu.RLock()
	defer w.mu.RUnlock()
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.True(t, w.paths[absRoot])
	assert.True(t, w.paths[filepath.Join(absRoot, "src")])
	assert.True(t, w.paths[filepath.Join(absRoot, "src", "net")])
	assert.False(t, w.paths[filepath.Join(absRoot, "build")])
	assert.False(t, w.paths[filepath.Join(absRoot, "build", "obj")])
	assert.False(t, w.paths[filepath.Join(absRoot, ".vs")])
	assert.Len(t, w.paths, 3)
}

func TestWatch_Errors(t *testing.T) {
	w, err := New(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)

	err = w.Watch(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.ErrorIs(t, w.Watch(file), os.ErrInvalid)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Watch(t.TempDir()), ErrClosed)
}

func TestRelevant(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)
	abs := func(rel string) string { return filepath.Join(w.root, filepath.FromSlash(rel)) }

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"source created", fsnotify.Event{Name: abs("src/a.cpp"), Op: fsnotify.Create}, true},
		{"source removed", fsnotify.Event{Name: abs("a.cpp"), Op: fsnotify.Remove}, true},
		{"source renamed", fsnotify.Event{Name: abs("a.cpp"), Op: fsnotify.Rename}, true},
		{"content write", fsnotify.Event{Name: abs("a.cpp"), Op: fsnotify.Write}, false},
		{"chmod", fsnotify.Event{Name: abs("a.cpp"), Op: fsnotify.Chmod}, false},
		{"project file", fsnotify.Event{Name: abs("App.vcxproj"), Op: fsnotify.Create}, false},
		{"filters file", fsnotify.Event{Name: abs("App.vcxproj.filters"), Op: fsnotify.Rename}, false},
		{"lock file", fsnotify.Event{Name: abs(".vcxsync.lock"), Op: fsnotify.Remove}, false},
		{"temp file", fsnotify.Event{Name: abs(".tmp-vcxsync-1234"), Op: fsnotify.Create}, false},
		{"under excluded dir", fsnotify.Event{Name: abs("src/Debug/a.obj"), Op: fsnotify.Create}, false},
		{"root itself", fsnotify.Event{Name: w.root, Op: fsnotify.Remove}, false},
		{"outside root", fsnotify.Event{Name: filepath.Dir(w.root), Op: fsnotify.Create}, false},
		{"sibling of root", fsnotify.Event{Name: filepath.Join(filepath.Dir(w.root), "other", "a.cpp"), Op: fsnotify.Create}, false},
		{"name starting with dots", fsnotify.Event{Name: abs("..foo.cpp"), Op: fsnotify.Create}, true},
		{"dotted dir", fsnotify.Event{Name: abs("..gen/a.cpp"), Op: fsnotify.Create}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Relevant(tt.event))
		})
	}
}

func TestRun_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)
	calls, _ := runCounting(t, w, 0)

	for _, name := range []string{"a.cpp", "b.cpp", "c.h"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}

	waitCall(t, calls)
	assertNoCall(t, calls, 5*testDebounce)

	require.NoError(t, os.Remove(filepath.Join(root, "a.cpp")))
	waitCall(t, calls)
}

func TestRun_IgnoresExcludedNames(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)
	calls, _ := runCounting(t, w, 0)

	require.NoError(t, os.WriteFile(filepath.Join(root, "App.vcxproj"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tmp-vcxsync-1"), nil, 0o644))
	require.NoError(t, os.Rename(filepath.Join(root, ".tmp-vcxsync-1"), filepath.Join(root, "App.vcxproj.filters")))
	require.NoError(t, os.Mkdir(filepath.Join(root, "build"), 0o755))

	assertNoCall(t, calls, 6*testDebounce)
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)
	calls, _ := runCounting(t, w, 0)

	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0o755))
	waitCall(t, calls)

	require.Eventually(t, func() bool { return w.WatchedPaths() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.cpp"), nil, 0o644))
	waitCall(t, calls)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "src")))
	waitCall(t, calls)
	require.Eventually(t, func() bool { return w.WatchedPaths() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestRun_NeverOverlaps(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)
	calls, maxInFlight := runCounting(t, w, 4*testDebounce)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.cpp"), nil, 0o644))
	// Lands while the first pass is still running.
	time.Sleep(2 * testDebounce)
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.cpp"), nil, 0o644))

	waitCall(t, calls)
	waitCall(t, calls)
	assert.Equal(t, int32(1), atomic.LoadInt32(maxInFlight))
}

func TestRun_SyncErrorsKeepWatching(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	calls := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls <- struct{}{}
			return errors.New("sync failed")
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.cpp"), nil, 0o644))
	waitCall(t, calls)
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.cpp"), nil, 0o644))
	waitCall(t, calls)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestIsSubPath(t *testing.T) {
	sep := string(filepath.Separator)
	assert.True(t, isSubPath("a"+sep+"b", "a"))
	assert.False(t, isSubPath("ab", "a"))
	assert.False(t, isSubPath("a", "a"))
}
