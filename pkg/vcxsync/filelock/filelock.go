// Package filelock provides the exclusive project lock held for the
// duration of a sync, and staged writes that replace several files with
// as small a window of inconsistency as the filesystem allows.
package filelock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created in a project directory.
const LockFileName = ".vcxsync.lock"

// ErrLocked indicates that another process holds the project lock.
var ErrLocked = errors.New("project is locked by another vcxsync run")

// FileLock wraps a flock file lock for coordinating access to a project.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// ForProject returns the lock guarding the project in dir.
func ForProject(dir string) *FileLock {
	return NewFileLock(filepath.Join(dir, LockFileName))
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// TryLock acquires the lock without blocking. It returns ErrLocked when
// another process holds it.
func (fl *FileLock) TryLock() error {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLocked, fl.path)
	}
	return nil
}

// Unlock releases the lock. The lock file is left in place so that every
// run contends on the same inode.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite writes data to path through a temporary file in the same
// directory followed by a rename, so readers never see a partial file.
func AtomicWrite(path string, data []byte) error {
	s := &Stage{}
	if err := s.Add(path, data); err != nil {
		return err
	}
	return s.Commit()
}
