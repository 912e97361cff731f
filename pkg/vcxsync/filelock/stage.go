package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Stage collects several file replacements. Every file is fully written
// and synced to a temporary sibling before any target is touched; Commit
// then renames them in the order they were added.
//
// A failure while staging leaves every target untouched. A failure during
// Commit can leave earlier targets replaced and later ones not: renames
// across files are not transactional.
type Stage struct {
	entries []stagedFile
}

type stagedFile struct {
	target string
	temp   string
}

// Add writes data to a temporary file next to path.
func (s *Stage) Add(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-vcxsync-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tempPath := tempFile.Name()

	fail := func(err error) error {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return err
	}

	if _, err := tempFile.Write(data); err != nil {
		return fail(fmt.Errorf("failed to write temp file for %s: %w", path, err))
	}
	if err := tempFile.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync temp file for %s: %w", path, err))
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions for %s: %w", path, err)
	}

	s.entries = append(s.entries, stagedFile{target: path, temp: tempPath})
	return nil
}

// Len returns the number of staged files.
func (s *Stage) Len() int {
	return len(s.entries)
}

// Commit renames every staged file over its target. On the first failure
// the remaining temporary files are removed and the error names the
// targets already replaced.
func (s *Stage) Commit() error {
	var done []string
	for i, e := range s.entries {
		if err := os.Rename(e.temp, e.target); err != nil {
			for _, rest := range s.entries[i:] {
				_ = os.Remove(rest.temp)
			}
			s.entries = nil
			if len(done) > 0 {
				return fmt.Errorf("failed to replace %s (already replaced: %v): %w", e.target, done, err)
			}
			return fmt.Errorf("failed to replace %s: %w", e.target, err)
		}
		done = append(done, e.target)
	}
	s.entries = nil
	return nil
}

// Discard removes every staged temporary file without touching targets.
func (s *Stage) Discard() error {
	var errs []error
	for _, e := range s.entries {
		if err := os.Remove(e.temp); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	s.entries = nil
	return errors.Join(errs...)
}
