package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/manifest"
)

// Snapshot is the observed layout of a source tree.
type Snapshot struct {
	// Root is the absolute path that was scanned.
	Root string

	// Directories holds every recorded directory path.
	Directories map[string]struct{}

	// Files maps each recorded file path to its containing directory,
	// or to an unset GroupRef for files at the root.
	Files map[string]manifest.GroupRef
}

// NewSnapshot returns an empty snapshot for root.
func NewSnapshot(root string) *Snapshot {
	return &Snapshot{
		Root:        root,
		Directories: make(map[string]struct{}),
		Files:       make(map[string]manifest.GroupRef),
	}
}

// DirectoryPaths returns the recorded directories in sorted order.
func (s *Snapshot) DirectoryPaths() []string {
	paths := make([]string, 0, len(s.Directories))
	for p := range s.Directories {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FilePaths returns the recorded files in sorted order.
func (s *Snapshot) FilePaths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Scanner walks a single tree. It is not reusable.
type Scanner struct {
	opts Options
	root string
	snap *Snapshot

	// fastwalk invokes the callback from its worker goroutines.
	mu sync.Mutex
}

// New creates a Scanner with the given options.
func New(opts Options) (*Scanner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{opts: opts}, nil
}

// Scan walks the tree and returns its snapshot. The first traversal error
// aborts the walk and is returned with the offending path.
func Scan(ctx context.Context, opts Options) (*Snapshot, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx)
}

// Scan performs the walk.
func (s *Scanner) Scan(ctx context.Context) (*Snapshot, error) {
	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root
	s.snap = NewSnapshot(root)

	logger := logging.Get("scanner")
	logger.Debug("scan started", "root", root)

	conf := fastwalk.Config{
		Follow:     s.opts.FollowSymlinks,
		NumWorkers: 1,
	}
	if err := fastwalk.Walk(&conf, root, s.walkCallback(ctx)); err != nil {
		return nil, err
	}

	logger.Debug("scan finished", "root", root,
		"dirs", len(s.snap.Directories), "files", len(s.snap.Files))

	return s.snap, nil
}

// validateRoot resolves the root path to absolute and verifies it is a directory.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", s.opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &fs.PathError{Op: "scan", Path: root, Err: os.ErrInvalid}
	}

	return root, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return &fs.PathError{Op: "scan", Path: path, Err: err}
		}

		rel, err := s.relative(path)
		if err != nil {
			return err
		}
		if rel == "" {
			return nil // the root itself
		}

		isDir := d.IsDir()
		isLink := d.Type()&fs.ModeSymlink != 0
		if isLink {
			// Links are recorded by what they point at. A dangling link is
			// a file; unless following, a linked directory is not descended.
			info, statErr := os.Stat(path)
			switch {
			case statErr == nil:
				isDir = info.IsDir()
			case s.opts.FollowSymlinks && !errors.Is(statErr, fs.ErrNotExist):
				return &fs.PathError{Op: "scan", Path: path, Err: statErr}
			}
		}

		if s.opts.Matcher.Excluded(d.Name()) {
			if isDir {
				return fastwalk.SkipDir
			}
			return nil
		}

		if isDir {
			s.addDirectory(rel)
			return nil
		}

		if d.Type().IsRegular() || d.Type()&fs.ModeSymlink != 0 {
			s.addFile(rel)
		}

		return nil
	}
}

// relative converts a walked path into a root-relative path using the
// configured separator. The root maps to "".
func (s *Scanner) relative(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", fmt.Errorf("relativising %s: %w", path, err)
	}
	if rel == "." {
		return "", nil
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return strings.Join(parts, string(s.opts.Separator)), nil
}

func (s *Scanner) addDirectory(rel string) {
	s.mu.Lock()
	s.snap.Directories[rel] = struct{}{}
	s.mu.Unlock()
}

func (s *Scanner) addFile(rel string) {
	group := manifest.Ungrouped()
	if i := strings.LastIndex(rel, string(s.opts.Separator)); i >= 0 {
		group = manifest.InGroup(rel[:i])
	}

	s.mu.Lock()
	s.snap.Files[rel] = group
	s.mu.Unlock()
}
