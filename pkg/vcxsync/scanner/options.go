// Package scanner walks a project's source tree and records which
// directories and files it contains, pruning excluded names as it goes.
package scanner

import (
	"errors"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
)

// DefaultSeparator is the separator used in recorded paths. MSBuild
// documents use backslashes regardless of host platform.
const DefaultSeparator = '\\'

// ErrNoRoot indicates that Options.Root was empty.
var ErrNoRoot = errors.New("scan root is required")

// Options configures a scan.
type Options struct {
	// Root is the directory to scan. Recorded paths are relative to it.
	Root string

	// Matcher prunes excluded directories and skips excluded files.
	// A nil matcher excludes nothing.
	Matcher *filter.Matcher

	// Separator joins path elements in recorded paths.
	// Zero means DefaultSeparator.
	Separator rune

	// FollowSymlinks descends into symlinked directories. Without it a
	// symlinked directory is recorded but not descended. Symlinked files,
	// dangling ones included, are always recorded.
	FollowSymlinks bool
}

// Validate checks the options and applies defaults.
func (o *Options) Validate() error {
	if o.Root == "" {
		return ErrNoRoot
	}
	if o.Separator == 0 {
		o.Separator = DefaultSeparator
	}
	return nil
}
