package reconcile

import (
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/manifest"
)

// ChangeKind describes how a tracked file's group assignment changed.
type ChangeKind int

const (
	// GroupAdded means an ungrouped file gained a group.
	GroupAdded ChangeKind = iota
	// GroupRemoved means a grouped file lost its group.
	GroupRemoved
	// GroupMoved means a file moved from one group to another.
	GroupMoved
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case GroupAdded:
		return "added"
	case GroupRemoved:
		return "removed"
	case GroupMoved:
		return "moved"
	default:
		return "unknown"
	}
}

// GroupChange is a group update for a file tracked before and after the run.
type GroupChange struct {
	Path string
	From manifest.GroupRef
	To   manifest.GroupRef
	Kind ChangeKind
}

// Plan is the outcome of a reconciliation. Every slice is sorted by path.
type Plan struct {
	// Model is the reconciled manifest.
	Model *manifest.Model

	// AddedGroups are groups minted for newly observed directories.
	AddedGroups []manifest.GroupEntry

	// RemovedGroups are paths of groups whose directory is gone.
	RemovedGroups []string

	// AddedFiles are newly tracked files.
	AddedFiles []manifest.FileEntry

	// RemovedFiles are paths of files no longer present.
	RemovedFiles []string

	// Regrouped are tracked files whose group assignment changed.
	Regrouped []GroupChange

	// Reclassified are tracked files whose category changed under the
	// current classification rules.
	Reclassified []CategoryChange

	// Reidentified are surviving groups whose identifier was replaced.
	Reidentified []IDChange

	// Items is the build list: every current file, partitioned by category
	// in filter.Categories order and sorted by path within each bucket.
	Items []manifest.FileEntry
}

// Changed reports whether the manifest differs from the one reconciled.
func (p *Plan) Changed() bool {
	return len(p.AddedGroups) > 0 ||
		len(p.RemovedGroups) > 0 ||
		len(p.AddedFiles) > 0 ||
		len(p.RemovedFiles) > 0 ||
		len(p.Regrouped) > 0 ||
		len(p.Reclassified) > 0 ||
		len(p.Reidentified) > 0
}

// BucketCounts returns the number of build list entries per category.
func (p *Plan) BucketCounts() map[filter.Category]int {
	counts := make(map[filter.Category]int, len(filter.Categories))
	for _, it := range p.Items {
		counts[it.Category]++
	}
	return counts
}
