// Package manifest holds the in-memory model of a project's filter
// document: the known directory groups with their stable identifiers, and
// each tracked file with its group assignment and build category.
package manifest

import "github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"

// GroupRef is an optional group assignment. The zero value is ungrouped.
type GroupRef struct {
	path string
	set  bool
}

// Ungrouped returns a GroupRef with no group.
func Ungrouped() GroupRef {
	return GroupRef{}
}

// InGroup returns a GroupRef naming the group at path.
func InGroup(path string) GroupRef {
	return GroupRef{path: path, set: true}
}

// Get returns the group path and whether one is set.
func (g GroupRef) Get() (string, bool) {
	return g.path, g.set
}

// IsSet reports whether a group is assigned.
func (g GroupRef) IsSet() bool {
	return g.set
}

// Equal reports whether both refs are unset, or both name the same group.
func (g GroupRef) Equal(other GroupRef) bool {
	if g.set != other.set {
		return false
	}
	return !g.set || g.path == other.path
}

// String returns the group path, or "" when ungrouped.
func (g GroupRef) String() string {
	return g.path
}

// GroupEntry is a directory group ("filter") and its identifier.
type GroupEntry struct {
	Path string
	ID   string
}

// FileEntry is a tracked file.
type FileEntry struct {
	Path     string
	Group    GroupRef
	Category filter.Category
}
