package manifest

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownGroup indicates that a file references a group the model does
// not contain.
var ErrUnknownGroup = errors.New("file references unknown group")

// ErrDuplicateID indicates that two groups share an identifier.
var ErrDuplicateID = errors.New("duplicate group identifier")

// ErrMissingID indicates that a group has no identifier.
var ErrMissingID = errors.New("missing group identifier")

// Model is the recorded state of a project's groups and files.
type Model struct {
	Groups map[string]GroupEntry
	Files  map[string]FileEntry
}

// New returns an empty model.
func New() *Model {
	return &Model{
		Groups: make(map[string]GroupEntry),
		Files:  make(map[string]FileEntry),
	}
}

// AddGroup records g, replacing any group with the same path.
func (m *Model) AddGroup(g GroupEntry) {
	m.Groups[g.Path] = g
}

// AddFile records f, replacing any file with the same path.
func (m *Model) AddFile(f FileEntry) {
	m.Files[f.Path] = f
}

// GroupPaths returns the group paths in sorted order.
func (m *Model) GroupPaths() []string {
	return sortedKeys(m.Groups)
}

// FilePaths returns the file paths in sorted order.
func (m *Model) FilePaths() []string {
	return sortedKeys(m.Files)
}

// IDs returns the set of identifiers in use.
func (m *Model) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(m.Groups))
	for _, g := range m.Groups {
		ids[g.ID] = struct{}{}
	}
	return ids
}

// Validate checks that every group has an identifier, that identifiers are
// unique and that every file group names a known group.
func (m *Model) Validate() error {
	seen := make(map[string]string, len(m.Groups))
	for _, path := range m.GroupPaths() {
		id := m.Groups[path].ID
		if id == "" {
			return fmt.Errorf("%w: %q", ErrMissingID, path)
		}
		if other, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s used by %q and %q", ErrDuplicateID, id, other, path)
		}
		seen[id] = path
	}

	for _, path := range m.FilePaths() {
		group, ok := m.Files[path].Group.Get()
		if !ok {
			continue
		}
		if _, known := m.Groups[group]; !known {
			return fmt.Errorf("%w: %q in group %q", ErrUnknownGroup, path, group)
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
