// Package reconcile computes how a project's recorded groups and files must
// change to match a fresh scan of its source tree.
//
// Reconciliation is keyed by exact path. Groups present both in the record
// and on disk keep their identifiers; groups that disappeared are dropped
// and their identifiers are never reused; new directories get freshly
// minted identifiers. Tracked files follow their directory: their group is
// always the directory they were observed in.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/manifest"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/scanner"
)

// maxMintAttempts bounds identifier re-minting on collision.
const maxMintAttempts = 16

// ErrNilSnapshot indicates that Reconcile was called without a snapshot.
var ErrNilSnapshot = errors.New("snapshot is required")

// ErrIDExhausted indicates that the identifier generator kept producing
// identifiers already in use.
var ErrIDExhausted = errors.New("could not mint a unique group identifier")

// IDGenerator produces group identifiers.
type IDGenerator func() string

// NewGUID returns a brace-wrapped upper-case random UUID, the identifier
// format Visual Studio writes for filters.
func NewGUID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}

// CategoryChange records a tracked file whose category no longer matches
// the classification rules.
type CategoryChange struct {
	Path string
	From filter.Category
	To   filter.Category
}

// IDChange records a surviving group given a new identifier because its
// recorded one was empty or shared with another group.
type IDChange struct {
	Path string
	From string
	To   string
}

// Reconciler diffs snapshots against recorded manifests.
type Reconciler struct {
	newID      IDGenerator
	classifier *filter.Classifier
}

// Option is a functional option for configuring a Reconciler.
type Option func(*Reconciler)

// WithIDGenerator replaces the identifier generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(r *Reconciler) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithClassifier replaces the category classifier.
func WithClassifier(c *filter.Classifier) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.classifier = c
		}
	}
}

// New creates a Reconciler. Defaults: NewGUID and the built-in category rules.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{newID: NewGUID}
	for _, opt := range opts {
		opt(r)
	}
	if r.classifier == nil {
		c, err := filter.NewClassifier(filter.DefaultCategoryRules())
		if err != nil {
			panic(fmt.Sprintf("reconcile: default category rules: %v", err))
		}
		r.classifier = c
	}
	return r
}

// Reconcile compares snap with old and returns the plan that brings the
// manifest in line with the tree. old is not modified; a nil old is
// treated as an empty manifest.
func (r *Reconciler) Reconcile(snap *scanner.Snapshot, old *manifest.Model) (*Plan, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	if old == nil {
		old = manifest.New()
	}

	plan := &Plan{Model: manifest.New()}

	if err := r.reconcileGroups(plan, snap, old); err != nil {
		return nil, err
	}
	r.reconcileFiles(plan, snap, old)
	plan.Items = buildItems(plan.Model)

	logging.Get("reconcile").Debug("reconciled",
		"groups_added", len(plan.AddedGroups),
		"groups_removed", len(plan.RemovedGroups),
		"files_added", len(plan.AddedFiles),
		"files_removed", len(plan.RemovedFiles),
		"regrouped", len(plan.Regrouped),
		"reclassified", len(plan.Reclassified),
		"reidentified", len(plan.Reidentified))

	return plan, nil
}

// reconcileGroups carries over surviving groups, drops stale ones and
// mints identifiers for new directories. A surviving group whose
// identifier is empty or already held by an earlier surviving group gets a
// fresh one.
func (r *Reconciler) reconcileGroups(plan *Plan, snap *scanner.Snapshot, old *manifest.Model) error {
	// Identifiers of dropped groups stay reserved.
	used := old.IDs()
	kept := make(map[string]struct{}, len(old.Groups))

	for _, path := range old.GroupPaths() {
		if _, ok := snap.Directories[path]; !ok {
			plan.RemovedGroups = append(plan.RemovedGroups, path)
			continue
		}

		g := old.Groups[path]
		key := strings.ToUpper(g.ID)
		if _, dup := kept[key]; dup || g.ID == "" {
			id, err := r.mint(used)
			if err != nil {
				return fmt.Errorf("group %q: %w", path, err)
			}
			plan.Reidentified = append(plan.Reidentified, IDChange{Path: path, From: g.ID, To: id})
			g.ID = id
			key = strings.ToUpper(id)
		}
		kept[key] = struct{}{}
		plan.Model.AddGroup(g)
	}

	for _, path := range snap.DirectoryPaths() {
		if _, ok := old.Groups[path]; ok {
			continue
		}
		id, err := r.mint(used)
		if err != nil {
			return fmt.Errorf("group %q: %w", path, err)
		}
		g := manifest.GroupEntry{Path: path, ID: id}
		plan.Model.AddGroup(g)
		plan.AddedGroups = append(plan.AddedGroups, g)
	}

	return nil
}

// reconcileFiles updates tracked files and adds newly observed ones.
func (r *Reconciler) reconcileFiles(plan *Plan, snap *scanner.Snapshot, old *manifest.Model) {
	for _, path := range old.FilePaths() {
		observed, ok := snap.Files[path]
		if !ok {
			plan.RemovedFiles = append(plan.RemovedFiles, path)
			continue
		}

		entry := old.Files[path]
		if kind, changed := compareGroups(entry.Group, observed); changed {
			plan.Regrouped = append(plan.Regrouped, GroupChange{
				Path: path,
				From: entry.Group,
				To:   observed,
				Kind: kind,
			})
		}
		entry.Group = observed

		if cat := r.classifier.Classify(path); cat != entry.Category {
			plan.Reclassified = append(plan.Reclassified, CategoryChange{
				Path: path,
				From: entry.Category,
				To:   cat,
			})
			entry.Category = cat
		}

		plan.Model.AddFile(entry)
	}

	for _, path := range snap.FilePaths() {
		if _, ok := old.Files[path]; ok {
			continue
		}
		entry := manifest.FileEntry{
			Path:     path,
			Group:    snap.Files[path],
			Category: r.classifier.Classify(path),
		}
		plan.Model.AddFile(entry)
		plan.AddedFiles = append(plan.AddedFiles, entry)
	}
}

// mint returns an identifier not present in used and reserves it.
func (r *Reconciler) mint(used map[string]struct{}) (string, error) {
	for range maxMintAttempts {
		id := r.newID()
		if _, taken := used[id]; taken || id == "" {
			continue
		}
		used[id] = struct{}{}
		return id, nil
	}
	return "", ErrIDExhausted
}

// compareGroups classifies the difference between a recorded and an
// observed group assignment.
func compareGroups(recorded, observed manifest.GroupRef) (ChangeKind, bool) {
	recPath, recSet := recorded.Get()
	obsPath, obsSet := observed.Get()

	switch {
	case !recSet && !obsSet:
		return 0, false
	case !recSet && obsSet:
		return GroupAdded, true
	case recSet && !obsSet:
		return GroupRemoved, true
	case recPath != obsPath:
		return GroupMoved, true
	default:
		return 0, false
	}
}

// buildItems partitions every file of m by category, path-sorted per bucket.
func buildItems(m *manifest.Model) []manifest.FileEntry {
	paths := m.FilePaths()
	items := make([]manifest.FileEntry, 0, len(paths))
	for _, cat := range filter.Categories {
		for _, path := range paths {
			if f := m.Files[path]; f.Category == cat {
				items = append(items, f)
			}
		}
	}
	return items
}
