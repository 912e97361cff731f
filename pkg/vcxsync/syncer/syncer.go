// Package syncer runs one synchronization pass: it observes the source tree
// next to a Visual C++ project, reconciles it against the recorded filters
// and rewrites both MSBuild documents.
package syncer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filelock"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/msbuild"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/reconcile"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/scanner"
)

// Options configures a sync run.
type Options struct {
	// Root is the directory holding the project and its sources.
	Root string

	// Project selects the .vcxproj file, relative to Root or absolute.
	// Empty means the single .vcxproj in Root.
	Project string

	// Exclude holds patterns added to filter.DefaultExclusions.
	Exclude []string

	// Categories overrides the classification globs. Nil uses the defaults.
	Categories filter.CategoryRules

	// DryRun computes the result without writing anything.
	DryRun bool

	// Check is a dry run that fails with ErrOutOfDate when a document would
	// change.
	Check bool

	// FollowSymlinks makes the scan descend into symlinked entries.
	FollowSymlinks bool

	// IDGenerator mints filter identifiers. Nil uses reconcile.NewGUID.
	IDGenerator reconcile.IDGenerator
}

// WrittenFile is a document replaced on disk.
type WrittenFile struct {
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

// Result describes a completed run.
type Result struct {
	Root        string
	ProjectPath string
	FiltersPath string

	// Plan is the reconciliation outcome.
	Plan *reconcile.Plan

	// FiltersSynthesized reports that the filters file did not exist.
	FiltersSynthesized bool

	// DryRun reports that nothing was written (dry run or check mode).
	DryRun bool

	// OutOfDate lists documents whose new contents differ from disk.
	OutOfDate []string

	// Written lists the documents replaced, filters first.
	Written []WrittenFile

	Elapsed time.Duration
}

// Run executes one sync pass. Failures are reported as *PhaseError.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := logging.Get("syncer")
	start := time.Now()

	// config
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, phaseErr(PhaseConfig, opts.Root, err)
	}
	matcher, err := filter.NewMatcher(filter.DefaultExclusions, opts.Exclude...)
	if err != nil {
		return nil, phaseErr(PhaseConfig, "", err)
	}
	rules := opts.Categories
	if rules == nil {
		rules = filter.DefaultCategoryRules()
	}
	classifier, err := filter.NewClassifier(rules)
	if err != nil {
		return nil, phaseErr(PhaseConfig, "", err)
	}
	recOpts := []reconcile.Option{reconcile.WithClassifier(classifier)}
	if opts.IDGenerator != nil {
		recOpts = append(recOpts, reconcile.WithIDGenerator(opts.IDGenerator))
	}
	reconciler := reconcile.New(recOpts...)

	// discovery
	projectPath, err := msbuild.FindProject(root, opts.Project)
	if err != nil {
		return nil, phaseErr(PhaseDiscovery, root, err)
	}
	filtersPath := msbuild.FiltersPath(projectPath)
	dryRun := opts.DryRun || opts.Check

	log.Debug("starting sync", "root", root, "project", projectPath, "dry_run", dryRun)

	// lock
	if !dryRun {
		lock := filelock.ForProject(root)
		if err := lock.TryLock(); err != nil {
			return nil, phaseErr(PhaseLock, lock.Path(), err)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.Warn("failed to release lock", "path", lock.Path(), "error", err)
			}
		}()
	}

	// scan
	snap, err := scanner.Scan(ctx, scanner.Options{
		Root:           root,
		Matcher:        matcher,
		FollowSymlinks: opts.FollowSymlinks,
	})
	if err != nil {
		return nil, phaseErr(PhaseScan, root, err)
	}

	// load
	if err := ctx.Err(); err != nil {
		return nil, phaseErr(PhaseLoad, "", err)
	}
	project, err := msbuild.LoadProject(projectPath)
	if err != nil {
		return nil, phaseErr(PhaseLoad, projectPath, err)
	}
	filters, err := msbuild.LoadFilters(filtersPath)
	if err != nil {
		return nil, phaseErr(PhaseLoad, filtersPath, err)
	}
	if filters.Synthesized() {
		filters.AdoptFormat(project.Document)
	}

	// reconcile
	plan, err := reconciler.Reconcile(snap, filters.Model())
	if err != nil {
		return nil, phaseErr(PhaseReconcile, filtersPath, err)
	}
	if err := plan.Model.Validate(); err != nil {
		return nil, phaseErr(PhaseReconcile, filtersPath, err)
	}
	filters.Apply(plan)
	project.ReplaceItems(plan.Items)

	result := &Result{
		Root:               root,
		ProjectPath:        projectPath,
		FiltersPath:        filtersPath,
		Plan:               plan,
		FiltersSynthesized: filters.Synthesized(),
		DryRun:             dryRun,
	}

	// write
	stage := &filelock.Stage{}
	var pending []WrittenFile
	for _, doc := range []*msbuild.Document{filters.Document, project.Document} {
		data, err := doc.Bytes()
		if err != nil {
			return nil, phaseErr(PhaseWrite, doc.Path(), err)
		}
		if doc.Unchanged(data) {
			continue
		}
		result.OutOfDate = append(result.OutOfDate, doc.Path())
		if dryRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			_ = stage.Discard()
			return nil, phaseErr(PhaseWrite, "", err)
		}
		if err := stage.Add(doc.Path(), data); err != nil {
			_ = stage.Discard()
			return nil, phaseErr(PhaseWrite, doc.Path(), err)
		}
		pending = append(pending, WrittenFile{Path: doc.Path(), Size: int64(len(data))})
	}
	if stage.Len() > 0 {
		if err := stage.Commit(); err != nil {
			return nil, phaseErr(PhaseWrite, projectPath, err)
		}
		result.Written = pending
	}

	result.Elapsed = time.Since(start)

	log.Info("sync complete",
		"project", projectPath,
		"groups_added", len(plan.AddedGroups),
		"groups_removed", len(plan.RemovedGroups),
		"files_added", len(plan.AddedFiles),
		"files_removed", len(plan.RemovedFiles),
		"regrouped", len(plan.Regrouped),
		"reclassified", len(plan.Reclassified),
		"written", len(result.Written),
		"dry_run", dryRun,
		"elapsed", result.Elapsed)

	if opts.Check && len(result.OutOfDate) > 0 {
		return result, ErrOutOfDate
	}
	return result, nil
}
