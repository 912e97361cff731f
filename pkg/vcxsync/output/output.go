// Package output renders sync results in several formats.
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/syncer"
)

// logger for the output package.
var logger = logging.Get("output")

// GroupInfo is a group added by a run.
type GroupInfo struct {
	Path string `json:"path" yaml:"path"`
	ID   string `json:"id" yaml:"id"`
}

// FileInfo is a file added by a run.
type FileInfo struct {
	Path     string `json:"path" yaml:"path"`
	Group    string `json:"group,omitempty" yaml:"group,omitempty"`
	Category string `json:"category" yaml:"category"`
}

// ChangeInfo is an in-place change to a tracked entry. For regrouped files
// From and To are group paths, empty meaning ungrouped. For reclassified
// files they are category names; for reidentified groups, identifiers.
type ChangeInfo struct {
	Path string `json:"path" yaml:"path"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// BucketCounts holds the number of build list entries per category.
type BucketCounts struct {
	Compile int `json:"compile" yaml:"compile"`
	Include int `json:"include" yaml:"include"`
	Other   int `json:"other" yaml:"other"`
}

// Total returns the size of the build list.
func (b BucketCounts) Total() int {
	return b.Compile + b.Include + b.Other
}

// WrittenInfo is a document replaced on disk.
type WrittenInfo struct {
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

// Report is the renderable view of a sync result.
type Report struct {
	Root           string        `json:"root" yaml:"root"`
	Project        string        `json:"project" yaml:"project"`
	Filters        string        `json:"filters" yaml:"filters"`
	DryRun         bool          `json:"dry_run" yaml:"dry_run"`
	FiltersCreated bool          `json:"filters_created" yaml:"filters_created"`
	GroupsAdded    []GroupInfo   `json:"groups_added" yaml:"groups_added"`
	GroupsRemoved  []string      `json:"groups_removed" yaml:"groups_removed"`
	FilesAdded     []FileInfo    `json:"files_added" yaml:"files_added"`
	FilesRemoved   []string      `json:"files_removed" yaml:"files_removed"`
	Regrouped      []ChangeInfo  `json:"regrouped" yaml:"regrouped"`
	Reclassified   []ChangeInfo  `json:"reclassified" yaml:"reclassified"`
	Reidentified   []ChangeInfo  `json:"reidentified" yaml:"reidentified"`
	Buckets        BucketCounts  `json:"buckets" yaml:"buckets"`
	OutOfDate      []string      `json:"out_of_date" yaml:"out_of_date"`
	Written        []WrittenInfo `json:"written" yaml:"written"`
	Elapsed        string        `json:"elapsed" yaml:"elapsed"`

	// Duration is the raw elapsed time. Elapsed holds its rendering.
	Duration time.Duration `json:"-" yaml:"-"`
}

// FromResult builds a Report from a sync result. Slices are never nil so
// that encoded reports always carry every key.
func FromResult(res *syncer.Result) *Report {
	r := &Report{
		Root:           res.Root,
		Project:        res.ProjectPath,
		Filters:        res.FiltersPath,
		DryRun:         res.DryRun,
		FiltersCreated: res.FiltersSynthesized,
		GroupsAdded:    []GroupInfo{},
		GroupsRemoved:  []string{},
		FilesAdded:     []FileInfo{},
		FilesRemoved:   []string{},
		Regrouped:      []ChangeInfo{},
		Reclassified:   []ChangeInfo{},
		Reidentified:   []ChangeInfo{},
		OutOfDate:      append([]string{}, res.OutOfDate...),
		Written:        make([]WrittenInfo, 0, len(res.Written)),
		Elapsed:        formatDuration(res.Elapsed),
		Duration:       res.Elapsed,
	}

	for _, w := range res.Written {
		r.Written = append(r.Written, WrittenInfo{Path: w.Path, Size: w.Size})
	}

	plan := res.Plan
	if plan == nil {
		return r
	}

	for _, g := range plan.AddedGroups {
		r.GroupsAdded = append(r.GroupsAdded, GroupInfo{Path: g.Path, ID: g.ID})
	}
	r.GroupsRemoved = append(r.GroupsRemoved, plan.RemovedGroups...)
	for _, f := range plan.AddedFiles {
		r.FilesAdded = append(r.FilesAdded, FileInfo{
			Path:     f.Path,
			Group:    f.Group.String(),
			Category: f.Category.String(),
		})
	}
	r.FilesRemoved = append(r.FilesRemoved, plan.RemovedFiles...)
	for _, c := range plan.Regrouped {
		r.Regrouped = append(r.Regrouped, ChangeInfo{
			Path: c.Path,
			From: c.From.String(),
			To:   c.To.String(),
			Kind: c.Kind.String(),
		})
	}
	for _, c := range plan.Reclassified {
		r.Reclassified = append(r.Reclassified, ChangeInfo{
			Path: c.Path,
			From: c.From.String(),
			To:   c.To.String(),
		})
	}
	for _, c := range plan.Reidentified {
		r.Reidentified = append(r.Reidentified, ChangeInfo{Path: c.Path, From: c.From, To: c.To})
	}

	counts := plan.BucketCounts()
	r.Buckets = BucketCounts{
		Compile: counts[filter.CategoryCompile],
		Include: counts[filter.CategoryInclude],
		Other:   counts[filter.CategoryOther],
	}
	return r
}

// Changed reports whether the run altered the manifest.
func (r *Report) Changed() bool {
	return len(r.GroupsAdded) > 0 ||
		len(r.GroupsRemoved) > 0 ||
		len(r.FilesAdded) > 0 ||
		len(r.FilesRemoved) > 0 ||
		len(r.Regrouped) > 0 ||
		len(r.Reclassified) > 0 ||
		len(r.Reidentified) > 0
}

// TotalWritten returns the number of bytes written.
func (r *Report) TotalWritten() int64 {
	var total int64
	for _, w := range r.Written {
		total += w.Size
	}
	return total
}

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages available output formatters.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	logger.Debug("registered formatter", "name", name)
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of available formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns the formatter names in the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// formatDuration renders d with precision suited to its magnitude.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}
