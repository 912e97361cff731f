package msbuild

import (
	"errors"
	"io/fs"

	"github.com/beevik/etree"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/manifest"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/reconcile"
)

// skeletonToolsVersion is the ToolsVersion of a synthesized filters file.
const skeletonToolsVersion = "4.0"

// FiltersDocument is a .vcxproj.filters file.
type FiltersDocument struct {
	*Document
	synthesized bool
}

// LoadFilters parses the filters file at path. A missing file yields a
// synthesized skeleton with a filter group and an item group.
func LoadFilters(path string) (*FiltersDocument, error) {
	d, err := readDocument(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Get("msbuild").Info("filters file missing, starting from skeleton", "path", path)
		return NewFilters(path), nil
	}
	if err != nil {
		return nil, err
	}
	return &FiltersDocument{Document: d}, nil
}

// NewFilters returns an empty filters document to be written at path.
func NewFilters(path string) *FiltersDocument {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement(elemProject)
	root.CreateAttr(attrToolsVersion, skeletonToolsVersion)
	root.CreateAttr(attrXmlns, Namespace)
	root.CreateElement(elemItemGroup)
	root.CreateElement(elemItemGroup)

	d := newDocument(path, doc)
	d.bom = true
	d.crlf = true
	return &FiltersDocument{Document: d, synthesized: true}
}

// Synthesized reports whether the document was created rather than loaded.
func (f *FiltersDocument) Synthesized() bool {
	return f.synthesized
}

// Model reads the recorded groups and files. Filter elements in any
// ItemGroup are groups; other elements carrying an Include attribute are
// files, grouped by their <Filter> child.
func (f *FiltersDocument) Model() *manifest.Model {
	m := manifest.New()
	for _, g := range f.itemGroups() {
		for _, e := range g.ChildElements() {
			include := e.SelectAttrValue(attrInclude, "")
			if include == "" {
				continue
			}
			if e.Tag == elemFilter {
				m.AddGroup(manifest.GroupEntry{Path: include, ID: childText(e, elemUniqueIdentifier)})
				continue
			}
			group := manifest.Ungrouped()
			if fe := e.SelectElement(elemFilter); fe != nil {
				group = manifest.InGroup(fe.Text())
			}
			m.AddFile(manifest.FileEntry{
				Path:     include,
				Group:    group,
				Category: filter.CategoryFromElement(e.Tag),
			})
		}
	}
	return m
}

// Apply patches the document with plan. Removed groups and files are
// deleted, surviving entries are updated in place, and new entries are
// appended to the ItemGroup already holding their kind of element.
func (f *FiltersDocument) Apply(plan *reconcile.Plan) {
	removedGroups := toSet(plan.RemovedGroups)
	removedFiles := toSet(plan.RemovedFiles)

	groups := make(map[string]*etree.Element)
	files := make(map[string]*etree.Element)
	for _, g := range f.itemGroups() {
		for _, e := range g.ChildElements() {
			include := e.SelectAttrValue(attrInclude, "")
			if include == "" {
				continue
			}
			if e.Tag == elemFilter {
				if _, gone := removedGroups[include]; gone {
					g.RemoveChild(e)
					continue
				}
				groups[include] = e
				continue
			}
			if _, gone := removedFiles[include]; gone {
				g.RemoveChild(e)
				continue
			}
			files[include] = e
		}
	}

	if len(plan.AddedGroups) > 0 {
		fg := f.filterGroup()
		for _, ge := range plan.AddedGroups {
			e := fg.CreateElement(elemFilter)
			e.CreateAttr(attrInclude, ge.Path)
			e.CreateElement(elemUniqueIdentifier).SetText(ge.ID)
		}
	}

	for _, ch := range plan.Reidentified {
		e, ok := groups[ch.Path]
		if !ok {
			continue
		}
		if id := e.SelectElement(elemUniqueIdentifier); id != nil {
			id.SetText(ch.To)
		} else {
			e.CreateElement(elemUniqueIdentifier).SetText(ch.To)
		}
	}

	for _, ch := range plan.Regrouped {
		if e, ok := files[ch.Path]; ok {
			setGroup(e, ch.To)
		}
	}

	for _, ch := range plan.Reclassified {
		if e, ok := files[ch.Path]; ok {
			e.Tag = ch.To.ElementName()
		}
	}

	for _, fe := range plan.AddedFiles {
		g := f.itemGroupFor(fe.Category)
		e := g.CreateElement(fe.Category.ElementName())
		e.CreateAttr(attrInclude, fe.Path)
		setGroup(e, fe.Group)
	}

	logging.Get("msbuild").Debug("patched filters",
		"path", f.Path(),
		"groups_added", len(plan.AddedGroups),
		"groups_removed", len(plan.RemovedGroups),
		"files_added", len(plan.AddedFiles),
		"files_removed", len(plan.RemovedFiles),
		"regrouped", len(plan.Regrouped),
		"reclassified", len(plan.Reclassified),
		"reidentified", len(plan.Reidentified))
}

// filterGroup returns the ItemGroup new Filter elements go into: the first
// one already holding a Filter, else the first empty one, else a new group
// placed before every other ItemGroup.
func (f *FiltersDocument) filterGroup() *etree.Element {
	if g := f.findFilterGroup(); g != nil {
		return g
	}

	g := etree.NewElement(elemItemGroup)
	root := f.Root()
	if groups := f.itemGroups(); len(groups) > 0 {
		root.InsertChildAt(groups[0].Index(), g)
	} else {
		root.AddChild(g)
	}
	return g
}

func (f *FiltersDocument) findFilterGroup() *etree.Element {
	groups := f.itemGroups()
	for _, g := range groups {
		if g.SelectElement(elemFilter) != nil {
			return g
		}
	}
	for _, g := range groups {
		if len(g.ChildElements()) == 0 {
			return g
		}
	}
	return nil
}

// itemGroupFor returns the ItemGroup a new file of category cat goes into:
// the first one already holding that element kind, else the first one
// without Filter elements, else a new group at the end of the project.
func (f *FiltersDocument) itemGroupFor(cat filter.Category) *etree.Element {
	fg := f.findFilterGroup()

	var fallback *etree.Element
	for _, g := range f.itemGroups() {
		if g == fg || g.SelectElement(elemFilter) != nil {
			continue
		}
		if g.SelectElement(cat.ElementName()) != nil {
			return g
		}
		if fallback == nil {
			fallback = g
		}
	}
	if fallback != nil {
		return fallback
	}
	return f.Root().CreateElement(elemItemGroup)
}

// setGroup makes e's <Filter> child match ref.
func setGroup(e *etree.Element, ref manifest.GroupRef) {
	existing := e.SelectElement(elemFilter)
	path, ok := ref.Get()
	switch {
	case !ok:
		if existing != nil {
			e.RemoveChild(existing)
		}
	case existing == nil:
		e.CreateElement(elemFilter).SetText(path)
	default:
		existing.SetText(path)
	}
}

func childText(e *etree.Element, tag string) string {
	if c := e.SelectElement(tag); c != nil {
		return c.Text()
	}
	return ""
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
