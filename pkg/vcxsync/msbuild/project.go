package msbuild

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/manifest"
)

// cppTargetsSuffix identifies the import after which items must not appear.
const cppTargetsSuffix = "Microsoft.Cpp.targets"

// projectConfigurationsLabel labels the ItemGroup holding build configurations.
const projectConfigurationsLabel = "ProjectConfigurations"

// ProjectDocument is a .vcxproj file.
type ProjectDocument struct {
	*Document
}

// LoadProject parses the project file at path.
func LoadProject(path string) (*ProjectDocument, error) {
	d, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return &ProjectDocument{Document: d}, nil
}

// ReplaceItems removes every generated ItemGroup and inserts one ItemGroup
// per non-empty category of items, in category order. Configuration and
// project-reference groups are kept. The new groups take the place of the
// first removed group; without one they go before the C++ targets import,
// or at the end of the project. It returns the number of groups removed.
func (p *ProjectDocument) ReplaceItems(items []manifest.FileEntry) int {
	root := p.Root()

	insertAt := -1
	removed := 0
	for _, g := range p.itemGroups() {
		if preservedItemGroup(g) {
			continue
		}
		if insertAt < 0 {
			insertAt = g.Index()
		}
		root.RemoveChild(g)
		removed++
	}

	if insertAt < 0 {
		insertAt = cppTargetsImportIndex(root)
	}

	for _, cat := range filter.Categories {
		var group *etree.Element
		for _, it := range items {
			if it.Category != cat {
				continue
			}
			if group == nil {
				group = etree.NewElement(elemItemGroup)
			}
			e := group.CreateElement(cat.ElementName())
			e.CreateAttr(attrInclude, it.Path)
		}
		if group == nil {
			continue
		}
		root.InsertChildAt(insertAt, group)
		insertAt = group.Index() + 1
	}

	logging.Get("msbuild").Debug("replaced project items",
		"path", p.Path(), "removed_groups", removed, "items", len(items))

	return removed
}

// preservedItemGroup reports whether g is not generated by the sync.
func preservedItemGroup(g *etree.Element) bool {
	if g.SelectAttrValue(attrLabel, "") == projectConfigurationsLabel {
		return true
	}
	return g.SelectElement(elemProjectReference) != nil
}

// cppTargetsImportIndex returns the child index of the last
// Microsoft.Cpp.targets import, or the end of root.
func cppTargetsImportIndex(root *etree.Element) int {
	index := len(root.Child)
	for _, imp := range root.SelectElements(elemImport) {
		if strings.HasSuffix(imp.SelectAttrValue(attrProject, ""), cppTargetsSuffix) {
			index = imp.Index()
		}
	}
	return index
}
