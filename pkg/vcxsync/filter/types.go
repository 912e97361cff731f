// Package filter decides which names in a source tree take part in a
// project sync and which build bucket each file belongs to. Exclusion rules
// are anchored regular expressions tested against bare names; category rules
// are glob patterns keyed by Category.
package filter

// Category is the build bucket a file is written into.
type Category int

const (
	// CategoryCompile is a translation unit (ClCompile).
	CategoryCompile Category = iota
	// CategoryInclude is a header (ClInclude).
	CategoryInclude
	// CategoryOther is anything else (None).
	CategoryOther
)

// Category string constants.
const (
	categoryCompile = "compile"
	categoryInclude = "include"
	categoryOther   = "other"
)

// MSBuild item element names for each category.
const (
	ElementCompile = "ClCompile"
	ElementInclude = "ClInclude"
	ElementOther   = "None"
)

// Categories lists every category in bucket order.
var Categories = []Category{CategoryCompile, CategoryInclude, CategoryOther}

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryCompile:
		return categoryCompile
	case CategoryInclude:
		return categoryInclude
	default:
		return categoryOther
	}
}

// ElementName returns the MSBuild item element used for the category.
func (c Category) ElementName() string {
	switch c {
	case CategoryCompile:
		return ElementCompile
	case CategoryInclude:
		return ElementInclude
	default:
		return ElementOther
	}
}

// CategoryFromElement maps an MSBuild item element name back to a category.
// Unknown element names map to CategoryOther.
func CategoryFromElement(name string) Category {
	switch name {
	case ElementCompile:
		return CategoryCompile
	case ElementInclude:
		return CategoryInclude
	default:
		return CategoryOther
	}
}

// CategoryRules maps a category to the glob patterns selecting it.
// CategoryOther needs no rules; it is the fallback.
type CategoryRules map[Category][]string

// DefaultCategoryRules returns the built-in suffix table.
func DefaultCategoryRules() CategoryRules {
	return CategoryRules{
		CategoryCompile: {"*.c", "*.cc", "*.cpp", "*.cxx"},
		CategoryInclude: {"*.h", "*.hh", "*.hpp", "*.hxx", "*.inl"},
	}
}

// DefaultExclusions are the names never synced: IDE state, build output
// directories and the project files themselves.
var DefaultExclusions = []string{
	`\.git`,
	`\.vs`,
	`x86`,
	`x64`,
	`out`,
	`[Bb]uild`,
	`[Dd]ebug`,
	`[Rr]elease`,
	`.*\.vcxproj`,
	`.*\.vcxproj\.filters`,
	`.*\.vcxproj\.user`,
	`\.vcxsync\.lock`,
	`\.tmp-vcxsync-.*`,
}
