// Package msbuild reads and rewrites the two MSBuild documents of a Visual
// C++ project: the .vcxproj project file, whose generated item groups are
// replaced wholesale, and the .vcxproj.filters file, which is patched in
// place so that nodes the tool does not own survive untouched.
package msbuild

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// Namespace is the MSBuild 2003 XML namespace.
const Namespace = "http://schemas.microsoft.com/developer/msbuild/2003"

// Element and attribute names used across both documents.
const (
	elemProject          = "Project"
	elemItemGroup        = "ItemGroup"
	elemFilter           = "Filter"
	elemUniqueIdentifier = "UniqueIdentifier"
	elemProjectReference = "ProjectReference"
	elemImport           = "Import"
	attrInclude          = "Include"
	attrLabel            = "Label"
	attrProject          = "Project"
	attrToolsVersion     = "ToolsVersion"
	attrXmlns            = "xmlns"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNotProject indicates that a document's root element is not <Project>.
var ErrNotProject = errors.New("root element is not <Project>")

// Document is a parsed MSBuild document together with the formatting
// details needed to write it back the way Visual Studio does.
type Document struct {
	path string
	doc  *etree.Document
	raw  []byte
	bom  bool
	crlf bool
}

// newDocument wraps doc with the write settings shared by both documents.
func newDocument(path string, doc *etree.Document) *Document {
	doc.WriteSettings.CanonicalAttrVal = true
	doc.WriteSettings.CanonicalText = true
	return &Document{path: path, doc: doc}
}

// readDocument parses the MSBuild document at path.
func readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	d := newDocument(path, etree.NewDocument())
	d.raw = data
	d.bom = bytes.HasPrefix(data, utf8BOM)
	d.crlf = bytes.Contains(data, []byte("\r\n"))

	if err := d.doc.ReadFromBytes(bytes.TrimPrefix(data, utf8BOM)); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	root := d.doc.Root()
	if root == nil || root.Tag != elemProject {
		return nil, fmt.Errorf("%s: %w", path, ErrNotProject)
	}

	return d, nil
}

// Path returns the file the document was loaded from or will be written to.
func (d *Document) Path() string {
	return d.path
}

// Root returns the <Project> element.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// Bytes serializes the document: an XML declaration, tab indentation, and
// the byte-order mark and line endings of the original file.
func (d *Document) Bytes() ([]byte, error) {
	d.ensureDeclaration()
	d.doc.IndentTabs()

	out, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing %s: %w", d.path, err)
	}

	if d.crlf {
		out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	if d.bom {
		out = append(append([]byte{}, utf8BOM...), out...)
	}

	return out, nil
}

// Unchanged reports whether out is byte-identical to the file as loaded.
func (d *Document) Unchanged(out []byte) bool {
	return d.raw != nil && bytes.Equal(out, d.raw)
}

// ensureDeclaration makes the document start with an XML declaration.
func (d *Document) ensureDeclaration() {
	for _, tok := range d.doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return
		}
	}
	pi := d.doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	d.doc.RemoveChildAt(pi.Index())
	d.doc.InsertChildAt(0, pi)
}

// itemGroups returns the direct <ItemGroup> children of the root.
func (d *Document) itemGroups() []*etree.Element {
	return d.doc.Root().SelectElements(elemItemGroup)
}

// AdoptFormat copies the byte-order mark and line ending style of other.
func (d *Document) AdoptFormat(other *Document) {
	d.bom = other.bom
	d.crlf = other.crlf
}
