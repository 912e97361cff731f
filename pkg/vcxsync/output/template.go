package output

import (
	"bytes"
	"sync"
	"text/template"

	"github.com/dustin/go-humanize"
)

// TemplateFormatter formats the report using a Go text/template.
type TemplateFormatter struct {
	templateStr string
	template    *template.Template
	mu          sync.Mutex
}

// templateData wraps Report to add computed fields.
type templateData struct {
	*Report
	Changed      bool
	TotalWritten int64
}

// NewTemplateFormatter creates a template formatter for templateStr.
func NewTemplateFormatter(templateStr string) *TemplateFormatter {
	return &TemplateFormatter{
		templateStr: templateStr,
	}
}

// SetTemplate sets or updates the template string.
func (f *TemplateFormatter) SetTemplate(templateStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateStr = templateStr
	f.template = nil
}

// templateFuncs returns the custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// Usage: {{bytes .Size}}
		"bytes": func(size int64) string {
			return humanize.IBytes(uint64(size))
		},
		// Usage: {{group .From}}
		"group": groupName,
	}
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.template == nil {
		tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.templateStr)
		if err != nil {
			return err
		}
		f.template = tmpl
	}

	return f.template.Execute(w, templateData{
		Report:       r,
		Changed:      r.Changed(),
		TotalWritten: r.TotalWritten(),
	})
}

// defaultTemplate lists added and removed files.
const defaultTemplate = `{{range .FilesAdded}}+	{{.Path}}
{{end}}{{range .FilesRemoved}}-	{{.}}
{{end}}`

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(defaultTemplate)
	})
}

// Ensure TemplateFormatter implements Formatter.
var _ Formatter = (*TemplateFormatter)(nil)
