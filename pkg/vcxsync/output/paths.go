package output

import (
	"bytes"
)

// PathsFormatter writes one document path per line: the documents written,
// or in a dry run the documents that would be.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.DryRun {
		for _, p := range r.OutOfDate {
			w.WriteString(p)
			w.WriteByte('\n')
		}
		return nil
	}
	for _, wr := range r.Written {
		w.WriteString(wr.Path)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)
