package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter writes one tab-aligned row per change with no styling,
// for scripting and piping.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := fmt.Fprintln(tw, "ACTION\tKIND\tPATH\tDETAIL"); err != nil {
		return err
	}

	rows := make([][4]string, 0)
	for _, g := range r.GroupsAdded {
		rows = append(rows, [4]string{"add", "group", g.Path, g.ID})
	}
	for _, p := range r.GroupsRemoved {
		rows = append(rows, [4]string{"remove", "group", p, "-"})
	}
	for _, c := range r.Reidentified {
		rows = append(rows, [4]string{"reidentify", "group", c.Path, groupName(c.From) + "->" + c.To})
	}
	for _, fi := range r.FilesAdded {
		rows = append(rows, [4]string{"add", "file", fi.Path, fi.Category})
	}
	for _, p := range r.FilesRemoved {
		rows = append(rows, [4]string{"remove", "file", p, "-"})
	}
	for _, c := range r.Regrouped {
		rows = append(rows, [4]string{"regroup", "file", c.Path, groupName(c.From) + "->" + groupName(c.To)})
	}
	for _, c := range r.Reclassified {
		rows = append(rows, [4]string{"reclassify", "file", c.Path, c.From + "->" + c.To})
	}
	for _, wr := range r.Written {
		rows = append(rows, [4]string{"write", "document", wr.Path, fmt.Sprint(wr.Size)})
	}
	if r.DryRun {
		for _, p := range r.OutOfDate {
			rows = append(rows, [4]string{"stale", "document", p, "-"})
		}
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3]); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
