package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// PrettyFormatter renders a styled terminal report using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	if !r.Changed() {
		w.WriteString(MutedStyle.Render("Filters are up to date."))
		w.WriteString("\n")
	} else {
		w.WriteString(f.formatChanges(r))
	}

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	return nil
}

// formatHeader builds the header box with the project and mode.
func (f *PrettyFormatter) formatHeader(r *Report) string {
	lines := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Project:"), ValueStyle.Render(r.Project)),
		fmt.Sprintf("%s %s", LabelStyle.Render("Root:"), ValueStyle.Render(r.Root)),
	}

	var info []string
	if r.DryRun {
		info = append(info, ChangedStyle.Render("dry run"))
	}
	if r.FiltersCreated {
		info = append(info, AddedStyle.Render("new filters file"))
	}
	info = append(info, MutedStyle.Render("took "+r.Elapsed))
	lines = append(lines, strings.Join(info, "  "))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatChanges lists every change section that has entries.
func (f *PrettyFormatter) formatChanges(r *Report) string {
	var sb strings.Builder

	section := func(title string, rows []string) {
		if len(rows) == 0 {
			return
		}
		sb.WriteString(TitleStyle.Render(title))
		sb.WriteString("\n")
		for _, row := range rows {
			sb.WriteString("  ")
			sb.WriteString(row)
			sb.WriteString("\n")
		}
	}

	var groups []string
	for _, g := range r.GroupsAdded {
		groups = append(groups, AddedStyle.Render("+ "+g.Path)+" "+MutedStyle.Render(g.ID))
	}
	for _, p := range r.GroupsRemoved {
		groups = append(groups, RemovedStyle.Render("- "+p))
	}
	for _, c := range r.Reidentified {
		groups = append(groups, ChangedStyle.Render("~ "+c.Path)+" "+
			MutedStyle.Render(groupName(c.From)+" -> "+c.To))
	}
	section("Groups", groups)

	var files []string
	for _, fi := range r.FilesAdded {
		files = append(files, AddedStyle.Render("+ "+fi.Path)+" "+MutedStyle.Render(fi.Category))
	}
	for _, p := range r.FilesRemoved {
		files = append(files, RemovedStyle.Render("- "+p))
	}
	section("Files", files)

	var moved []string
	for _, c := range r.Regrouped {
		moved = append(moved, ChangedStyle.Render("~ "+c.Path)+" "+
			MutedStyle.Render(groupName(c.From)+" -> "+groupName(c.To)))
	}
	for _, c := range r.Reclassified {
		moved = append(moved, ChangedStyle.Render("~ "+c.Path)+" "+
			MutedStyle.Render(c.From+" -> "+c.To))
	}
	section("Changed", moved)

	return sb.String()
}

// formatFooter builds the footer box with bucket counts and writes.
func (f *PrettyFormatter) formatFooter(r *Report) string {
	counts := fmt.Sprintf("%s compile  %s include  %s other",
		CountStyle.Render(fmt.Sprint(r.Buckets.Compile)),
		CountStyle.Render(fmt.Sprint(r.Buckets.Include)),
		CountStyle.Render(fmt.Sprint(r.Buckets.Other)))

	var status string
	switch {
	case len(r.Written) > 0:
		status = AddedStyle.Render(fmt.Sprintf("Wrote %s (%s)",
			english.Plural(len(r.Written), "file", ""),
			humanize.IBytes(uint64(r.TotalWritten()))))
	case r.DryRun && len(r.OutOfDate) > 0:
		status = ChangedStyle.Render(fmt.Sprintf("Would write %s",
			english.Plural(len(r.OutOfDate), "file", "")))
	default:
		status = MutedStyle.Render("Nothing written")
	}

	return FooterBox.Render(counts + "\n" + status)
}

// groupName renders a group path, naming the ungrouped state.
func groupName(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}

func init() {
	Register("pretty", func() Formatter { return &PrettyFormatter{} })
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
