package output

import "github.com/charmbracelet/lipgloss"

// Color constants using ANSI 256-color palette.
const (
	// ColorPrimary is used for headers and counts (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorAdded marks added groups and files (green).
	ColorAdded = lipgloss.Color("42")

	// ColorChanged marks regrouped and reclassified files (orange).
	ColorChanged = lipgloss.Color("214")

	// ColorRemoved marks removed groups and files (red).
	ColorRemoved = lipgloss.Color("196")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Box styles.
var (
	// HeaderBox holds the project and mode summary.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox holds bucket counts and written files.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles.
var (
	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ValueStyle is used for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// AddedStyle renders additions.
	AddedStyle = lipgloss.NewStyle().
			Foreground(ColorAdded)

	// ChangedStyle renders in-place changes.
	ChangedStyle = lipgloss.NewStyle().
			Foreground(ColorChanged)

	// RemovedStyle renders removals.
	RemovedStyle = lipgloss.NewStyle().
			Foreground(ColorRemoved)

	// MutedStyle is used for less important text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// CountStyle is used for numbers in the footer.
	CountStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)
