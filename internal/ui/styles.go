// Package ui implements the terminal screens of the tutor: the subject and
// chapter picker, the chat screen for one chapter, and the line-based quiz
// runner.
package ui

import "github.com/charmbracelet/lipgloss"

// Subject colours, cycled by position in the catalog.
var palette = []lipgloss.Color{
	lipgloss.Color("#3B82F6"), // blue
	lipgloss.Color("#22C55E"), // green
	lipgloss.Color("#A855F7"), // purple
	lipgloss.Color("#F97316"), // orange
	lipgloss.Color("#14B8A6"), // teal
	lipgloss.Color("#EF4444"), // red
	lipgloss.Color("#6366F1"), // indigo
	lipgloss.Color("#EC4899"), // pink
}

// SubjectColor returns the colour of the i-th subject.
func SubjectColor(i int) lipgloss.Color {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

var (
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#DC2626")
	colorSuccess = lipgloss.Color("#16A34A")
	colorAccent  = lipgloss.Color("#2563EB")
)

// Styles holds the lipgloss styles shared by all screens.
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Notice    lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Recording lipgloss.Style
	Input     lipgloss.Style
}

// DefaultStyles returns the default theme.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Header:    lipgloss.NewStyle().Bold(true).Padding(0, 1),
		User:      lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
		Notice:    lipgloss.NewStyle().Italic(true).Foreground(colorMuted),
		Error:     lipgloss.NewStyle().Foreground(colorError),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		Success:   lipgloss.NewStyle().Foreground(colorSuccess),
		Recording: lipgloss.NewStyle().Bold(true).Foreground(colorError),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1),
	}
}
