package wizard

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("86")
	good   = lipgloss.Color("42")
	bad    = lipgloss.Color("196")
	hint   = lipgloss.Color("75")
	muted  = lipgloss.Color("240")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	goodStyle    = lipgloss.NewStyle().Foreground(good).Bold(true)
	badStyle     = lipgloss.NewStyle().Foreground(bad).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(hint)
	frameStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(1, 2)
	hintBoxStyle = hintStyle.Border(lipgloss.RoundedBorder()).BorderForeground(hint).Padding(0, 1).MarginTop(1)
)

const (
	iconOK      = "✓"
	iconFail    = "✗"
	iconWarning = "⚠"
	iconWait    = "⏳"
	iconCursor  = "►"
)

// renderScreen frames one wizard screen: title, section, body and key help.
func renderScreen(section string, body string, keys string) string {
	out := titleStyle.Render("sqlsink init")
	if section != "" {
		out += "\n\n" + titleStyle.Render(section)
	}
	out += "\n\n" + body + "\n\n" + mutedStyle.Italic(true).Render(keys)
	return frameStyle.Render(out)
}

func renderSuccess(text string) string {
	return goodStyle.Render(iconOK + " " + text)
}

func renderError(text string) string {
	return badStyle.Render(iconFail + " " + text)
}

func renderInfo(text string) string {
	return hintBoxStyle.Render(text)
}

// renderOption draws a list entry, with a cursor when selected.
func renderOption(selected bool, text string) string {
	if selected {
		return goodStyle.Render(iconCursor + " " + text)
	}
	return mutedStyle.Render("  " + text)
}
