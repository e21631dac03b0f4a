package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

// Status is what the bottom bar reports on its right side.
type Status struct {
	Refreshed  string // age of the data, e.g. "2m ago"
	Refreshing bool
	Err        string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := base.Render(" ") + keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("r") + base.Render(" refresh  ") +
		keyStyle.Render("q") + base.Render(" quit")

	var right string
	switch {
	case s.Err != "":
		right = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render(s.Err + " ")
	case s.Refreshing:
		right = base.Render("refreshing… ")
	case s.Refreshed != "":
		right = base.Render("updated " + s.Refreshed + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return left + base.Render(strings.Repeat(" ", padding)) + right
}
