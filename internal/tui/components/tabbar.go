package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

// Tab is a single tab in the tab bar. KeyPos is the byte index of the
// shortcut letter in Name.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int
}

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Cards", Key: 'c', KeyPos: 0},
	{Name: "Spending", Key: 's', KeyPos: 0},
	{Name: "Health", Key: 'h', KeyPos: 0},
	{Name: "Upcoming", Key: 'u', KeyPos: 0},
}

const tabSeparator = "│"

func tabStyles(active bool) (base, key lipgloss.Style) {
	t := theme.Active
	base = lipgloss.NewStyle().Padding(0, 1).Background(t.Surface)
	if active {
		base = base.Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
		return base, base.Padding(0)
	}
	base = base.Foreground(t.TextMuted)
	key = lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true).Underline(true)
	return base, key
}

func renderTab(tab Tab, active bool) string {
	base, key := tabStyles(active)
	if active || tab.KeyPos < 0 || tab.KeyPos >= len(tab.Name) {
		return base.Render(tab.Name)
	}
	inner := base.Padding(0)
	label := inner.Render(tab.Name[:tab.KeyPos]) +
		key.Render(tab.Name[tab.KeyPos:tab.KeyPos+1]) +
		inner.Render(tab.Name[tab.KeyPos+1:])
	pad := inner.Render(" ")
	return pad + label + pad
}

// TabVisualWidth returns the rendered width of tab, matching RenderTabBar.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders a single-row tab bar padded to width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render(tabSeparator)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	bar := strings.Join(parts, sep)

	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}

// TabIdxByKey returns the tab index for a key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
