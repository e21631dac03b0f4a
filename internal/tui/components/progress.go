package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

func clampFrac(pct float64) float64 {
	f := pct / 100
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// UtilizationBar renders a labeled bar for a 0-100 percentage colored by
// severity. Values above 100 fill the bar but print the real figure.
func UtilizationBar(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active
	color := t.Utilization(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space + bar.ViewAs(clampFrac(pct)) + space +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}

// ScoreBar renders a component score as points out of max.
func ScoreBar(label string, points, outOf, labelW, barWidth int) string {
	t := theme.Active
	pct := 0.0
	if outOf > 0 {
		pct = float64(points) / float64(outOf) * 100
	}
	color := t.Green
	switch {
	case pct < 40:
		color = t.Red
	case pct < 70:
		color = t.Yellow
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space + bar.ViewAs(clampFrac(pct)) + space +
		valStyle.Render(fmt.Sprintf("%2d/%d", points, outOf))
}
