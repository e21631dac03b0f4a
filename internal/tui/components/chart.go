package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

var blocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line block sparkline.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	peak := peakOf(values)

	var buf strings.Builder
	for _, v := range values {
		idx := 1 + int(v/peak*7)
		if idx > 8 {
			idx = 8
		}
		if idx < 1 {
			idx = 1
		}
		buf.WriteRune(blocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

func peakOf(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return 1
	}
	return peak
}

// BarChart renders vertical bars, one per value, with a labeled y axis and
// one label per bar underneath. Bars wider than the space allows fall back
// to a sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	n := len(values)
	if n == 0 {
		return ""
	}
	if height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active
	peak := peakOf(values)

	yLabelW := len(compactAmount(peak)) + 1
	chartW := width - yLabelW - 1
	barW := (chartW - (n - 1)) / n
	if barW < 1 {
		return Sparkline(values, color)
	}
	if barW > 7 {
		barW = 7
	}

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		top := peak * float64(row) / float64(height)
		bottom := peak * float64(row-1) / float64(height)

		label := ""
		if row == height {
			label = compactAmount(peak)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int(math.Ceil((v - bottom) / (top - bottom) * 8))
				b.WriteString(bar.Render(strings.Repeat(string(blocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", n*barW+n-1))))
	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		for i, l := range labels {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			runes := []rune(l)
			if len(runes) > barW {
				runes = runes[:barW]
			}
			b.WriteString(axis.Render(fmt.Sprintf("%-*s", barW, string(runes))))
		}
	}
	return b.String()
}

func compactAmount(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// HBar renders a labeled horizontal bar scaled against peak.
func HBar(label, value string, v, peak float64, labelW, barW int, color lipgloss.Color) string {
	t := theme.Active
	n := 0
	if peak > 0 {
		n = int(v / peak * float64(barW))
	}
	if n < 0 {
		n = 0
	}
	if n > barW {
		n = barW
	}
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	runes := []rune(label)
	if len(runes) > labelW {
		runes = append(runes[:labelW-1], '…')
	}
	return labelStyle.Render(fmt.Sprintf("%-*s ", labelW, string(runes))) +
		barStyle.Render(strings.Repeat("█", n)+strings.Repeat(" ", barW-n)) +
		valStyle.Render(" "+value)
}
