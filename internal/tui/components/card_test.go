package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no ANSI styling in the padded region: %q", i, lines[i])
		}
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	joined := CardRow([]string{tallCard, shortCard})
	want := lipgloss.Width(tallCard) + lipgloss.Width(shortCard)
	for i, line := range strings.Split(joined, "\n") {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 3, []int{34, 33, 33}},
		{10, 5, []int{2, 2, 2, 2, 2}},
		{7, 2, []int{4, 3}},
		{50, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
		}
		sum := 0
		for i := range got {
			sum += got[i]
			if got[i] != tt.want[i] {
				t.Errorf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
				break
			}
		}
		if tt.n > 0 && sum != tt.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tt.total, tt.n, sum)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Usage", Value: "1,200.00"},
		{Label: "Limit", Value: "5,000.00", Delta: "24.0%"},
		{Label: "Health", Value: "82", Color: theme.Active.Green},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('h'); got != 2 {
		t.Errorf("TabIdxByKey('h') = %d, want 2", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestBarChartHeight(t *testing.T) {
	out := BarChart([]float64{100, 250, 50}, []string{"Aug", "Sep", "Oct"}, theme.Active.Blue, 40, 6)
	lines := strings.Split(out, "\n")
	// rows + axis + labels
	if len(lines) != 8 {
		t.Fatalf("chart lines = %d, want 8", len(lines))
	}
	if !strings.Contains(lines[len(lines)-1], "Sep") {
		t.Errorf("label row missing month: %q", lines[len(lines)-1])
	}
}

func TestBarChartNarrowFallsBackToSparkline(t *testing.T) {
	out := BarChart([]float64{1, 2, 3, 4, 5, 6, 7, 8}, nil, theme.Active.Blue, 8, 6)
	if strings.Contains(out, "\n") {
		t.Errorf("narrow chart should be a single-line sparkline, got %q", out)
	}
}
