package cli

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Cards",
		Headers: []string{"Card", "Usage"},
		Rows: [][]string{
			{"Travel •••• 4242", "1,234.50"},
			{"---"},
			{"Total", "1,234.50"},
		},
	})
	for _, want := range []string{"Cards", "Card", "Usage", "Travel •••• 4242", "Total", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 8 {
		t.Errorf("table has %d lines, want 8:\n%s", n, out)
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestUtilizationColor(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, string(ColorGreen)},
		{29.9, string(ColorGreen)},
		{30, string(ColorYellow)},
		{50, string(ColorOrange)},
		{75, string(ColorRed)},
		{140, string(ColorRed)},
	}
	for _, tt := range tests {
		if got := string(UtilizationColor(tt.pct)); got != tt.want {
			t.Errorf("UtilizationColor(%.1f) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestRenderUtilizationBar(t *testing.T) {
	out := RenderUtilizationBar(50, 10)
	if got := strings.Count(out, "█"); got != 5 {
		t.Errorf("filled cells = %d, want 5", got)
	}
	if !strings.HasSuffix(out, "50.0%") {
		t.Errorf("bar = %q, want percent suffix", out)
	}
	if got := strings.Count(RenderUtilizationBar(180, 10), "█"); got != 10 {
		t.Errorf("over-limit filled cells = %d, want 10", got)
	}
	if RenderUtilizationBar(10, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 50, 100}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q", got)
	}
	if got := RenderSparkline([]float64{0, 0}); got != "▁▁" {
		t.Errorf("RenderSparkline zeros = %q", got)
	}
}

func TestRenderRating(t *testing.T) {
	if got := RenderRating(82, "excellent"); !strings.Contains(got, "82/100 excellent") {
		t.Errorf("RenderRating = %q", got)
	}
}
