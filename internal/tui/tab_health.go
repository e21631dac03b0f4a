package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/tui/components"
	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

var componentLabels = map[string]string{
	engine.ComponentUtilization: "Utilization",
	engine.ComponentPayments:    "Payment history",
	engine.ComponentBudget:      "Budget discipline",
	engine.ComponentTrend:       "Spending trend",
}

func (a App) renderHealthTab(cw int) string {
	t := theme.Active
	rep := a.health
	var b strings.Builder

	budget := "no budgets"
	if rep.HasBudget {
		budget = cli.FormatPercent(rep.BudgetPercent)
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Score", Value: fmt.Sprintf("%d / 100", rep.Score), Delta: string(rep.Rating), Color: t.Rating(string(rep.Rating))},
		{Label: "Utilization", Value: cli.FormatPercent(rep.UtilizationPercent), Color: t.Utilization(rep.UtilizationPercent)},
		{Label: "Payments", Value: fmt.Sprintf("%d on time", rep.OnTime), Delta: fmt.Sprintf("%d late", rep.Late)},
		{Label: "Budget use", Value: budget},
		{Label: "Trend", Value: string(rep.Trend), Delta: a.trendSparkline()},
	}, cw))
	b.WriteString("\n")

	widths := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		widths = []int{cw, cw}
	}

	innerL := components.CardInnerWidth(widths[0])
	var comps []string
	for _, c := range rep.Components {
		comps = append(comps, components.ScoreBar(componentLabels[c.Name], c.Score, c.Max, 18, innerL-25))
	}
	left := components.ContentCard("Score breakdown", strings.Join(comps, "\n"), widths[0])

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	var recs []string
	for _, r := range rep.Recommendations {
		recs = append(recs, body.Render("• "+cli.Truncate(r, components.CardInnerWidth(widths[1])-2)))
	}
	if len(recs) == 0 {
		recs = append(recs, muted.Render("Nothing to improve right now."))
	}
	right := components.ContentCard("Recommendations", strings.Join(recs, "\n"), widths[1])

	if a.isCompactLayout() {
		b.WriteString(left + "\n" + right + "\n")
	} else {
		b.WriteString(components.CardRow([]string{left, right}))
		b.WriteString("\n")
	}

	b.WriteString(components.ContentCard("Per card", a.renderCardScores(components.CardInnerWidth(cw)), cw))
	return b.String()
}

// trendSparkline draws the three monthly spend totals oldest first.
func (a App) trendSparkline() string {
	s := a.health.MonthlySpend
	return components.Sparkline([]float64{
		s[2].InexactFloat64(), s[1].InexactFloat64(), s[0].InexactFloat64(),
	}, theme.Active.Accent)
}

func (a App) renderCardScores(innerW int) string {
	t := theme.Active
	now := a.src.Engine().Now()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	cards := a.snap.ActiveCards()
	if len(cards) == 0 {
		return muted.Render("No active cards.")
	}
	nameW := innerW - 40
	if nameW < 10 {
		nameW = 10
	}

	var lines []string
	for _, c := range cards {
		rep := engine.CardHealth(c, now)
		score := lipgloss.NewStyle().Foreground(t.Rating(string(rep.Rating))).Background(t.Surface).Bold(true).
			Render(fmt.Sprintf("%3d %-9s", rep.Score, rep.Rating))
		lines = append(lines, muted.Render(fmt.Sprintf("%-*s ", nameW, cli.Truncate(c.Name, nameW)))+score+
			muted.Render(fmt.Sprintf(" util %6s  %d/%d on time", cli.FormatPercent(rep.UtilizationPercent), rep.OnTime, rep.OnTime+rep.Late)))
	}
	return strings.Join(lines, "\n")
}
