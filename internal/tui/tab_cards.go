package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/tui/components"
	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

func (a App) renderCardsTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	usage, limit := decimal.Zero, decimal.Zero
	for _, s := range a.summaries {
		if s.Card.Archived {
			continue
		}
		usage = usage.Add(s.Card.CurrentUsage)
		limit = limit.Add(s.Card.CreditLimit)
	}
	util := engine.Utilization(usage, limit)

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Usage this cycle", Value: cli.FormatMoney(usage), Delta: "of " + cli.FormatMoney(limit)},
		{Label: "Utilization", Value: cli.FormatPercent(util), Color: t.Utilization(util)},
		{Label: "Available", Value: cli.FormatMoney(limit.Sub(usage))},
		{Label: "Health", Value: fmt.Sprintf("%d", a.health.Score), Delta: string(a.health.Rating),
			Color: t.Rating(string(a.health.Rating))},
	}, cw))
	b.WriteString("\n")

	if len(a.summaries) == 0 {
		b.WriteString(components.ContentCard("Cards",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
				Render("No cards yet. Add one with `cardwise card add`."), cw))
		return b.String()
	}

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(a.cardListTitle(), a.renderCardList(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(a.renderCardDetail(cw))
		return b.String()
	}

	halves := components.LayoutRow(cw, 2)
	list := components.ContentCard(a.cardListTitle(), a.renderCardList(components.CardInnerWidth(halves[0])), halves[0])
	b.WriteString(components.CardRow([]string{list, a.renderCardDetail(halves[1])}))
	return b.String()
}

func (a App) cardListTitle() string {
	if a.showArchived {
		return fmt.Sprintf("Cards (%d, including archived)", len(a.summaries))
	}
	return fmt.Sprintf("Cards (%d)", len(a.summaries))
}

func (a App) renderCardList(innerW int) string {
	t := theme.Active
	nameW := innerW - 36
	if nameW < 10 {
		nameW = 10
	}
	barW := 10

	var b strings.Builder
	for i, s := range a.summaries {
		bg := t.Surface
		if i == a.cursor {
			bg = t.SurfaceHover
		}
		fg := t.TextPrimary
		if s.Card.Archived {
			fg = t.TextDim
		}
		row := lipgloss.NewStyle().Foreground(fg).Background(bg)
		marker := "  "
		if i == a.cursor {
			marker = lipgloss.NewStyle().Foreground(t.Accent).Background(bg).Render("▸ ")
		} else {
			marker = row.Render(marker)
		}

		name := cli.Truncate(s.Card.Name, nameW)
		filled := int(clampPct(s.UtilizationPercent) / 100 * float64(barW))
		bar := lipgloss.NewStyle().Foreground(t.Utilization(s.UtilizationPercent)).Background(bg).
			Render(strings.Repeat("█", filled)) +
			lipgloss.NewStyle().Foreground(t.TextDim).Background(bg).Render(strings.Repeat("░", barW-filled))

		line := marker +
			row.Render(fmt.Sprintf("%-*s ", nameW, name)) +
			row.Render(fmt.Sprintf("%12s ", cli.FormatMoney(s.Card.CurrentUsage))) +
			bar +
			row.Render(fmt.Sprintf(" %6s", cli.FormatPercent(s.UtilizationPercent)))
		b.WriteString(line)
		if i < len(a.summaries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func clampPct(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (a App) renderCardDetail(outerW int) string {
	t := theme.Active
	s := a.summaries[a.cursor]
	c := s.Card
	now := a.src.Engine().Now()
	innerW := components.CardInnerWidth(outerW)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	row := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-16s", k)) + value.Render(v)
	}

	var lines []string
	if c.Bank != "" || c.LastFour != "" {
		lines = append(lines, row("Card", strings.TrimSpace(c.Bank+" "+cli.FormatMask(c.LastFour))))
	}
	lines = append(lines,
		row("Cycle", fmt.Sprintf("%s → %s", cli.FormatDate(s.CycleStart), cli.FormatDate(s.CycleEnd))),
		row("Next statement", cli.FormatDate(s.NextBilling)),
		row("Payment due", fmt.Sprintf("%s (%s)", cli.FormatDate(s.DueDate), cli.FormatDays(dates.DaysBetween(now, s.DueDate)))),
		row("Limit", cli.FormatMoney(c.CreditLimit)),
		row("Available", cli.FormatMoney(s.Available)),
	)
	lines = append(lines, "", components.UtilizationBar("Utilization", s.UtilizationPercent, 16, innerW-24))

	if s.Budget != nil {
		lines = append(lines,
			components.UtilizationBar("Budget", s.Budget.UsedPercent, 16, innerW-24),
			row("Remaining", fmt.Sprintf("%s · %s/day for %dd", cli.FormatMoney(s.Budget.Remaining),
				cli.FormatMoney(s.Budget.DailyAllowance), s.Budget.DaysRemaining)),
		)
	}

	lines = append(lines, "")
	if c.AnnualFee != nil {
		lines = append(lines, row("Annual fee", fmt.Sprintf("%s in %s", cli.FormatMoney(c.AnnualFee.Amount), c.AnnualFee.ExpiryMonth)))
	}
	if ptype := model.ProgramType(c.Program()); ptype != "" {
		next := "not scheduled"
		if s.NextLimitEligible != nil {
			next = fmt.Sprintf("%s (%s)", cli.FormatDate(*s.NextLimitEligible),
				cli.FormatDays(dates.DaysBetween(now, *s.NextLimitEligible)))
		}
		lines = append(lines, row("Limit program", fmt.Sprintf("%s, next %s", ptype, next)))
	}

	rep := engine.CardHealth(c, now)
	lines = append(lines, row("Card health", "")+
		lipgloss.NewStyle().Foreground(t.Rating(string(rep.Rating))).Background(t.Surface).Bold(true).
			Render(fmt.Sprintf("%d %s", rep.Score, rep.Rating)))

	title := c.Name
	if c.Archived {
		title += " (archived)"
	}
	return components.ContentCard(title, strings.Join(lines, "\n"), outerW)
}
