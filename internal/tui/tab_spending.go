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

const maxCategoryRows = 8

func (a App) renderSpendingTab(cw int) string {
	t := theme.Active
	k := a.kinds
	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Charges", Value: cli.FormatMoney(k.Charges), Delta: "this month"},
		{Label: "Fees", Value: cli.FormatMoney(k.Fees)},
		{Label: "Refunds", Value: cli.FormatMoney(k.Refunds), Color: t.Green},
		{Label: "Payments", Value: cli.FormatMoney(k.Payments), Color: t.Green},
		{Label: "Net", Value: cli.FormatSigned(k.Net)},
	}, cw))
	b.WriteString("\n")

	values := make([]float64, len(a.months))
	labels := make([]string, len(a.months))
	for i, m := range a.months {
		values[i] = m.Charges.InexactFloat64()
		labels[i] = m.Month.Format("Jan")
	}

	chartH := 8
	if a.isCompactLayout() {
		chartH = 6
	}

	var left, right string
	widths := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		widths = []int{cw, cw}
	}
	left = components.ContentCard(fmt.Sprintf("Charges, last %d months", len(a.months)),
		components.BarChart(values, labels, t.Blue, components.CardInnerWidth(widths[0]), chartH), widths[0])
	right = components.ContentCard("Categories this month", a.renderCategories(components.CardInnerWidth(widths[1])), widths[1])

	if a.isCompactLayout() {
		b.WriteString(left + "\n" + right + "\n")
	} else {
		b.WriteString(components.CardRow([]string{left, right}))
		b.WriteString("\n")
	}

	b.WriteString(components.ContentCard("Recurring", a.renderRecurring(components.CardInnerWidth(cw)), cw))
	return b.String()
}

func (a App) renderCategories(innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(a.cats) == 0 {
		return muted.Render("No spending recorded this month.")
	}

	peak := a.cats[0].Spend.InexactFloat64()
	barW := innerW - 14 - 16
	if barW < 5 {
		barW = 5
	}

	var lines []string
	for i, c := range a.cats {
		if i == maxCategoryRows {
			lines = append(lines, muted.Render(fmt.Sprintf("… %d more", len(a.cats)-i)))
			break
		}
		value := fmt.Sprintf("%s %4.0f%%", cli.FormatCompactMoney(c.Spend), c.SharePercent)
		lines = append(lines, components.HBar(c.Category, value, c.Spend.InexactFloat64(), peak, 14, barW, t.Accent))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderRecurring(innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	now := a.src.Engine().Now()

	names := make(map[string]string, len(a.snap.Cards))
	for _, c := range a.snap.Cards {
		names[c.ID] = c.Name
	}
	nameW := innerW / 3
	if nameW < 12 {
		nameW = 12
	}

	var lines []string
	for _, s := range a.snap.Subscriptions {
		state := "next " + cli.FormatDate(s.NextChargeDate)
		if !s.Active {
			state = "paused"
		}
		lines = append(lines, value.Render(fmt.Sprintf("%-*s", nameW, cli.Truncate(s.Name, nameW)))+
			muted.Render(fmt.Sprintf(" %-8s %12s  %-14s %s", s.Cadence, cli.FormatMoney(s.Amount), cli.Truncate(names[s.CardID], 14), state)))
	}
	for _, p := range a.snap.InstallmentPlans {
		prog := engine.Progress(p, a.snap.Transactions, now)
		next := "complete"
		if prog.NextDate != nil {
			next = "next " + cli.FormatDate(*prog.NextDate)
		}
		lines = append(lines, value.Render(fmt.Sprintf("%-*s", nameW, cli.Truncate(p.Description, nameW)))+
			muted.Render(fmt.Sprintf(" %-8s %12s  %-14s %d/%d posted, %s left, %s",
				"plan", cli.FormatMoney(p.MonthlyAmount), cli.Truncate(names[p.CardID], 14),
				prog.Posted, p.Tenor, cli.FormatMoney(prog.RemainingAmount), next)))
	}
	if len(lines) == 0 {
		return muted.Render("No subscriptions or installment plans.")
	}
	return strings.Join(lines, "\n")
}
