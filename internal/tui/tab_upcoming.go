package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/pipeline"
	"github.com/theirongolddev/cardwise/internal/tui/components"
	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

var eventLabels = map[pipeline.EventKind]string{
	pipeline.EventPaymentDue:    "due",
	pipeline.EventAnnualFee:     "annual fee",
	pipeline.EventLimitEligible: "limit",
	pipeline.EventSubscription:  "subscription",
	pipeline.EventInstallment:   "installment",
}

func (a App) eventColor(k pipeline.EventKind) lipgloss.Color {
	t := theme.Active
	switch k {
	case pipeline.EventPaymentDue:
		return t.Orange
	case pipeline.EventAnnualFee:
		return t.Red
	case pipeline.EventLimitEligible:
		return t.Green
	default:
		return t.Blue
	}
}

func (a App) renderUpcomingTab(cw int) string {
	var b strings.Builder
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Next %d days", upcomingHorizon),
		a.renderEvents(components.CardInnerWidth(cw)), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Queued reminders (%d)", len(a.queued)),
		a.renderQueued(components.CardInnerWidth(cw)), cw))
	return b.String()
}

func (a App) renderEvents(innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	if len(a.upcoming) == 0 {
		return muted.Render("Nothing coming up.")
	}
	now := a.src.Engine().Now()
	titleW := innerW - 60
	if titleW < 12 {
		titleW = 12
	}

	var lines []string
	for _, e := range a.upcoming {
		kind := lipgloss.NewStyle().Foreground(a.eventColor(e.Kind)).Background(t.Surface).
			Render(fmt.Sprintf("%-13s", eventLabels[e.Kind]))
		amount := ""
		if !e.Amount.IsZero() {
			amount = cli.FormatMoney(e.Amount)
		}
		lines = append(lines,
			muted.Render(fmt.Sprintf("%-11s %-9s ", cli.FormatDate(e.Date), cli.FormatDays(dates.DaysBetween(now, e.Date))))+
				kind+
				value.Render(fmt.Sprintf("%-16s %-*s", cli.Truncate(e.CardName, 16), titleW, cli.Truncate(e.Title, titleW)))+
				value.Render(fmt.Sprintf("%12s", amount)))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderQueued(innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	if len(a.queued) == 0 {
		return muted.Render("No reminders queued.")
	}
	titleW := innerW - 20
	var lines []string
	for _, r := range a.queued {
		lines = append(lines, muted.Render(r.FireAt.Format("2006-01-02 15:04")+"  ")+
			value.Render(cli.Truncate(r.Title, titleW)))
	}
	return strings.Join(lines, "\n")
}
