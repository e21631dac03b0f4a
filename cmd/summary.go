package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

var flagSummaryDays int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Overview of cards, spending, health and upcoming dates",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&flagSummaryDays, "days", 7, "Upcoming horizon in days")
	rootCmd.Flags().IntVar(&flagSummaryDays, "days", 7, "Upcoming horizon in days")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		snap := res.Snapshot
		cards := snap.ActiveCards()
		if len(cards) == 0 {
			fmt.Println("\n  No cards yet.")
			fmt.Println("  Add one with: cardwise card add --name \"My Card\" --billing-day 1 --due-day 25 --limit 5000")
			return nil
		}

		now := a.eng.Now()
		summaries := pipeline.Summaries(a.eng, cards, snap.LimitIncreaseRecords)
		health := a.eng.AggregateHealth(snap)
		kinds, _ := pipeline.AggregateKinds(snap.Transactions, dates.MonthStart(now), now)

		usage, limit := decimal.Zero, decimal.Zero
		for _, c := range cards {
			usage = usage.Add(c.CurrentUsage)
			limit = limit.Add(c.CreditLimit)
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("CARDWISE  " + now.Format("January 2006")))
		fmt.Println()

		fmt.Print(cli.RenderTable(cli.Table{
			Title: "Totals",
			Rows: [][]string{
				{"Cards", strconv.Itoa(len(cards))},
				{"Usage", cli.FormatMoney(usage)},
				{"Limit", cli.FormatMoney(limit)},
				{"Utilization", cli.FormatPercent(engine.Utilization(usage, limit))},
				{"---"},
				{"Charges this month", cli.FormatMoney(kinds.Charges)},
				{"Fees this month", cli.FormatMoney(kinds.Fees)},
				{"Credits this month", cli.FormatMoney(kinds.Refunds.Add(kinds.Payments))},
				{"---"},
				{"Health", cli.RenderRating(health.Score, string(health.Rating))},
			},
		}))
		fmt.Println()

		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{
				s.Card.Name,
				cli.FormatMoney(s.Card.CurrentUsage),
				cli.RenderUtilizationBar(s.UtilizationPercent, 10),
				cli.FormatDate(s.DueDate),
				cli.FormatDays(dates.DaysBetween(now, s.DueDate)),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Cards",
			Headers: []string{"Card", "Usage", "Utilization", "Due", "In"},
			Rows:    rows,
		}))
		fmt.Println()

		printUpcoming(pipeline.Upcoming(a.eng, snap, flagSummaryDays), flagSummaryDays, now)

		if len(health.Recommendations) > 0 {
			fmt.Printf("  %s\n", cli.Header("Recommendations"))
			for _, r := range health.Recommendations {
				fmt.Printf("    • %s\n", r)
			}
			fmt.Println()
		}
		return nil
	})
}
