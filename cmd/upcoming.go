package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

var flagUpcomingDays int

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Due dates, annual fees, limit windows and recurring charges ahead",
	RunE:  runUpcoming,
}

func init() {
	upcomingCmd.Flags().IntVar(&flagUpcomingDays, "days", 30, "Horizon in days")
	rootCmd.AddCommand(upcomingCmd)
}

func runUpcoming(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		printUpcoming(pipeline.Upcoming(a.eng, res.Snapshot, flagUpcomingDays), flagUpcomingDays, a.eng.Now())
		return nil
	})
}

func printUpcoming(events []pipeline.Event, days int, now time.Time) {
	title := fmt.Sprintf("Next %d days", days)
	if len(events) == 0 {
		fmt.Printf("  %s\n  %s\n\n", cli.Header(title), cli.Muted("Nothing coming up."))
		return
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		amount := ""
		if !e.Amount.IsZero() {
			amount = cli.FormatMoney(e.Amount)
		}
		rows = append(rows, []string{
			cli.FormatDate(e.Date),
			cli.FormatDays(dates.DaysBetween(now, e.Date)),
			string(e.Kind),
			cli.Truncate(e.CardName, 18),
			cli.Truncate(e.Title, 36),
			amount,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Date", "In", "Kind", "Card", "What", "Amount"},
		Rows:    rows,
	}))
	fmt.Println()
}
