package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

var flagHealthCard string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Credit health score with breakdown and recommendations",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&flagHealthCard, "card", "", "Score one card instead of the portfolio")
	rootCmd.AddCommand(healthCmd)
}

var componentNames = map[string]string{
	engine.ComponentUtilization: "Utilization",
	engine.ComponentPayments:    "Payment history",
	engine.ComponentBudget:      "Budget discipline",
	engine.ComponentTrend:       "Spending trend",
}

func runHealth(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}

		title := "CREDIT HEALTH"
		var rep engine.HealthReport
		if flagHealthCard != "" {
			c, err := pipeline.ResolveCard(res.Snapshot, flagHealthCard)
			if err != nil {
				return err
			}
			title += "  " + c.Name
			rep = a.eng.CardHealth(c)
		} else {
			rep = a.eng.AggregateHealth(res.Snapshot)
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(title))
		fmt.Println()
		fmt.Printf("  Score  %s\n\n", cli.RenderRating(rep.Score, string(rep.Rating)))

		rows := make([][]string, 0, len(rep.Components)+4)
		for _, c := range rep.Components {
			rows = append(rows, []string{componentNames[c.Name], fmt.Sprintf("%d / %d", c.Score, c.Max)})
		}
		rows = append(rows, []string{"---"},
			[]string{"Utilization", cli.FormatPercent(rep.UtilizationPercent)},
			[]string{"Payments", fmt.Sprintf("%d on time, %d late", rep.OnTime, rep.Late)})
		if rep.HasBudget {
			rows = append(rows, []string{"Budget use", cli.FormatPercent(rep.BudgetPercent)})
		}
		if flagHealthCard == "" {
			s := rep.MonthlySpend
			rows = append(rows, []string{"Trend", fmt.Sprintf("%s %s", rep.Trend, cli.RenderSparkline([]float64{
				s[2].InexactFloat64(), s[1].InexactFloat64(), s[0].InexactFloat64(),
			}))})
		}
		fmt.Print(cli.RenderTable(cli.Table{Title: "Breakdown", Rows: rows}))
		fmt.Println()

		if len(rep.Recommendations) > 0 {
			fmt.Printf("  %s\n", cli.Header("Recommendations"))
			for _, r := range rep.Recommendations {
				fmt.Printf("    • %s\n", r)
			}
			fmt.Println()
		}
		return nil
	})
}
