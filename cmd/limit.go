package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
)

var (
	flagLimitRequested float64
	flagLimitType      string
	flagLimitFrequency int
	flagLimitStatus    string
	flagLimitRequest   string
	flagLimitAction    string
)

var limitCmd = &cobra.Command{
	Use:   "limit",
	Short: "Track credit limit increase requests",
}

var limitAddCmd = &cobra.Command{
	Use:   "add <card>",
	Short: "Log a limit increase request",
	Args:  cobra.ExactArgs(1),
	RunE:  runLimitAdd,
}

var limitShowCmd = &cobra.Command{
	Use:   "show <card>",
	Short: "Show limit increase history and next eligibility",
	Args:  cobra.ExactArgs(1),
	RunE:  runLimitShow,
}

func init() {
	fs := limitAddCmd.Flags()
	fs.Float64Var(&flagLimitRequested, "amount", 0, "Requested new limit")
	fs.StringVar(&flagLimitType, "type", string(model.LimitPermanent), "permanent or temporary")
	fs.IntVar(&flagLimitFrequency, "frequency", 0, "Months until the next request is allowed (default the card's cadence)")
	fs.StringVar(&flagLimitStatus, "status", string(model.LimitPending), "pending, approved or rejected")
	fs.StringVar(&flagLimitRequest, "date", "", "Request date (YYYY-MM-DD, default today)")
	fs.StringVar(&flagLimitAction, "action-date", "", "Date the bank acted on it (YYYY-MM-DD)")

	limitCmd.AddCommand(limitAddCmd, limitShowCmd)
	rootCmd.AddCommand(limitCmd)
}

func runLimitAdd(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, _, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		reqDate, err := parseDate(flagLimitRequest, a.eng.Now())
		if err != nil {
			return err
		}
		action, err := parseOptionalDate(flagLimitAction)
		if err != nil {
			return err
		}
		months := flagLimitFrequency
		if months == 0 {
			if sched, ok := model.ScheduleOf(c.Program()); ok && sched.FrequencyMonths > 0 {
				months = sched.FrequencyMonths
			} else {
				return fmt.Errorf("%s has no limit increase cadence; pass --frequency", c.Name)
			}
		}
		r, err := a.run.AddLimitRecord(ctx, engine.LimitRecordRequest{
			CardID:          c.ID,
			RequestDate:     reqDate,
			ActionDate:      action,
			RequestedAmount: flagLimitRequested,
			Type:            model.LimitType(flagLimitType),
			FrequencyMonths: months,
			Status:          model.LimitStatus(flagLimitStatus),
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Logged %s %s request for %s (%s)\n", r.Status, r.Type, c.Name, shortID(r.ID))
		return nil
	})
}

func runLimitShow(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, res, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		records := res.Snapshot.CardLimitRecords(c.ID)
		st := engine.LimitStatusFor(c, res.Snapshot.LimitIncreaseRecords, a.eng.Now())

		fmt.Println()
		fmt.Printf("  %s  %s\n", cli.Header(c.Name), cli.Muted("limit "+cli.FormatMoney(c.CreditLimit)))
		switch {
		case !st.Scheduled:
			fmt.Println("  No limit increase schedule.")
		case st.EligibleNow:
			fmt.Printf("  Eligible for a %s increase now (since %s)\n", st.Type, cli.FormatDate(st.NextEligible))
		default:
			fmt.Printf("  Next %s increase: %s (%s)\n", st.Type, cli.FormatDate(st.NextEligible), cli.FormatDays(st.DaysLeft))
		}
		fmt.Println()

		if len(records) == 0 {
			fmt.Println("  No requests logged.")
			return nil
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				cli.FormatDate(r.RequestDate),
				cli.FormatDatePtr(r.ActionDate),
				string(r.Type),
				string(r.Status),
				cli.FormatMoney(r.RequestedAmount),
				fmt.Sprintf("%dm", r.FrequencyMonths),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Requests",
			Headers: []string{"Requested", "Acted", "Type", "Status", "Amount", "Every"},
			Rows:    rows,
		}))
		return nil
	})
}
