package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/config"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/notify"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Plan, inspect and deliver payment, limit and annual fee reminders",
}

var remindPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Re-plan reminders for every card and show the schedule",
	Args:  cobra.NoArgs,
	RunE:  runRemindPlan,
}

var remindListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued reminders",
	Args:  cobra.NoArgs,
	RunE:  runRemindList,
}

var remindDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver reminders that are due now",
	Args:  cobra.NoArgs,
	RunE:  runRemindDispatch,
}

var remindEnableCmd = &cobra.Command{
	Use:       "enable <payment|limit|annualfee>",
	Short:     "Turn a reminder category on",
	Args:      cobra.ExactArgs(1),
	ValidArgs: categoryNames(),
	RunE:      func(_ *cobra.Command, args []string) error { return setCategory(args[0], true) },
}

var remindDisableCmd = &cobra.Command{
	Use:       "disable <payment|limit|annualfee>",
	Short:     "Turn a reminder category off and cancel its queued reminders",
	Args:      cobra.ExactArgs(1),
	ValidArgs: categoryNames(),
	RunE:      func(_ *cobra.Command, args []string) error { return setCategory(args[0], false) },
}

func init() {
	remindCmd.AddCommand(remindPlanCmd, remindListCmd, remindDispatchCmd, remindEnableCmd, remindDisableCmd)
	rootCmd.AddCommand(remindCmd)
}

func categoryNames() []string {
	out := make([]string, len(engine.ReminderCategories))
	for i, c := range engine.ReminderCategories {
		out[i] = string(c)
	}
	return out
}

func runRemindPlan(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		prefs := a.run.Preferences()
		plan := a.eng.PlanAllReminders(res.Snapshot, prefs)

		var on []string
		for _, c := range engine.ReminderCategories {
			state := "off"
			if prefs.Enabled(c) {
				state = "on"
			}
			on = append(on, fmt.Sprintf("%s %s", c, state))
		}
		fmt.Printf("\n  Categories: %s\n", strings.Join(on, ", "))
		fmt.Printf("  Applied: %d cancelled, %d scheduled\n\n", res.Reminders.Cancelled, res.Reminders.Scheduled)

		if len(plan.Schedule) == 0 {
			fmt.Println("  Nothing to schedule.")
			return nil
		}
		now := a.eng.Now()
		rows := make([][]string, 0, len(plan.Schedule))
		for _, t := range plan.Schedule {
			rows = append(rows, []string{
				t.FireAt.Format("2006-01-02 15:04"),
				cli.FormatDays(dates.DaysBetween(now, t.FireAt)),
				string(t.Category),
				cli.Truncate(t.Title, 40),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Planned reminders (%d)", len(rows)),
			Headers: []string{"Fires", "In", "Category", "Title"},
			Rows:    rows,
		}))
		return nil
	})
}

func runRemindList(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		pending, err := a.queue.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("\n  No reminders queued.")
			return nil
		}
		rows := make([][]string, 0, len(pending))
		for _, r := range pending {
			rows = append(rows, []string{
				r.FireAt.Format("2006-01-02 15:04"),
				r.ID,
				cli.Truncate(r.Title, 40),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Queued reminders (%d)", len(rows)),
			Headers: []string{"Fires", "ID", "Title"},
			Rows:    rows,
		}))
		return nil
	})
}

// newSender picks SMTP delivery when mail is configured, else the log.
func newSender(a *app) (notify.Sender, error) {
	if a.cfg.Mail.Enabled() {
		s, err := notify.NewEmailSender(a.cfg.SMTP())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return notify.LogSender{Log: a.log.WithField("component", "reminders")}, nil
}

func runRemindDispatch(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		sender, err := newSender(a)
		if err != nil {
			return err
		}
		if _, err := a.refresh(ctx); err != nil {
			return err
		}
		res, err := notify.NewDispatcher(a.queue, sender, a.log.WithField("component", "dispatch")).Dispatch(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  Delivered %d, failed %d, expired %d\n", res.Delivered, res.Failed, res.Expired)
		return nil
	})
}

func parseCategory(s string) (engine.ReminderCategory, error) {
	for _, c := range engine.ReminderCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown reminder category %q (want %s)", s, strings.Join(categoryNames(), ", "))
}

func setCategory(name string, enabled bool) error {
	c, err := parseCategory(name)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		prefs := a.run.Preferences()
		switch c {
		case engine.ReminderPayment:
			prefs.Payment = enabled
		case engine.ReminderLimitIncrease:
			prefs.LimitIncrease = enabled
		case engine.ReminderAnnualFee:
			prefs.AnnualFee = enabled
		}

		cfg := a.cfg
		cfg.SetPreferences(prefs)
		if err := config.Save(cfg); err != nil {
			return err
		}
		res, err := a.run.SetPreferences(ctx, prefs)
		if err != nil {
			return err
		}
		fmt.Printf("  %s reminders %s (%d cancelled, %d scheduled)\n",
			c, map[bool]string{true: "enabled", false: "disabled"}[enabled],
			res.Reminders.Cancelled, res.Reminders.Scheduled)
		return nil
	})
}
