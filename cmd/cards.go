package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

var flagCardsArchived bool

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List cards with usage, utilization and billing dates",
	RunE:  runCards,
}

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Add, edit, show or archive a card",
}

var cardAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a card",
	Args:  cobra.NoArgs,
	RunE:  runCardAdd,
}

var cardEditCmd = &cobra.Command{
	Use:   "edit <card>",
	Short: "Change a card's settings; only the flags given are updated",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardEdit,
}

var cardShowCmd = &cobra.Command{
	Use:   "show <card>",
	Short: "Show one card in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardShow,
}

var cardArchiveCmd = &cobra.Command{
	Use:   "archive <card>",
	Short: "Hide a card from lists, health and reminders",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setArchived(args[0], true) },
}

var cardUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <card>",
	Short: "Restore an archived card",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setArchived(args[0], false) },
}

// cardFlags binds the CardRequest fields to command flags.
type cardFlags struct {
	name, bank, lastFour    string
	billingDay, dueDay      int
	limit, budget           float64
	feeMonth                int
	feeAmount               float64
	feeRemind               bool
	limitType, lastIncrease string
	limitFrequency          int
	limitRemind             bool
}

var (
	addCardFlags  cardFlags
	editCardFlags cardFlags
)

func (f *cardFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Card name")
	fs.StringVar(&f.bank, "bank", "", "Issuing bank")
	fs.StringVar(&f.lastFour, "last-four", "", "Last four digits")
	fs.IntVar(&f.billingDay, "billing-day", 0, "Statement day of month (1-31)")
	fs.IntVar(&f.dueDay, "due-day", 0, "Payment due day of month (1-31)")
	fs.Float64Var(&f.limit, "limit", 0, "Credit limit")
	fs.Float64Var(&f.budget, "budget", 0, "Monthly spending budget (0 for none)")
	fs.IntVar(&f.feeMonth, "fee-month", 0, "Annual fee month (1-12, 0 for none)")
	fs.Float64Var(&f.feeAmount, "fee-amount", 0, "Annual fee amount")
	fs.BoolVar(&f.feeRemind, "fee-remind", false, "Remind before the annual fee")
	fs.StringVar(&f.limitType, "limit-type", "", "Limit increase program: permanent or temporary")
	fs.StringVar(&f.lastIncrease, "last-increase", "", "Date of the last limit increase (YYYY-MM-DD)")
	fs.IntVar(&f.limitFrequency, "limit-frequency", 0, "Months between limit increase requests")
	fs.BoolVar(&f.limitRemind, "limit-remind", false, "Remind when a limit increase is possible")
}

// apply copies every flag the user set onto req.
func (f *cardFlags) apply(cmd *cobra.Command, req *engine.CardRequest) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		req.Name = f.name
	}
	if changed("bank") {
		req.Bank = f.bank
	}
	if changed("last-four") {
		req.LastFour = f.lastFour
	}
	if changed("billing-day") {
		req.BillingDay = f.billingDay
	}
	if changed("due-day") {
		req.DueDay = f.dueDay
	}
	if changed("limit") {
		req.CreditLimit = f.limit
	}
	if changed("budget") {
		req.MonthlyBudget = f.budget
	}
	if changed("fee-month") {
		req.AnnualFeeMonth = f.feeMonth
	}
	if changed("fee-amount") {
		req.AnnualFeeAmount = f.feeAmount
	}
	if changed("fee-remind") {
		req.AnnualFeeRemind = f.feeRemind
	}
	if changed("limit-type") {
		req.LimitType = model.LimitType(f.limitType)
	}
	if changed("last-increase") {
		t, err := parseOptionalDate(f.lastIncrease)
		if err != nil {
			return err
		}
		req.LastLimitIncrease = t
	}
	if changed("limit-frequency") {
		req.LimitFrequency = f.limitFrequency
	}
	if changed("limit-remind") {
		req.LimitRemind = f.limitRemind
	}
	return nil
}

func init() {
	cardsCmd.Flags().BoolVar(&flagCardsArchived, "archived", false, "Include archived cards")

	addCardFlags.bind(cardAddCmd)
	editCardFlags.bind(cardEditCmd)

	cardCmd.AddCommand(cardAddCmd, cardEditCmd, cardShowCmd, cardArchiveCmd, cardUnarchiveCmd)
	rootCmd.AddCommand(cardsCmd, cardCmd)
}

func runCards(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		cards := res.Snapshot.ActiveCards()
		if flagCardsArchived {
			cards = res.Snapshot.Cards
		}
		if len(cards) == 0 {
			fmt.Println("\n  No cards.")
			return nil
		}

		now := a.eng.Now()
		rows := make([][]string, 0, len(cards))
		for _, s := range pipeline.Summaries(a.eng, cards, res.Snapshot.LimitIncreaseRecords) {
			name := s.Card.Name
			if s.Card.Archived {
				name += " " + cli.Muted("(archived)")
			}
			budget := "-"
			if s.Budget != nil {
				budget = cli.FormatPercent(s.Budget.UsedPercent)
			}
			rows = append(rows, []string{
				shortID(s.Card.ID),
				name,
				cli.FormatMask(s.Card.LastFour),
				cli.FormatMoney(s.Card.CurrentUsage),
				cli.FormatMoney(s.Card.CreditLimit),
				cli.RenderUtilizationBar(s.UtilizationPercent, 10),
				budget,
				cli.FormatDate(s.NextBilling),
				cli.FormatDate(s.DueDate) + " (" + cli.FormatDays(dates.DaysBetween(now, s.DueDate)) + ")",
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Cards (%d)", len(rows)),
			Headers: []string{"ID", "Name", "Number", "Usage", "Limit", "Utilization", "Budget", "Statement", "Due"},
			Rows:    rows,
		}))
		return nil
	})
}

func runCardAdd(cmd *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		var req engine.CardRequest
		if err := addCardFlags.apply(cmd, &req); err != nil {
			return err
		}
		c, err := a.run.AddCard(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s (%s)\n", c.Name, shortID(c.ID))
		return nil
	})
}

func runCardEdit(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, _, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		req := engine.RequestFromCard(c)
		if err := editCardFlags.apply(cmd, &req); err != nil {
			return err
		}
		updated, err := a.run.EditCard(ctx, c.ID, req)
		if err != nil {
			return err
		}
		fmt.Printf("  Updated %s\n", updated.Name)
		return nil
	})
}

func setArchived(ref string, archived bool) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, _, err := a.resolveCard(ctx, ref)
		if err != nil {
			return err
		}
		if err := a.run.SetArchived(ctx, c.ID, archived); err != nil {
			return err
		}
		verb := "Archived"
		if !archived {
			verb = "Restored"
		}
		fmt.Printf("  %s %s\n", verb, c.Name)
		return nil
	})
}

func runCardShow(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, res, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		snap := res.Snapshot
		now := a.eng.Now()
		s := pipeline.Summaries(a.eng, []model.Card{c}, snap.LimitIncreaseRecords)[0]

		fmt.Println()
		fmt.Println(cli.RenderTitle(c.Name))
		fmt.Println()

		rows := [][]string{
			{"ID", c.ID},
			{"Bank", c.Bank},
			{"Number", cli.FormatMask(c.LastFour)},
			{"---"},
			{"Cycle", cli.FormatDate(s.CycleStart) + " to " + cli.FormatDate(s.CycleEnd)},
			{"Statement", cli.FormatDate(s.NextBilling)},
			{"Due", cli.FormatDate(s.DueDate) + " (" + cli.FormatDays(dates.DaysBetween(now, s.DueDate)) + ")"},
			{"---"},
			{"Usage", cli.FormatMoney(c.CurrentUsage)},
			{"Limit", cli.FormatMoney(c.CreditLimit)},
			{"Available", cli.FormatMoney(s.Available)},
			{"Utilization", cli.RenderUtilizationBar(s.UtilizationPercent, 16)},
		}
		if b := s.Budget; b != nil {
			rows = append(rows,
				[]string{"---"},
				[]string{"Budget", cli.FormatMoney(b.Budget)},
				[]string{"Spent", cli.FormatMoney(b.CurrentSpend) + " (" + cli.FormatPercent(b.UsedPercent) + ")"},
				[]string{"Remaining", cli.FormatMoney(b.Remaining)},
				[]string{"Per day", cli.FormatMoney(b.DailyAllowance) + " for " + strconv.Itoa(b.DaysRemaining) + "d"},
			)
		}
		if f := c.AnnualFee; f != nil {
			remind := ""
			if f.Remind {
				remind = " (reminder on)"
			}
			rows = append(rows, []string{"---"},
				[]string{"Annual fee", cli.FormatMoney(f.Amount) + " in " + f.ExpiryMonth.String() + remind})
		}
		ls := engine.LimitStatusFor(c, snap.LimitIncreaseRecords, now)
		if ls.Scheduled {
			when := cli.FormatDate(ls.NextEligible)
			if ls.EligibleNow {
				when += " (eligible now)"
			} else {
				when += " (" + cli.FormatDays(ls.DaysLeft) + ")"
			}
			rows = append(rows, []string{"Limit increase", string(ls.Type) + ", next " + when})
		}
		health := a.eng.CardHealth(c)
		rows = append(rows, []string{"---"},
			[]string{"Health", cli.RenderRating(health.Score, string(health.Rating))},
			[]string{"Payments", fmt.Sprintf("%d on time, %d late", health.OnTime, health.Late)})

		fmt.Print(cli.RenderTable(cli.Table{Rows: rows}))
		fmt.Println()

		if len(c.PaymentHistory) > 0 {
			var prow [][]string
			for _, p := range c.PaymentHistory {
				prow = append(prow, []string{p.Cycle, cli.FormatDate(p.PaidDate), string(p.Completeness), cli.FormatMoney(p.Amount)})
			}
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "Payments",
				Headers: []string{"Cycle", "Paid", "Type", "Amount"},
				Rows:    prow,
			}))
			fmt.Println()
		}
		return nil
	})
}
