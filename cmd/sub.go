package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
)

var (
	flagSubName     string
	flagSubCategory string
	flagSubAmount   float64
	flagSubCadence  string
	flagSubNext     string
)

var subCmd = &cobra.Command{
	Use:     "sub",
	Aliases: []string{"subscription"},
	Short:   "Manage recurring subscriptions",
}

var subAddCmd = &cobra.Command{
	Use:   "add <card>",
	Short: "Add a subscription billed to a card",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubAdd,
}

var subListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	Args:  cobra.NoArgs,
	RunE:  runSubList,
}

var subProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Bill every subscription that is due",
	Args:  cobra.NoArgs,
	RunE:  runSubProcess,
}

var subPauseCmd = &cobra.Command{
	Use:   "pause <subscription>",
	Short: "Stop billing a subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setSubActive(args[0], false) },
}

var subResumeCmd = &cobra.Command{
	Use:   "resume <subscription>",
	Short: "Resume billing a paused subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setSubActive(args[0], true) },
}

var subRmCmd = &cobra.Command{
	Use:   "rm <subscription>",
	Short: "Delete a subscription; charges already billed stay in the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubRm,
}

func init() {
	fs := subAddCmd.Flags()
	fs.StringVar(&flagSubName, "name", "", "Service name")
	fs.StringVar(&flagSubCategory, "category", "", "Spending category (default subscription)")
	fs.Float64VarP(&flagSubAmount, "amount", "a", 0, "Charge per period")
	fs.StringVar(&flagSubCadence, "cadence", string(model.Monthly), "monthly or yearly")
	fs.StringVar(&flagSubNext, "next", "", "Next charge date (YYYY-MM-DD, default today)")
	_ = subAddCmd.MarkFlagRequired("name")
	_ = subAddCmd.MarkFlagRequired("amount")

	subCmd.AddCommand(subAddCmd, subListCmd, subProcessCmd, subPauseCmd, subResumeCmd, subRmCmd)
	rootCmd.AddCommand(subCmd)
}

func runSubAdd(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, _, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		next, err := parseDate(flagSubNext, a.eng.Now())
		if err != nil {
			return err
		}
		sub, res, err := a.run.AddSubscription(ctx, engine.SubscriptionRequest{
			CardID:         c.ID,
			Name:           flagSubName,
			Category:       flagSubCategory,
			Amount:         flagSubAmount,
			Cadence:        model.Cadence(flagSubCadence),
			NextChargeDate: next,
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s, %s %s on %s (%s)\n", sub.Name, cli.FormatMoney(sub.Amount), sub.Cadence, c.Name, shortID(sub.ID))
		for _, t := range res.Emitted {
			if t.SubscriptionID == sub.ID {
				fmt.Printf("  First charge billed today: %s\n", cli.FormatMoney(t.Amount))
			}
		}
		return nil
	})
}

// resolveSub finds a subscription by ID prefix or name.
func resolveSub(subs []model.Subscription, ref string) (model.Subscription, error) {
	var found []model.Subscription
	for _, s := range subs {
		if s.ID == ref {
			return s, nil
		}
		if strings.HasPrefix(s.ID, ref) || strings.EqualFold(s.Name, ref) {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return model.Subscription{}, fmt.Errorf("subscription %q not found", ref)
	default:
		return model.Subscription{}, fmt.Errorf("subscription %q is ambiguous (%d matches)", ref, len(found))
	}
}

func runSubList(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		subs := res.Snapshot.Subscriptions
		if len(subs) == 0 {
			fmt.Println("\n  No subscriptions.")
			return nil
		}
		names := cardNames(res.Snapshot.Cards)
		rows := make([][]string, 0, len(subs))
		for _, s := range subs {
			state := "active"
			if !s.Active {
				state = cli.Muted("paused")
			}
			rows = append(rows, []string{
				shortID(s.ID),
				s.Name,
				cli.Truncate(names[s.CardID], 16),
				string(s.Cadence),
				cli.FormatMoney(s.Amount),
				cli.FormatDate(s.NextChargeDate),
				state,
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Subscriptions (%d)", len(rows)),
			Headers: []string{"ID", "Name", "Card", "Cadence", "Amount", "Next", "State"},
			Rows:    rows,
		}))
		return nil
	})
}

func runSubProcess(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.run.Refresh(ctx)
		if err != nil {
			return err
		}
		if len(res.Emitted) == 0 {
			fmt.Println("  No subscriptions due.")
			return nil
		}
		names := cardNames(res.Snapshot.Cards)
		for _, t := range res.Emitted {
			fmt.Printf("  Billed %s %s to %s\n", t.Description, cli.FormatMoney(t.Amount), names[t.CardID])
		}
		return nil
	})
}

func setSubActive(ref string, active bool) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		sub, err := resolveSub(res.Snapshot.Subscriptions, ref)
		if err != nil {
			return err
		}
		if err := a.run.SetSubscriptionActive(ctx, sub.ID, active); err != nil {
			return err
		}
		verb := "Paused"
		if active {
			verb = "Resumed"
		}
		fmt.Printf("  %s %s\n", verb, sub.Name)
		return nil
	})
}

func runSubRm(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		sub, err := resolveSub(res.Snapshot.Subscriptions, args[0])
		if err != nil {
			return err
		}
		if err := a.run.DeleteSubscription(ctx, sub.ID); err != nil {
			return err
		}
		fmt.Printf("  Deleted %s\n", sub.Name)
		return nil
	})
}
