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
	flagPayAmount  float64
	flagPayDate    string
	flagPayMinimal bool
	flagPayCycle   string
)

var payCmd = &cobra.Command{
	Use:   "pay <card>",
	Short: "Record a bill payment for the payment history",
	Long: "Record a bill payment. Payments made on or before the due date count as\n" +
		"on time in the health score. Use --minimal when only the minimum was paid.",
	Args: cobra.ExactArgs(1),
	RunE: runPay,
}

func init() {
	payCmd.Flags().Float64VarP(&flagPayAmount, "amount", "a", 0, "Amount paid")
	payCmd.Flags().StringVar(&flagPayDate, "date", "", "Payment date (YYYY-MM-DD, default today)")
	payCmd.Flags().BoolVar(&flagPayMinimal, "minimal", false, "Only the minimum was paid")
	payCmd.Flags().StringVar(&flagPayCycle, "cycle", "", "Billing cycle paid, YYYY-MM (default payment month)")
	_ = payCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(payCmd)
}

func runPay(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, _, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		paid, err := parseDate(flagPayDate, a.eng.Now())
		if err != nil {
			return err
		}
		completeness := model.PaymentFull
		if flagPayMinimal {
			completeness = model.PaymentMinimal
		}
		p, err := a.run.RecordPayment(ctx, engine.PaymentRequest{
			CardID:       c.ID,
			PaidDate:     paid,
			Amount:       flagPayAmount,
			Completeness: completeness,
			Cycle:        flagPayCycle,
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Recorded %s payment of %s on %s for cycle %s\n",
			p.Completeness, cli.FormatMoney(p.Amount), c.Name, p.Cycle)
		return nil
	})
}
