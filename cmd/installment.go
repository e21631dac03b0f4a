package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
)

var (
	flagInstTenor    int
	flagInstMonthly  float64
	flagInstDesc     string
	flagInstStart    string
	flagInstFee      float64
	flagInstCategory string
)

var installmentCmd = &cobra.Command{
	Use:     "installment",
	Aliases: []string{"plan"},
	Short:   "Split purchases into monthly installments",
}

var installmentAddCmd = &cobra.Command{
	Use:   "add <card>",
	Short: "Create an installment plan and its monthly charges",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstallmentAdd,
}

var installmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installment plans with progress",
	Args:  cobra.NoArgs,
	RunE:  runInstallmentList,
}

var installmentRmCmd = &cobra.Command{
	Use:   "rm <plan>",
	Short: "Delete a plan and its monthly charges",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstallmentRm,
}

func init() {
	fs := installmentAddCmd.Flags()
	fs.IntVar(&flagInstTenor, "tenor", 0, "Number of monthly installments")
	fs.Float64Var(&flagInstMonthly, "monthly", 0, "Amount per installment")
	fs.StringVarP(&flagInstDesc, "description", "d", "", "What was bought")
	fs.StringVar(&flagInstStart, "start", "", "First installment date (YYYY-MM-DD, default today)")
	fs.Float64Var(&flagInstFee, "fee", 0, "One-off admin fee, charged today")
	fs.StringVar(&flagInstCategory, "category", "", "Spending category (default installment)")
	_ = installmentAddCmd.MarkFlagRequired("tenor")
	_ = installmentAddCmd.MarkFlagRequired("monthly")
	_ = installmentAddCmd.MarkFlagRequired("description")

	installmentCmd.AddCommand(installmentAddCmd, installmentListCmd, installmentRmCmd)
	rootCmd.AddCommand(installmentCmd)
}

func runInstallmentAdd(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, _, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		start, err := parseDate(flagInstStart, a.eng.Now())
		if err != nil {
			return err
		}
		batch, err := a.run.AddInstallments(ctx, engine.InstallmentRequest{
			CardID:        c.ID,
			Tenor:         flagInstTenor,
			MonthlyAmount: flagInstMonthly,
			Description:   flagInstDesc,
			StartDate:     start,
			AdminFee:      flagInstFee,
			Category:      flagInstCategory,
		})
		if err != nil {
			return err
		}
		p := batch.Plan
		fmt.Printf("  Created plan %s: %d x %s on %s, total %s (%s)\n",
			p.Description, p.Tenor, cli.FormatMoney(p.MonthlyAmount), c.Name,
			cli.FormatMoney(batch.Total()), shortID(p.ID))
		return nil
	})
}

func resolvePlan(plans []model.InstallmentPlan, ref string) (model.InstallmentPlan, error) {
	var found []model.InstallmentPlan
	for _, p := range plans {
		if p.ID == ref {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) || strings.EqualFold(p.Description, ref) {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return model.InstallmentPlan{}, fmt.Errorf("installment plan %q not found", ref)
	default:
		return model.InstallmentPlan{}, fmt.Errorf("installment plan %q is ambiguous (%d matches)", ref, len(found))
	}
}

func runInstallmentList(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		snap := res.Snapshot
		if len(snap.InstallmentPlans) == 0 {
			fmt.Println("\n  No installment plans.")
			return nil
		}
		now := a.eng.Now()
		names := cardNames(snap.Cards)
		rows := make([][]string, 0, len(snap.InstallmentPlans))
		for _, p := range snap.InstallmentPlans {
			prog := engine.Progress(p, snap.Transactions, now)
			rows = append(rows, []string{
				shortID(p.ID),
				cli.Truncate(p.Description, 28),
				cli.Truncate(names[p.CardID], 16),
				cli.FormatMoney(p.MonthlyAmount),
				strconv.Itoa(prog.Posted) + "/" + strconv.Itoa(p.Tenor),
				cli.FormatMoney(prog.RemainingAmount),
				cli.FormatDatePtr(prog.NextDate),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Installment plans (%d)", len(rows)),
			Headers: []string{"ID", "Description", "Card", "Monthly", "Posted", "Remaining", "Next"},
			Rows:    rows,
		}))
		return nil
	})
}

func runInstallmentRm(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		p, err := resolvePlan(res.Snapshot.InstallmentPlans, args[0])
		if err != nil {
			return err
		}
		n, err := a.run.DeletePlan(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  Deleted plan %s and %d installment(s)\n", p.Description, n)
		return nil
	})
}
