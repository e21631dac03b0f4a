package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/cli"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

var (
	flagTxKind            string
	flagTxCategory        string
	flagTxDescription     string
	flagTxDate            string
	flagTxAmount          float64
	flagTxForeignCurrency string
	flagTxForeignAmount   float64

	flagTxListCard     string
	flagTxListCategory string
	flagTxListSince    string
	flagTxListUntil    string
	flagTxListLimit    int
)

var txCmd = &cobra.Command{
	Use:     "tx",
	Aliases: []string{"transaction"},
	Short:   "Record, list or delete ledger entries",
}

var txAddCmd = &cobra.Command{
	Use:   "add <card>",
	Short: "Record a charge, refund, payment or fee",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxAdd,
}

var txRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a ledger entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxRm,
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runTxList,
}

func init() {
	fs := txAddCmd.Flags()
	fs.StringVar(&flagTxKind, "kind", string(model.TxCharge), "charge, refund, payment or fee")
	fs.StringVar(&flagTxCategory, "category", "", "Spending category")
	fs.StringVarP(&flagTxDescription, "description", "d", "", "Description")
	fs.StringVar(&flagTxDate, "date", "", "Date (YYYY-MM-DD, default today)")
	fs.Float64VarP(&flagTxAmount, "amount", "a", 0, "Amount in the card's currency")
	fs.StringVar(&flagTxForeignCurrency, "foreign-currency", "", "ISO code of the original currency")
	fs.Float64Var(&flagTxForeignAmount, "foreign-amount", 0, "Amount in the original currency")
	_ = txAddCmd.MarkFlagRequired("amount")

	lf := txListCmd.Flags()
	lf.StringVar(&flagTxListCard, "card", "", "Only this card")
	lf.StringVar(&flagTxListCategory, "category", "", "Category substring")
	lf.StringVar(&flagTxListSince, "since", "", "From date (YYYY-MM-DD)")
	lf.StringVar(&flagTxListUntil, "until", "", "Until date, exclusive (YYYY-MM-DD)")
	lf.IntVarP(&flagTxListLimit, "limit", "n", 50, "Show at most this many entries (0 for all)")

	txCmd.AddCommand(txAddCmd, txRmCmd, txListCmd)
	rootCmd.AddCommand(txCmd)
}

func runTxAdd(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, _, err := a.resolveCard(ctx, args[0])
		if err != nil {
			return err
		}
		date, err := parseDate(flagTxDate, a.eng.Now())
		if err != nil {
			return err
		}
		t, err := a.run.AddTransaction(ctx, engine.TransactionRequest{
			CardID:          c.ID,
			Kind:            model.TxKind(flagTxKind),
			Category:        flagTxCategory,
			Description:     flagTxDescription,
			Date:            date,
			Amount:          flagTxAmount,
			ForeignCurrency: flagTxForeignCurrency,
			ForeignAmount:   flagTxForeignAmount,
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Recorded %s %s on %s (%s)\n", t.Kind, cli.FormatMoney(t.Amount), c.Name, shortID(t.ID))
		return nil
	})
}

func runTxRm(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveTxID(ctx, a, args[0])
		if err != nil {
			return err
		}
		if err := a.run.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		fmt.Printf("  Deleted %s\n", shortID(id))
		return nil
	})
}

// resolveTxID expands a unique ID prefix.
func resolveTxID(ctx context.Context, a *app, ref string) (string, error) {
	res, err := a.refresh(ctx)
	if err != nil {
		return "", err
	}
	var found []string
	for _, t := range res.Snapshot.Transactions {
		if t.ID == ref {
			return ref, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(t.ID, ref) {
			found = append(found, t.ID)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return ref, nil
	default:
		return "", fmt.Errorf("transaction %q is ambiguous (%d matches)", ref, len(found))
	}
}

func runTxList(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		snap := res.Snapshot
		txs := snap.Transactions

		if flagTxListCard != "" {
			c, err := pipeline.ResolveCard(snap, flagTxListCard)
			if err != nil {
				return err
			}
			txs = pipeline.FilterByCard(txs, c.ID)
		}
		if flagTxListCategory != "" {
			txs = pipeline.FilterByCategory(txs, flagTxListCategory)
		}
		since, err := parseOptionalDate(flagTxListSince)
		if err != nil {
			return err
		}
		until, err := parseOptionalDate(flagTxListUntil)
		if err != nil {
			return err
		}
		if since != nil || until != nil {
			var s, u time.Time
			if since != nil {
				s = *since
			}
			if until != nil {
				u = *until
			}
			txs = pipeline.FilterByTime(txs, s, u)
		}
		txs = pipeline.SortByDate(txs)

		if len(txs) == 0 {
			fmt.Println("\n  No transactions match.")
			return nil
		}
		total := len(txs)
		if flagTxListLimit > 0 && len(txs) > flagTxListLimit {
			txs = txs[:flagTxListLimit]
		}

		names := cardNames(snap.Cards)
		rows := make([][]string, 0, len(txs))
		for _, t := range txs {
			desc := cli.Truncate(t.Description, 40)
			if t.Foreign != nil {
				desc += cli.Muted(fmt.Sprintf(" [%s %s]", t.Foreign.Amount.StringFixed(2), t.Foreign.Currency))
			}
			rows = append(rows, []string{
				shortID(t.ID),
				cli.FormatDate(t.Date),
				cli.Truncate(names[t.CardID], 16),
				string(t.Kind),
				cli.Truncate(t.Category, 16),
				desc,
				cli.FormatSigned(t.Signed()),
			})
		}
		title := fmt.Sprintf("Transactions (%d)", total)
		if len(txs) < total {
			title = fmt.Sprintf("Transactions (%d of %d)", len(txs), total)
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   title,
			Headers: []string{"ID", "Date", "Card", "Kind", "Category", "Description", "Amount"},
			Rows:    rows,
		}))
		return nil
	})
}
