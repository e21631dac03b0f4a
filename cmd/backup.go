package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/backup"
	"github.com/theirongolddev/cardwise/internal/export"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

var (
	flagBackupOut  string
	flagBackupYes  bool
	flagExportOut  string
	flagExportCard string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore a full JSON backup",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every record to a JSON backup",
	Args:  cobra.NoArgs,
	RunE:  runBackupExport,
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all data with the contents of a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export flat CSV views",
}

var exportCSVCmd = &cobra.Command{
	Use:       "csv <transactions|cards>",
	Short:     "Write transactions or cards as CSV",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"transactions", "cards"},
	RunE:      runExportCSV,
}

func init() {
	backupExportCmd.Flags().StringVarP(&flagBackupOut, "output", "o", "", "Output file (default stdout)")
	backupImportCmd.Flags().BoolVarP(&flagBackupYes, "yes", "y", false, "Replace existing data without asking")
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)

	exportCSVCmd.Flags().StringVarP(&flagExportOut, "output", "o", "", "Output file (default stdout)")
	exportCSVCmd.Flags().StringVar(&flagExportCard, "card", "", "Only this card's transactions")
	exportCmd.AddCommand(exportCSVCmd)

	rootCmd.AddCommand(backupCmd, exportCmd)
}

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	//nolint:gosec // output path is chosen by the local user
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func runBackupExport(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		out, err := openOutput(flagBackupOut)
		if err != nil {
			return err
		}
		if err := backup.Encode(out, res.Snapshot, a.eng.Now()); err != nil {
			_ = out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		if flagBackupOut != "" {
			fmt.Fprintf(os.Stderr, "  Wrote %d cards, %d transactions to %s\n",
				len(res.Snapshot.Cards), len(res.Snapshot.Transactions), flagBackupOut)
		}
		return nil
	})
}

func runBackupImport(_ *cobra.Command, args []string) error {
	//nolint:gosec // backup path is chosen by the local user
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	snap, meta, err := backup.Decode(f)
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app) error {
		current, err := a.store.Load(ctx)
		if err != nil {
			return err
		}
		if len(current.Cards) > 0 && !flagBackupYes {
			return fmt.Errorf("database already has %d cards; pass --yes to replace them", len(current.Cards))
		}
		res, err := a.run.Restore(ctx, snap)
		if err != nil {
			return err
		}
		fmt.Printf("  Restored version %d backup from %s: %d cards, %d transactions, %d subscriptions\n",
			meta.Version, meta.Timestamp.Local().Format("2006-01-02 15:04"),
			len(res.Snapshot.Cards), len(res.Snapshot.Transactions), len(res.Snapshot.Subscriptions))
		return nil
	})
}

func runExportCSV(_ *cobra.Command, args []string) error {
	what := args[0]
	if what != "transactions" && what != "cards" {
		return fmt.Errorf("unknown export %q (want transactions or cards)", what)
	}
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.refresh(ctx)
		if err != nil {
			return err
		}
		snap := res.Snapshot
		out, err := openOutput(flagExportOut)
		if err != nil {
			return err
		}

		switch what {
		case "transactions":
			txs := snap.Transactions
			if flagExportCard != "" {
				c, err := pipeline.ResolveCard(snap, flagExportCard)
				if err != nil {
					_ = out.Close()
					return err
				}
				txs = pipeline.FilterByCard(txs, c.ID)
			}
			err = export.Transactions(out, pipeline.SortByDate(txs), snap.Cards)
		case "cards":
			err = export.Cards(out, pipeline.Summaries(a.eng, snap.Cards, snap.LimitIncreaseRecords))
		}
		if err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	})
}
