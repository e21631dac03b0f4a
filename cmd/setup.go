package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/config"
	"github.com/theirongolddev/cardwise/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose theme, reminders and database location",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	cards := 0
	if a, err := openApp(false); err == nil {
		if snap, err := a.store.Load(context.Background()); err == nil {
			cards = len(snap.ActiveCards())
		}
		_ = a.Close()
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(cards, &vals).Run(); err != nil {
		return err
	}
	if err := vals.Apply(&cfg); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `cardwise remind plan` to reschedule reminders with the new settings.")
	return nil
}
