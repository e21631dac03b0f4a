package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database: %s\n", dbPath(cfg))
	fmt.Println()

	r := cfg.Reminders
	fmt.Println("  [Reminders]")
	fmt.Printf("    Payment:        %-3s at %02d:00\n", onOff(r.Payment), r.PaymentHour)
	fmt.Printf("    Limit increase: %-3s at %02d:00\n", onOff(r.LimitIncrease), r.LimitIncreaseHour)
	fmt.Printf("    Annual fee:     %-3s at %02d:00\n", onOff(r.AnnualFee), r.AnnualFeeHour)
	fmt.Println()

	d := cfg.Daemon
	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", d.Addr)
	fmt.Printf("    Refresh:  %s\n", d.RefreshSpec)
	fmt.Printf("    Dispatch: %s\n", d.DispatchSpec)
	fmt.Println()

	fmt.Println("  [Mail]")
	if cfg.Mail.Enabled() {
		fmt.Printf("    Server: %s:%d\n", cfg.Mail.Host, cfg.Mail.Port)
		fmt.Printf("    From:   %s\n", cfg.Mail.From)
		fmt.Printf("    To:     %s\n", strings.Join(cfg.Mail.To, ", "))
		if cfg.Mail.Password != "" {
			fmt.Println("    Password: set")
		}
	} else {
		fmt.Println("    Not configured; reminders are written to the log")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.LogLevel())
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  Run `cardwise setup` to reconfigure.")
	return nil
}
