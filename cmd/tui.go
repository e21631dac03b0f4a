package cmd

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/tui"
	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

var flagTUIRefresh time.Duration

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&flagTUIRefresh, "refresh", time.Minute, "Auto-refresh interval (minimum 10s)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// Log lines would tear the alt screen.
	a.log.SetOutput(io.Discard)

	theme.SetActive(a.cfg.Appearance.Theme)

	// Force TrueColor so background styling always emits ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	p := tea.NewProgram(tui.NewApp(a.run, a.queue, a.cfg, flagTUIRefresh), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
