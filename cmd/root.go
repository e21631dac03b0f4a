// Package cmd implements the cardwise CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cardwise/internal/config"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/notify"
	"github.com/theirongolddev/cardwise/internal/pipeline"
	"github.com/theirongolddev/cardwise/internal/store"
)

var (
	flagDB    string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:   "cardwise",
	Short: "Personal credit card tracker",
	Long: "Track credit cards, billing cycles, subscriptions, installment plans and\n" +
		"limit increases, with health scores and payment reminders.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
}

// loadConfig returns the config file merged over defaults. A broken file is
// reported and defaults are used so read-only commands still work.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  warning: %v (using defaults)\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// newLogger builds the process logger. json forces the JSON formatter.
func newLogger(cfg config.Config, json bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if json || cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	log.SetLevel(cfg.LogLevel())
	if flagQuiet && log.GetLevel() > logrus.WarnLevel {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// app is the wiring shared by every command that touches the database.
type app struct {
	cfg   config.Config
	log   *logrus.Logger
	store *store.Store
	queue *notify.Queue
	eng   *engine.Engine
	run   *pipeline.Runner
}

func dbPath(cfg config.Config) string {
	if flagDB != "" {
		return flagDB
	}
	return cfg.DatabasePath()
}

// openApp opens the database and wires store, reminder queue, engine and
// runner. json selects the JSON log formatter.
func openApp(json bool) (*app, error) {
	cfg := loadConfig()
	log := newLogger(cfg, json)

	path := dbPath(cfg)
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	q := notify.NewQueue(st.DB())
	eng := engine.New(engine.WithReminderHours(cfg.Hours()))
	return &app{
		cfg:   cfg,
		log:   log,
		store: st,
		queue: q,
		eng:   eng,
		run:   pipeline.NewRunner(st, eng, q, cfg.Preferences(), log.WithField("component", "pipeline")),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// refresh brings derived state up to date and reports billed subscriptions.
func (a *app) refresh(ctx context.Context) (pipeline.RefreshResult, error) {
	res, err := a.run.Refresh(ctx)
	if err != nil {
		return res, err
	}
	if len(res.Emitted) > 0 && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Billed %d subscription charge(s)\n", len(res.Emitted))
	}
	return res, nil
}

// withApp opens the app, runs fn and closes the database.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return fn(ctx, a)
}

const dateLayout = "2006-01-02"

// parseDate reads a YYYY-MM-DD flag in local time. Empty means today.
func parseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return dates.StartOfDay(now), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseOptionalDate is parseDate where empty means unset.
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// resolveCard refreshes and finds the card named by ref.
func (a *app) resolveCard(ctx context.Context, ref string) (model.Card, pipeline.RefreshResult, error) {
	res, err := a.refresh(ctx)
	if err != nil {
		return model.Card{}, res, err
	}
	c, err := pipeline.ResolveCard(res.Snapshot, ref)
	return c, res, err
}

// cardNames maps card IDs to display names.
func cardNames(cards []model.Card) map[string]string {
	names := make(map[string]string, len(cards))
	for _, c := range cards {
		names[c.ID] = c.Name
	}
	return names
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
