// Package config loads and saves the cardwise TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/notify"
)

// Config holds all cardwise configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Reminders  RemindersConfig  `toml:"reminders"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Mail       MailConfig       `toml:"mail"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DBPath string `toml:"db_path,omitempty"`
}

// RemindersConfig switches reminder categories on and off and sets the hour
// each one fires at.
type RemindersConfig struct {
	Payment           bool `toml:"payment"`
	LimitIncrease     bool `toml:"limit_increase"`
	AnnualFee         bool `toml:"annual_fee"`
	PaymentHour       int  `toml:"payment_hour"`
	LimitIncreaseHour int  `toml:"limit_increase_hour"`
	AnnualFeeHour     int  `toml:"annual_fee_hour"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr           string `toml:"addr"`
	RefreshSpec    string `toml:"refresh_spec"`
	DispatchSpec   string `toml:"dispatch_spec"`
	EventsBuffer   int    `toml:"events_buffer"`
	RefreshOnStart bool   `toml:"refresh_on_start"`
}

// MailConfig holds SMTP delivery settings. The password is read from
// CARDWISE_SMTP_PASSWORD when set.
type MailConfig struct {
	Host     string   `toml:"host,omitempty"`
	Port     int      `toml:"port,omitempty"`
	Username string   `toml:"username,omitempty"`
	Password string   `toml:"password,omitempty"`
	From     string   `toml:"from,omitempty"`
	To       []string `toml:"to,omitempty"`
}

// Enabled reports whether SMTP delivery is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != "" && len(m.To) > 0
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	hours := engine.DefaultReminderHours()
	return Config{
		Reminders: RemindersConfig{
			Payment:           true,
			LimitIncrease:     true,
			AnnualFee:         true,
			PaymentHour:       hours.Payment,
			LimitIncreaseHour: hours.LimitIncrease,
			AnnualFeeHour:     hours.AnnualFee,
		},
		Daemon: DaemonConfig{
			Addr:           "127.0.0.1:8787",
			RefreshSpec:    "@every 1h",
			DispatchSpec:   "@every 1m",
			EventsBuffer:   200,
			RefreshOnStart: true,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cardwise")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cardwise")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cardwise")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cardwise")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied either way.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if pw := os.Getenv("CARDWISE_SMTP_PASSWORD"); pw != "" {
		cfg.Mail.Password = pw
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}
}

// Save writes the config to disk. A password that came from the environment
// is not persisted.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pw := os.Getenv("CARDWISE_SMTP_PASSWORD"); pw != "" && cfg.Mail.Password == pw {
		cfg.Mail.Password = ""
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// DatabasePath returns the configured database path, defaulting to
// cardwise.db under DataDir.
func (c Config) DatabasePath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "cardwise.db")
}

// Preferences converts the reminder switches.
func (c Config) Preferences() engine.Preferences {
	return engine.Preferences{
		Payment:       c.Reminders.Payment,
		LimitIncrease: c.Reminders.LimitIncrease,
		AnnualFee:     c.Reminders.AnnualFee,
	}
}

// SetPreferences stores p back into the reminder switches.
func (c *Config) SetPreferences(p engine.Preferences) {
	c.Reminders.Payment = p.Payment
	c.Reminders.LimitIncrease = p.LimitIncrease
	c.Reminders.AnnualFee = p.AnnualFee
}

// Hours returns the per-category reminder hours.
func (c Config) Hours() engine.ReminderHours {
	return engine.ReminderHours{
		Payment:       c.Reminders.PaymentHour,
		LimitIncrease: c.Reminders.LimitIncreaseHour,
		AnnualFee:     c.Reminders.AnnualFeeHour,
	}
}

// SMTP returns the notify sender settings.
func (c Config) SMTP() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     c.Mail.Host,
		Port:     c.Mail.Port,
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		From:     c.Mail.From,
		To:       c.Mail.To,
	}
}

// LogLevel parses the configured level, falling back to info.
func (c Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(c.Log.Level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
