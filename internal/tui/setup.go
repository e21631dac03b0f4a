package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/cardwise/internal/config"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	Theme       string
	Reminders   []string // reminder category names
	PaymentHour string
	DBPath      string
}

// SetupValuesFrom seeds the form with cfg's current settings.
func SetupValuesFrom(cfg config.Config) SetupValues {
	v := SetupValues{
		Theme:       cfg.Appearance.Theme,
		PaymentHour: strconv.Itoa(cfg.Reminders.PaymentHour),
		DBPath:      cfg.General.DBPath,
	}
	prefs := cfg.Preferences()
	for _, c := range engine.ReminderCategories {
		if prefs.Enabled(c) {
			v.Reminders = append(v.Reminders, string(c))
		}
	}
	return v
}

var reminderLabels = map[engine.ReminderCategory]string{
	engine.ReminderPayment:       "Payment due dates",
	engine.ReminderLimitIncrease: "Limit increase eligibility",
	engine.ReminderAnnualFee:     "Annual fee renewals",
}

func validateHour(s string) error {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || h < 0 || h > 23 {
		return fmt.Errorf("enter an hour between 0 and 23")
	}
	return nil
}

// NewSetupForm builds the first-run form. Answers are written into v.
func NewSetupForm(cardCount int, v *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	enabled := make(map[string]bool, len(v.Reminders))
	for _, r := range v.Reminders {
		enabled[r] = true
	}
	reminderOpts := make([]huh.Option[string], 0, len(engine.ReminderCategories))
	for _, c := range engine.ReminderCategories {
		reminderOpts = append(reminderOpts,
			huh.NewOption(reminderLabels[c], string(c)).Selected(enabled[string(c)]))
	}

	welcome := "No cards yet. Add one with `cardwise card add`."
	if cardCount > 0 {
		welcome = fmt.Sprintf("Tracking %d card(s).", cardCount)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cardwise").
				Description(welcome+"\nA few settings and you're done."),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Reminders").
				Description("Which events should schedule notifications?").
				Options(reminderOpts...).
				Value(&v.Reminders),
			huh.NewInput().
				Title("Payment reminder hour").
				Description("Local hour of day, 0-23").
				Value(&v.PaymentHour).
				Validate(validateHour),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Database path").
				Description("Leave empty for "+config.DataDir()).
				Placeholder("cardwise.db").
				Value(&v.DBPath),
		),
	)
}

// Apply writes the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) error {
	if err := validateHour(v.PaymentHour); err != nil {
		return err
	}
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	cfg.Reminders.PaymentHour, _ = strconv.Atoi(strings.TrimSpace(v.PaymentHour))
	cfg.General.DBPath = strings.TrimSpace(v.DBPath)

	var prefs engine.Preferences
	for _, r := range v.Reminders {
		switch engine.ReminderCategory(r) {
		case engine.ReminderPayment:
			prefs.Payment = true
		case engine.ReminderLimitIncrease:
			prefs.LimitIncrease = true
		case engine.ReminderAnnualFee:
			prefs.AnnualFee = true
		}
	}
	cfg.SetPreferences(prefs)
	return nil
}
