// Package tui provides the interactive Bubble Tea dashboard for cardwise.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cardwise/internal/config"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/notify"
	"github.com/theirongolddev/cardwise/internal/pipeline"
	"github.com/theirongolddev/cardwise/internal/tui/components"
	"github.com/theirongolddev/cardwise/internal/tui/theme"
)

// Source is the data behind the dashboard. *pipeline.Runner satisfies it.
type Source interface {
	Refresh(ctx context.Context) (pipeline.RefreshResult, error)
	SetPreferences(ctx context.Context, prefs engine.Preferences) (pipeline.RefreshResult, error)
	Engine() *engine.Engine
}

// PendingLister lists queued reminders.
type PendingLister interface {
	Pending(ctx context.Context) ([]notify.Reminder, error)
}

// DataLoadedMsg is sent when the first refresh finishes.
type DataLoadedMsg struct {
	Result   pipeline.RefreshResult
	Pending  []notify.Reminder
	Err      error
	LoadTime time.Duration
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg DataLoadedMsg

type tickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	src     Source
	pending PendingLister
	cfg     config.Config

	// Data
	snap      model.Snapshot
	summaries []model.CardSummary
	health    engine.HealthReport
	months    []model.MonthlyStats // oldest first
	cats      []model.CategoryStats
	kinds     pipeline.KindTotals
	upcoming  []pipeline.Event
	queued    []notify.Reminder
	loaded    bool
	loadTime  time.Duration
	err       error

	// Refresh state
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width        int
	height       int
	activeTab    int
	showHelp     bool
	cursor       int
	showArchived bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160
	minContentHeight = 5

	spendingMonths  = 6
	upcomingHorizon = 45
)

// NewApp creates the dashboard model. pending may be nil.
func NewApp(src Source, pending PendingLister, cfg config.Config, refreshEvery time.Duration) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	if refreshEvery < 10*time.Second {
		refreshEvery = time.Minute
	}
	vals := SetupValuesFrom(cfg)
	return App{
		src:             src,
		pending:         pending,
		cfg:             cfg,
		needSetup:       !config.Exists(),
		setupVals:       &vals,
		refreshInterval: refreshEvery,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.src, a.pending, false),
		a.spinner.Tick,
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} })
}

// loadDataCmd runs a refresh in the background and reports the outcome.
func loadDataCmd(src Source, pending PendingLister, background bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		start := time.Now()
		msg := DataLoadedMsg{}
		msg.Result, msg.Err = src.Refresh(ctx)
		if msg.Err == nil && pending != nil {
			msg.Pending, msg.Err = pending.Pending(ctx)
		}
		msg.LoadTime = time.Since(start)
		if background {
			return RefreshDataMsg(msg)
		}
		return msg
	}
}

func savePreferencesCmd(src Source, pending PendingLister, prefs engine.Preferences) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		start := time.Now()
		msg := RefreshDataMsg{}
		msg.Result, msg.Err = src.SetPreferences(ctx, prefs)
		if msg.Err == nil && pending != nil {
			msg.Pending, msg.Err = pending.Pending(ctx)
		}
		msg.LoadTime = time.Since(start)
		return msg
	}
}

// apply stores a refresh result and recomputes everything the tabs show.
func (a *App) apply(msg DataLoadedMsg) {
	a.err = msg.Err
	a.loadTime = msg.LoadTime
	a.lastRefresh = time.Now()
	if msg.Err != nil {
		return
	}
	a.snap = msg.Result.Snapshot
	a.queued = msg.Pending
	a.recompute()
}

func (a *App) recompute() {
	eng := a.src.Engine()
	now := eng.Now()

	cards := a.snap.ActiveCards()
	if a.showArchived {
		cards = a.snap.Cards
	}
	a.summaries = pipeline.Summaries(eng, cards, a.snap.LimitIncreaseRecords)
	a.health = engine.AggregateHealth(a.snap.ActiveCards(), a.snap.Transactions, now)

	until := dates.AddMonths(dates.MonthStart(now), 1)
	since := dates.AddMonths(until, -spendingMonths)
	months := pipeline.AggregateMonths(a.snap.Transactions, since, until)
	a.months = make([]model.MonthlyStats, len(months))
	for i, m := range months {
		a.months[len(months)-1-i] = m
	}
	monthStart := dates.MonthStart(now)
	a.cats = pipeline.AggregateCategories(a.snap.Transactions, monthStart, until)
	a.kinds, _ = pipeline.AggregateKinds(a.snap.Transactions, monthStart, until)
	a.upcoming = pipeline.Upcoming(eng, a.snap, upcomingHorizon)

	if a.cursor >= len(a.summaries) {
		a.cursor = len(a.summaries) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.apply(msg)
		if a.needSetup {
			a.setupForm = NewSetupForm(len(a.snap.Cards), a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case RefreshDataMsg:
		a.refreshing = false
		a.apply(DataLoadedMsg(msg))
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && !a.refreshing && a.setupForm == nil && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, loadDataCmd(a.src, a.pending, true))
		}
		return a, tea.Batch(cmds...)
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, loadDataCmd(a.src, a.pending, true)
		}
	case "a":
		a.showArchived = !a.showArchived
		a.recompute()
	case "j", "down":
		a.moveCursor(1)
	case "k", "up":
		a.moveCursor(-1)
	case "g":
		a.cursor = 0
	case "G":
		a.cursor = len(a.summaries) - 1
		if a.cursor < 0 {
			a.cursor = 0
		}
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	if a.activeTab != 0 {
		return
	}
	next := a.cursor + delta
	if next < 0 || next >= len(a.summaries) {
		return
	}
	a.cursor = next
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		a.needSetup = false
		if err := a.setupVals.Apply(&a.cfg); err != nil {
			a.err = err
			return a, nil
		}
		if err := config.Save(a.cfg); err != nil {
			a.err = fmt.Errorf("saving config: %w", err)
		}
		theme.SetActive(a.cfg.Appearance.Theme)
		a.refreshing = true
		return a, savePreferencesCmd(a.src, a.pending, a.cfg.Preferences())
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	if a.width > maxContentWidth {
		return maxContentWidth
	}
	return a.width
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return a.viewTooNarrow()
	case !a.loaded:
		return a.viewLoading()
	case a.setupForm != nil:
		return a.setupForm.View()
	case a.showHelp:
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  cardwise needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := logoStyle.Render("◈ cardwise") + subtitleStyle.Render(" · credit card tracker") + "\n\n" +
		a.spinner.View() + subtitleStyle.Render(" Refreshing cards...")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	bindings := []struct{ key, desc string }{
		{"c s h u", "Jump to tab"},
		{"← → tab", "Previous / next tab"},
		{"j k", "Select card"},
		{"g G", "First / last card"},
		{"a", "Show archived cards"},
		{"r", "Refresh now"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(fmt.Sprintf("%-10s", bind.key)), descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	status := components.Status{Refreshing: a.refreshing}
	if a.err != nil {
		status.Err = a.err.Error()
	} else if !a.lastRefresh.IsZero() {
		status.Refreshed = fmt.Sprintf("%s (%s)", a.lastRefresh.Format("15:04"), a.loadTime.Round(time.Millisecond))
	}
	statusBar := components.RenderStatusBar(w, status)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case 0:
		content = a.renderCardsTab(cw)
	case 1:
		content = a.renderSpendingTab(cw)
	case 2:
		content = a.renderHealthTab(cw)
	case 3:
		content = a.renderUpcomingTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// tabAtX returns the tab index at column x, or -1. Hitboxes follow the
// widths RenderTabBar draws, with a one-column separator between tabs.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1
	}
	return -1
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
