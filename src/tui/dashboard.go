// Package tui provides the terminal dashboard for dora dataflows.
// Every capability call runs as a tea.Cmd, off the update loop.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
	"github.com/heyong4725/dora-tui/src/sanitize"
)

const (
	// callTimeout bounds every capability call made by the dashboard.
	callTimeout = 10 * time.Second
	// maxLogLines is how many followed log lines the log panel keeps.
	maxLogLines = 500
)

// View names accepted as the default view preference.
const (
	ViewDashboard = "dashboard"
	ViewLogs      = "logs"
)

// themes is the cycle order of the theme toggle.
var themes = []string{"auto", "dark", "light"}

// FollowFunc follows the log events of a dataflow until ctx is cancelled.
type FollowFunc func(ctx context.Context, dataflowID uuid.UUID) (<-chan protocol.LogEvent, error)

// Options configures the dashboard.
type Options struct {
	// Backend is shown in the header.
	Backend string
	// Follow enables the log panel. Nil when the backend cannot stream logs.
	Follow FollowFunc
	// View overrides the default view preference.
	View string
}

type (
	dataflowsMsg struct {
		flows []provider.DataflowSummary
		err   error
	}
	metricsMsg struct {
		metrics provider.SystemMetrics
		err     error
	}
	prefsMsg struct {
		prefs provider.UserPreferencesSnapshot
		err   error
	}
	savedMsg struct {
		prefs provider.UserPreferencesSnapshot
		err   error
	}
	followMsg struct {
		name   string
		events <-chan protocol.LogEvent
		cancel context.CancelFunc
		err    error
	}
	logMsg struct {
		event protocol.LogEvent
	}
	logEndMsg struct{}
	tickMsg   time.Time
)

// Model is the Bubble Tea model of the dashboard.
type Model struct {
	ctx      context.Context
	services provider.Services
	opts     Options
	now      func() time.Time

	prefs     provider.UserPreferencesSnapshot
	prefsSet  bool
	styles    *StyleConfig
	header    Header
	table     table.Model
	spinner   spinner.Model
	flows     []provider.DataflowSummary
	loading   bool
	err       error
	view      string
	width     int
	height    int
	logs      []string
	logTarget string
	logEvents <-chan protocol.LogEvent
	logCancel context.CancelFunc
}

// NewModel creates the dashboard model.
func NewModel(ctx context.Context, services provider.Services, opts Options) Model {
	styles := DefaultStyles()

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(styles))

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(styles.Pending)

	view := opts.View
	if view == "" {
		view = ViewDashboard
	}

	return Model{
		ctx:      ctx,
		services: services,
		opts:     opts,
		now:      time.Now,
		prefs:    provider.UserPreferencesSnapshot{Theme: "auto", AutoRefreshIntervalSecs: 1, ShowSystemInfo: true},
		styles:   styles,
		header:   NewHeader(opts.Backend, "auto", styles),
		table:    t,
		spinner:  s,
		loading:  true,
		view:     view,
	}
}

func columns(width int) []table.Column {
	fixed := 10 + 8 + 20
	name := width - fixed - 12
	if name < 12 {
		name = 12
	}
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Status", Width: 10},
		{Title: "Nodes", Width: 8},
		{Title: "Updated", Width: 20},
	}
}

func tableStyles(styles *StyleConfig) table.Styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderColor).
		BorderBottom(true).
		Foreground(styles.PrimaryBlue).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.SelectedColor).
		Bold(true)
	return ts
}

// Init loads preferences and the first snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadPrefs(), m.refresh())
}

func (m Model) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, callTimeout)
}

func (m Model) loadPrefs() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		prefs, err := m.services.Preferences.Load(ctx)
		return prefsMsg{prefs: prefs, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	listFlows := func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		flows, err := m.services.Coordinator.ListDataflows(ctx)
		return dataflowsMsg{flows: flows, err: err}
	}
	readMetrics := func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		metrics, err := m.services.Telemetry.LatestMetrics(ctx)
		return metricsMsg{metrics: metrics, err: err}
	}
	if !m.prefs.ShowSystemInfo {
		return listFlows
	}
	return tea.Batch(listFlows, readMetrics)
}

func (m Model) scheduleTick() tea.Cmd {
	interval := time.Duration(max(m.prefs.AutoRefreshIntervalSecs, 1)) * time.Second
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) save(prefs provider.UserPreferencesSnapshot) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		return savedMsg{prefs: prefs, err: m.services.Preferences.Save(ctx, prefs)}
	}
}

func (m Model) follow(flow provider.DataflowSummary) tea.Cmd {
	follow := m.opts.Follow
	ctx := m.ctx
	return func() tea.Msg {
		id, err := uuid.Parse(flow.ID)
		if err != nil {
			return followMsg{name: flow.Name, err: fmt.Errorf("invalid dataflow id %q: %w", flow.ID, err)}
		}
		followCtx, cancel := context.WithCancel(ctx)
		events, err := follow(followCtx, id)
		if err != nil {
			cancel()
			return followMsg{name: flow.Name, err: err}
		}
		return followMsg{name: flow.Name, events: events, cancel: cancel}
	}
}

func waitForLog(events <-chan protocol.LogEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return logEndMsg{}
		}
		return logMsg{event: event}
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case prefsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, m.scheduleTick()
		}
		m.applyPrefs(msg.prefs)
		return m, m.scheduleTick()

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.applyPrefs(msg.prefs)
		return m, nil

	case dataflowsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.setFlows(msg.flows)
		return m, nil

	case metricsMsg:
		if msg.err == nil {
			m.header.SetMetrics(msg.metrics)
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.scheduleTick())

	case followMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.stopFollowing()
		m.logTarget = msg.name
		m.logEvents = msg.events
		m.logCancel = msg.cancel
		m.logs = nil
		m.view = ViewLogs
		return m, waitForLog(msg.events)

	case logMsg:
		m.appendLog(msg.event)
		if m.logEvents == nil {
			return m, nil
		}
		return m, waitForLog(m.logEvents)

	case logEndMsg:
		m.logs = append(m.logs, "-- log stream ended --")
		m.logEvents = nil
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.stopFollowing()
		return m, tea.Quit

	case "r":
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refresh())

	case "t":
		next := m.prefs
		next.Theme = nextTheme(m.prefs.Theme)
		return m, m.save(next)

	case "tab":
		if m.view == ViewDashboard {
			m.view = ViewLogs
		} else {
			m.view = ViewDashboard
		}
		return m, nil

	case "enter":
		if m.opts.Follow == nil || len(m.flows) == 0 {
			return m, nil
		}
		cursor := m.table.Cursor()
		if cursor < 0 || cursor >= len(m.flows) {
			return m, nil
		}
		return m, m.follow(m.flows[cursor])

	case "esc":
		m.stopFollowing()
		m.view = ViewDashboard
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func nextTheme(current string) string {
	for i, theme := range themes {
		if theme == current {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

func (m *Model) applyPrefs(prefs provider.UserPreferencesSnapshot) {
	first := !m.prefsSet
	m.prefs = prefs
	m.prefsSet = true
	m.styles = StylesFor(prefs.Theme)
	m.header.SetTheme(prefs.Theme, m.styles)
	m.header.ShowMetrics(prefs.ShowSystemInfo)
	m.table.SetStyles(tableStyles(m.styles))
	if first && m.opts.View == "" && prefs.DefaultView != nil && *prefs.DefaultView == ViewLogs {
		m.view = ViewLogs
	}
}

func (m *Model) setFlows(flows []provider.DataflowSummary) {
	m.flows = flows
	rows := make([]table.Row, len(flows))
	for i, df := range flows {
		updated := "-"
		if !df.UpdatedAt.IsZero() {
			updated = df.UpdatedAt.Local().Format("2006-01-02 15:04:05")
		}
		rows[i] = table.Row{df.Name, df.Status, fmt.Sprintf("%d", len(df.Nodes)), updated}
	}
	m.table.SetRows(rows)
}

func (m *Model) appendLog(e protocol.LogEvent) {
	var b strings.Builder
	b.WriteString(e.Timestamp.Local().Format("15:04:05.000"))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%-5s", mapping.LogLevel(e.Level)))
	if e.Node != nil {
		b.WriteString(" [")
		b.WriteString(*e.Node)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(sanitize.LogLine(e.Line))

	m.logs = append(m.logs, b.String())
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}

func (m *Model) stopFollowing() {
	if m.logCancel != nil {
		m.logCancel()
		m.logCancel = nil
	}
	m.logEvents = nil
}

func (m *Model) resize() {
	m.table.SetColumns(columns(m.width))
	m.table.SetWidth(m.width - 2)
	m.table.SetHeight(max(m.bodyHeight()-2, 3))
}

// bodyHeight is the height left for the main panel: header (2) + help (1) + error (1).
func (m Model) bodyHeight() int {
	return max(m.height-4, 5)
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "\n  Initializing..."
	}

	header := m.header.Render(m.width, m.now())

	var body string
	switch {
	case m.view == ViewLogs:
		body = m.renderLogs()
	case m.loading && len(m.flows) == 0:
		body = lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			PaddingTop(2).
			Render(m.spinner.View() + " Loading dataflows...")
	case len(m.flows) == 0:
		body = m.styles.HelpStyle().PaddingTop(1).Render("No dataflows running.")
	default:
		body = m.styles.PanelStyle().Render(m.table.View())
	}

	errLine := ""
	if m.err != nil {
		errLine = m.styles.ErrorStyle().Render(Truncate(provider.WrapError(m.err).Error(), m.width-4, true))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, errLine, m.renderHelpText())
}

func (m Model) renderLogs() string {
	height := m.bodyHeight() - 3
	title := "no dataflow followed, select one and press Enter"
	if m.logTarget != "" {
		title = "logs: " + m.logTarget
	}

	lines := m.logs
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	width := m.width - 4
	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = Truncate(l, width, true)
	}

	return m.styles.PanelStyle().
		Width(m.width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.styles.TitleStyle().Render(title), strings.Join(rendered, "\n")))
}

// renderHelpText renders context-aware help text at the bottom
func (m Model) renderHelpText() string {
	keyStyle := lipgloss.NewStyle().Foreground(m.styles.PrimaryBlue).Bold(true)
	sepStyle := lipgloss.NewStyle().Foreground(m.styles.TextSecondary)
	sep := sepStyle.Render(" • ")

	parts := []string{
		keyStyle.Render("j/k") + ": Nav",
		keyStyle.Render("r") + ": Refresh",
		keyStyle.Render("t") + ": Theme",
		keyStyle.Render("Tab") + ": View",
	}
	if m.opts.Follow != nil {
		parts = append(parts, keyStyle.Render("Enter")+": Logs", keyStyle.Render("Esc")+": Back")
	}
	parts = append(parts, keyStyle.Render("q")+": Quit")

	return m.styles.HelpStyle().Render(strings.Join(parts, sep))
}

// Start runs the dashboard until the user quits.
func Start(ctx context.Context, services provider.Services, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, services, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.stopFollowing()
	}
	return err
}
