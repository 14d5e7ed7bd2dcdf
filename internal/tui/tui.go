// Package tui provides a Bubble Tea dashboard that follows one session's
// health while its transcript grows.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/sessionhealth/internal/analyzer"
	"github.com/fakeyudi/sessionhealth/internal/report"
	"github.com/fakeyudi/sessionhealth/internal/severity"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

const barWidth = 30

// ── Tabs ─────────────────

type tabID int

const (
	tabOverview tabID = iota
	tabEvents
	tabCount
)

var tabNames = [tabCount]string{"Overview", "Events"}

// ── Keys ─────────────────

type keyMap struct {
	Quit    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Recheck key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Next:    key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("→", "next tab")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("←", "prev tab")),
	Recheck: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recheck")),
}

// ── Messages ─────────────

// ReportMsg delivers the outcome of one analysis to the dashboard.
type ReportMsg analyzer.Report

// Limits are the critical thresholds the overview bars are scaled against.
type Limits struct {
	Turns         int
	ContextTokens int
	Compactions   int
}

type event struct {
	at  time.Time
	rep analyzer.Report
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	sessionID string
	filename  string
	limits    Limits
	recheck   func() analyzer.Report

	last      *analyzer.Report
	events    []event
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	now       func() time.Time
}

// New creates a dashboard for sessionID. recheck, when non-nil, runs an
// analysis on demand.
func New(sessionID, transcriptPath string, limits Limits, recheck func() analyzer.Report) Model {
	return Model{
		sessionID: sessionID,
		filename:  filepath.Base(transcriptPath),
		limits:    limits,
		recheck:   recheck,
		now:       time.Now,
	}
}

// Events returns the number of analyses received.
func (m Model) Events() int { return len(m.events) }

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case key.Matches(msg, keys.Prev):
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, keys.Recheck):
			if m.recheck == nil {
				return m, nil
			}
			recheck := m.recheck
			return m, func() tea.Msg { return ReportMsg(recheck()) }
		}
		if !m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case ReportMsg:
		rep := analyzer.Report(msg)
		if !rep.Skipped {
			m.last = &rep
		}
		m.events = append(m.events, event{at: m.now(), rep: rep})
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  sessionhealth  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  " + strings.Join([]string{
		keys.Prev.Help().Key + "/" + keys.Next.Help().Key + " tab",
		"↑/↓ scroll",
		keys.Recheck.Help().Key + " " + keys.Recheck.Help().Desc,
		keys.Quit.Help().Key + " " + keys.Quit.Help().Desc,
	}, "  ")
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	for i := tabID(0); i < tabCount; i++ {
		m.viewports[i].SetContent(m.renderTab(i))
	}
	m.viewports[tabEvents].GotoBottom()
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabOverview:
		return m.renderOverview()
	case tabEvents:
		return m.renderEvents()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func levelBadge(l severity.Level) string {
	return report.LevelStyle(l).Render(fmt.Sprintf(" %s ", strings.ToUpper(l.String())))
}

func (m *Model) renderOverview() string {
	var sb strings.Builder
	sb.WriteString(heading("Session " + m.sessionID))

	if m.last == nil {
		sb.WriteString(dimStyle.Render("  Waiting for the first analysis…") + "\n")
		return sb.String()
	}
	s := m.last.Summary
	level := m.last.Result.Level

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-13s", label)) + "  " + value + "\n")
	}
	row("Severity:", levelBadge(level))
	row("Updated:", s.UpdatedAt.Local().Format("15:04:05"))

	sb.WriteString(heading("Signals"))
	signal := func(name string, value, limit int, unit string) {
		l := issueLevel(m.last.Result, name)
		bar := report.LevelStyle(l).Render(report.Bar(value, limit, barWidth))
		row(strings.ToUpper(name[:1])+name[1:]+":", fmt.Sprintf("%s  %d%s / %d", bar, value, unit, limit))
	}
	signal(severity.SignalTurns, s.TurnCount, m.limits.Turns, "")
	signal(severity.SignalContext, s.ContextLength, m.limits.ContextTokens, " tok")
	signal(severity.SignalCompactions, s.CompactionCount, m.limits.Compactions, "")
	row("Peak context:", fmt.Sprintf("%d tok", s.PeakContextLength))

	if m.last.Message != "" {
		sb.WriteString(heading("Advisory"))
		sb.WriteString("  " + m.last.Message + "\n")
	}
	return sb.String()
}

func (m *Model) renderEvents() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Analyses (%d)", len(m.events))))
	if len(m.events) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, e := range m.events {
		ts := timeStyle.Render(e.at.Format("15:04:05"))
		switch {
		case e.rep.Skipped:
			sb.WriteString(fmt.Sprintf("  %s  %s\n", ts, dimStyle.Render("transcript unavailable, skipped")))
		default:
			detail := fmt.Sprintf("+%d records, +%d bytes", e.rep.Records, e.rep.NewBytes)
			if e.rep.Compacted {
				detail += ", compaction"
			}
			if e.rep.Truncated {
				detail += ", truncated"
			}
			sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", ts, levelBadge(e.rep.Result.Level), detail))
		}
	}
	return sb.String()
}

func issueLevel(res severity.Result, signal string) severity.Level {
	for _, is := range res.Issues {
		if is.Signal == signal {
			return is.Level
		}
	}
	return severity.Info
}

// Run starts the dashboard. feed is called with a send function once the
// program exists; it should push ReportMsg values until the program quits.
func Run(m Model, feed func(send func(tea.Msg))) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	if feed != nil {
		go feed(p.Send)
	}
	_, err := p.Run()
	return err
}
