// ABOUTME: Terminal monitor model and core state management
// ABOUTME: Bubble Tea model polling pool stats and collecting request events

// Package tui provides a live terminal monitor for a running server.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hello-server/pool"
)

// Layout constants for UI dimensions
const (
	statsPanelWidth = 42 // Left panel width for workers and counters
	panelPadding    = 2  // Horizontal spacing between panels

	// UI chrome heights (elements that reduce available viewport space)
	headerHeight    = 2 // Title line plus spacing
	titleHeight     = 2 // Panel title bars
	columnHeight    = 1 // Column headers for the request log
	statusBarHeight = 1 // Bottom status bar
	helpHeight      = 1 // Help text line
	spacingHeight   = 1 // Vertical spacing between elements
	totalUIChrome   = headerHeight + titleHeight + columnHeight + statusBarHeight + helpHeight + spacingHeight

	// Minimum viewport dimensions to ensure usability
	minViewportWidth  = 30
	minViewportHeight = 5
)

// Behaviour constants
const (
	defaultRefreshInterval = 250 * time.Millisecond
	pageJumpSize           = 10              // Events to jump on PageUp/PageDown
	statusMessageDuration  = 5 * time.Second // How long to show transient status messages
	maxEvents              = 500             // Request log entries kept in memory
)

// tickMsg triggers a stats refresh
type tickMsg time.Time

// eventsClosedMsg signals that no more request events will arrive
type eventsClosedMsg struct{}

// serverStoppedMsg signals that the server stopped without the monitor asking
type serverStoppedMsg struct{}

// model holds the monitor state
type model struct {
	// Dependencies
	stats  StatsSource
	events <-chan Event
	stop   func()
	debugf func(string, ...interface{})

	// Configuration
	opts Options

	// Pool state
	snapshot      pool.Stats  // Latest stats
	startTime     time.Time   // When the monitor started
	lastTick      time.Time   // Time of the previous stats refresh
	lastCompleted int64       // Completed count at the previous refresh
	reqPerSec     float64     // Completion rate over the last refresh interval
	statusCounts  map[int]int // Responses by status code

	// Request log
	log       []Event // Oldest first, at most maxEvents
	cursorPos int     // Selected event
	follow    bool    // Keep the cursor on the newest event

	// UI state
	width        int
	height       int
	quitting     bool
	statusMsg    string    // Temporary status message
	statusMsgAge time.Time // When status message was set
	viewport     viewport.Model
}

// Key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Follow   key.Binding
	Clear    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "older request"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "newer request"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("home/g", "oldest request"),
	),
	End: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("end/G", "newest request"),
	),
	Follow: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "toggle follow"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear log"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "stop server"),
	),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	runningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Foreground(lipgloss.Color("15"))
)

// Run shows the monitor until the user quits or ctx is done.
// Quitting calls deps.Stop so the server drains and exits.
func Run(ctx context.Context, opts Options, deps Dependencies) error {
	m := initModel(opts, deps)

	p := tea.NewProgram(m, tea.WithAltScreen())

	finished := make(chan struct{})
	defer close(finished)

	go func() {
		select {
		case <-ctx.Done():
			p.Send(serverStoppedMsg{})
		case <-finished:
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := finalModel.(model); ok {
		fmt.Printf("\nServed %d requests (%d failed) in %s\n",
			m.snapshot.Completed, m.snapshot.Failed, time.Since(m.startTime).Round(time.Second))
	}

	return nil
}

// initModel creates the initial model with injected dependencies
func initModel(opts Options, deps Dependencies) model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}

	debugf := deps.Debugf
	if debugf == nil {
		debugf = func(string, ...interface{}) {}
	}

	stop := deps.Stop
	if stop == nil {
		stop = func() {}
	}

	now := time.Now()

	m := model{
		stats:  deps.Stats,
		events: deps.Events,
		stop:   stop,
		debugf: debugf,

		opts: opts,

		startTime:    now,
		lastTick:     now,
		statusCounts: make(map[int]int),

		follow: true,

		viewport: viewport.New(0, 0), // Width and height set on first WindowSizeMsg
	}

	if m.stats != nil {
		m.snapshot = m.stats.Stats()
		m.lastCompleted = m.snapshot.Completed
	}

	return m
}

// Init starts polling stats and listening for events
func (m model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.opts.RefreshInterval),
		waitForEvent(m.events),
		tea.EnterAltScreen,
	)
}

// ========== Commands ==========

// tick schedules the next stats refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent waits for the next request event and returns it as a message
func waitForEvent(events <-chan Event) tea.Cmd {
	if events == nil {
		return nil
	}

	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}

		return event
	}
}

// ========== Helpers ==========

// refresh takes a new stats snapshot and updates the completion rate
func (m *model) refresh(now time.Time) {
	if m.stats == nil {
		return
	}

	m.snapshot = m.stats.Stats()

	if elapsed := now.Sub(m.lastTick).Seconds(); elapsed > 0 {
		m.reqPerSec = float64(m.snapshot.Completed-m.lastCompleted) / elapsed
	}

	m.lastTick = now
	m.lastCompleted = m.snapshot.Completed
}

// appendEvent adds an event to the log, dropping the oldest past maxEvents
func (m *model) appendEvent(e Event) {
	m.log = append(m.log, e)
	m.statusCounts[e.Status]++

	if over := len(m.log) - maxEvents; over > 0 {
		m.log = append(m.log[:0:0], m.log[over:]...)

		m.cursorPos -= over
		if m.cursorPos < 0 {
			m.cursorPos = 0
		}
	}

	if m.follow {
		m.cursorPos = len(m.log) - 1
	}

	m.updateViewportContent()
	m.ensureCursorVisible()
}

// moveCursor moves the selection by delta, leaving follow mode unless it lands on the newest event
func (m *model) moveCursor(delta int) {
	if len(m.log) == 0 {
		return
	}

	m.cursorPos += delta
	if m.cursorPos < 0 {
		m.cursorPos = 0
	}

	if m.cursorPos >= len(m.log) {
		m.cursorPos = len(m.log) - 1
	}

	m.follow = m.cursorPos == len(m.log)-1

	m.updateViewportContent()
	m.ensureCursorVisible()
}

// clearLog empties the request log
func (m *model) clearLog() {
	m.log = nil
	m.cursorPos = 0
	m.follow = true
	m.statusCounts = make(map[int]int)

	m.viewport.SetYOffset(0)
	m.updateViewportContent()
	m.setStatusMsg("Request log cleared")
}

// setStatusMsg sets a transient status message with current timestamp
func (m *model) setStatusMsg(msg string) {
	m.statusMsg = msg
	m.statusMsgAge = time.Now()
}

// ensureCursorVisible adjusts viewport offset to keep the selected event visible
func (m *model) ensureCursorVisible() {
	vm := NewViewportManager(m.viewport.Height, m.cursorPos, len(m.log))
	m.viewport.SetYOffset(vm.CalculateOffset())
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}
