// ABOUTME: Event handling and state updates for the monitor
// ABOUTME: Implements the Bubble Tea Update() function and message handlers

package tui

import (
	"runtime/debug"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
//
//nolint:ireturn // Bubble Tea framework requires returning tea.Model interface
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.debugf("[PANIC] Update panic: %v", r)
			m.debugf("[PANIC] Stack trace: %s", string(debug.Stack()))
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Right panel width: total width - left panel - padding on both sides of the panel
		viewportWidth := msg.Width - statsPanelWidth - 2*panelPadding
		if viewportWidth < minViewportWidth {
			viewportWidth = minViewportWidth
		}

		viewportHeight := msg.Height - totalUIChrome
		if viewportHeight < minViewportHeight {
			viewportHeight = minViewportHeight
		}

		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight

		m.updateViewportContent()
		m.ensureCursorVisible()

		return m, nil

	case tickMsg:
		if m.quitting {
			return m, nil
		}

		m.refresh(time.Time(msg))

		return m, tick(m.opts.RefreshInterval)

	case Event:
		m.appendEvent(msg)

		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		m.debugf("[TUI] Request event stream closed")
		m.events = nil

		return m, nil

	case serverStoppedMsg:
		m.debugf("[TUI] Server stopped, closing monitor")
		m.refresh(time.Now())
		m.quitting = true

		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m.handleQuitKey()

		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			m.moveCursor(1)

		case key.Matches(msg, keys.PageUp):
			m.moveCursor(-pageJumpSize)

		case key.Matches(msg, keys.PageDown):
			m.moveCursor(pageJumpSize)

		case key.Matches(msg, keys.Home):
			m.moveCursor(-len(m.log))

		case key.Matches(msg, keys.End):
			m.moveCursor(len(m.log))

		case key.Matches(msg, keys.Follow):
			m.handleFollowKey()

		case key.Matches(msg, keys.Clear):
			m.clearLog()
		}
	}

	return m, nil
}

// handleQuitKey asks the server to stop and exits the monitor
func (m *model) handleQuitKey() (model, tea.Cmd) {
	m.quitting = true
	m.debugf("[TUI] Quit requested, stopping server")

	m.stop()
	m.refresh(time.Now())

	return *m, tea.Quit
}

// handleFollowKey toggles following the newest request
func (m *model) handleFollowKey() {
	m.follow = !m.follow

	if m.follow {
		m.moveCursor(len(m.log))
		m.setStatusMsg("Following new requests")

		return
	}

	m.setStatusMsg("Follow paused")
}
