// ABOUTME: Top-level layout of the monitor screen
// ABOUTME: Implements the Bubble Tea View() function joining the two panels

package tui

import (
	"runtime/debug"

	"github.com/charmbracelet/lipgloss"
)

// View renders the monitor
func (m model) View() string {
	defer func() {
		if r := recover(); r != nil {
			m.debugf("[PANIC] View panic: %v", r)
			m.debugf("[PANIC] Stack trace: %s", string(debug.Stack()))
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	if m.quitting {
		return "Stopping server and waiting for in-flight requests...\n"
	}

	// Leave room for header, status bar and help
	panelHeight := m.height - (headerHeight + statusBarHeight + helpHeight + spacingHeight)
	if panelHeight < minViewportHeight {
		panelHeight = minViewportHeight
	}

	leftPanelStyle := lipgloss.NewStyle().
		Width(statsPanelWidth).
		Height(panelHeight).
		Padding(0, 1)

	rightPanelWidth := m.width - statsPanelWidth - panelPadding
	if rightPanelWidth < minViewportWidth {
		rightPanelWidth = minViewportWidth
	}

	rightPanelStyle := lipgloss.NewStyle().
		Width(rightPanelWidth).
		Height(panelHeight).
		Padding(0, 1)

	combined := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftPanelStyle.Render(m.renderWorkers()+"\n"+m.renderCounters()),
		rightPanelStyle.Render(m.renderRequests()),
	)

	return m.renderHeader() + "\n\n" + combined + "\n" + m.renderStatus() + "\n" + m.renderHelp()
}
