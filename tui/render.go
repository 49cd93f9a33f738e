// ABOUTME: Rendering functions for monitor components
// ABOUTME: Formats the worker table, counters, request log, status bar and help line

package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hello-server/pool"
)

// renderHeader renders the title line with server identity and uptime
func (m model) renderHeader() string {
	uptime := time.Since(m.startTime).Round(time.Second)

	return titleStyle.Render(fmt.Sprintf("hello-server on %s", m.opts.Address)) +
		helpStyle.Render(fmt.Sprintf("  %s | content: %s | up %s", m.opts.Model, m.opts.ContentDir, uptime))
}

// renderWorkers renders one line per pool worker
func (m model) renderWorkers() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Workers (%d)", m.opts.PoolSize)) + "\n\n")

	if len(m.snapshot.Workers) == 0 {
		s.WriteString(idleStyle.Render(fmt.Sprintf("No per-worker stats for %s", m.opts.Model)) + "\n")
		return s.String()
	}

	s.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-11s %8s %8s", "ID", "State", "Jobs", "Failed")) + "\n")

	for _, w := range m.snapshot.Workers {
		line := fmt.Sprintf("%-4d %-11s %8d %8d", w.ID, w.State, w.JobsRun, w.Failures)

		switch w.State {
		case pool.StateRunning:
			s.WriteString(runningStyle.Render(line))
		case pool.StateTerminated:
			s.WriteString(errorStyle.Render(line))
		default:
			s.WriteString(idleStyle.Render(line))
		}

		s.WriteString("\n")
	}

	return s.String()
}

// renderCounters renders pool totals and response codes
func (m model) renderCounters() string {
	var s strings.Builder

	st := m.snapshot

	s.WriteString(titleStyle.Render("Jobs") + "\n\n")
	fmt.Fprintf(&s, "%-12s %d/%d\n", "Busy", st.Busy, m.opts.PoolSize)
	fmt.Fprintf(&s, "%-12s %d\n", "Queued", st.Queued)
	fmt.Fprintf(&s, "%-12s %d\n", "Submitted", st.Submitted)
	fmt.Fprintf(&s, "%-12s %d\n", "Completed", st.Completed)

	failed := fmt.Sprintf("%-12s %d", "Failed", st.Failed)
	if st.Failed > 0 {
		failed = errorStyle.Render(failed)
	}

	s.WriteString(failed + "\n")
	fmt.Fprintf(&s, "%-12s %.1f\n", "Req/s", m.reqPerSec)

	if len(m.statusCounts) > 0 {
		codes := make([]int, 0, len(m.statusCounts))
		for code := range m.statusCounts {
			codes = append(codes, code)
		}

		sort.Ints(codes)

		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			parts = append(parts, fmt.Sprintf("%s:%d", statusLabel(code), m.statusCounts[code]))
		}

		fmt.Fprintf(&s, "%-12s %s\n", "Responses", strings.Join(parts, " "))
	}

	return s.String()
}

// renderRequests renders the request log with viewport scrolling
func (m model) renderRequests() string {
	var s string

	title := "Requests"
	if !m.follow {
		title += " (paused)"
	}

	if vm := NewViewportManager(m.viewport.Height, m.cursorPos, len(m.log)); !vm.AtBottom() {
		title += " ↓ newer below"
	}

	s += titleStyle.Render(title) + "\n\n"

	header := fmt.Sprintf("%-8s %-21s %-4s %-9s %7s  %s",
		"Time", "Remote", "Code", "Route", "Took", "Request")
	s += headerStyle.Render(header) + "\n"

	s += m.viewport.View()

	return s
}

// updateViewportContent builds and sets the viewport content
func (m *model) updateViewportContent() {
	var content strings.Builder

	for i, e := range m.log {
		line := formatEvent(e)

		switch {
		case i == m.cursorPos:
			line = cursorStyle.Render(line)
		case e.Err != "" || e.Status >= 500:
			line = errorStyle.Render(line)
		}

		content.WriteString(line + "\n")
	}

	m.viewport.SetContent(content.String())
}

// formatEvent renders one request log line
func formatEvent(e Event) string {
	line := fmt.Sprintf("%-8s %-21s %-4s %-9s %7s  %s",
		e.Time.Format("15:04:05"),
		truncate(e.Remote, 21),
		statusLabel(e.Status),
		truncate(e.Route, 9),
		e.Duration.Round(time.Millisecond),
		truncate(e.RequestLine, 40),
	)

	if e.Err != "" {
		line += "  " + truncate(e.Err, 60)
	}

	return line
}

// statusLabel renders a status code, "-" when no response was sent
func statusLabel(code int) string {
	if code == 0 {
		return "-"
	}

	return strconv.Itoa(code)
}

// renderStatus renders the status bar
func (m model) renderStatus() string {
	if m.statusMsg != "" && time.Since(m.statusMsgAge) < statusMessageDuration {
		return statusStyle.Width(m.width).Render(m.statusMsg)
	}

	state := "serving"
	if m.snapshot.ShuttingDown {
		state = "shutting down"
	}

	position := "0/0"
	if len(m.log) > 0 {
		position = fmt.Sprintf("%d/%d", m.cursorPos+1, len(m.log))
	}

	status := fmt.Sprintf("%s | busy %d/%d | queued %d | %.1f req/s | request %s",
		state,
		m.snapshot.Busy,
		m.opts.PoolSize,
		m.snapshot.Queued,
		m.reqPerSec,
		position,
	)

	return statusStyle.Width(m.width).Render(status)
}

// renderHelp renders the help text
func (m model) renderHelp() string {
	return helpStyle.Render(" ↑/↓/j/k: browse requests | pgup/pgdn: page | g/G: oldest/newest | f: follow | c: clear | q: stop server")
}
