// ABOUTME: Live status line for headless mode
// ABOUTME: Polls pool stats and redraws a single terminal line with a spinner

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"hello-server/pool"
)

// statsSource reports pool counters
type statsSource interface {
	Stats() pool.Stats
}

// statusReporter redraws one status line on a terminal
type statusReporter struct {
	stats      statsSource
	out        io.Writer
	startTime  time.Time
	isTerminal bool

	spinnerIdx    int
	lastTime      time.Time
	lastCompleted int64
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func newStatusReporter(stats statsSource, startTime time.Time, isTerminal bool) *statusReporter {
	return &statusReporter{
		stats:      stats,
		out:        os.Stdout,
		startTime:  startTime,
		isTerminal: isTerminal,
		lastTime:   startTime,
	}
}

// run redraws the status line every interval until ctx is done.
// Non-TTY output gets no status line to avoid log spam.
func (r *statusReporter) run(ctx context.Context, interval time.Duration) {
	if !r.isTerminal {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fmt.Fprint(r.out, "\r"+r.line(now)+"     ")
		}
	}
}

// line formats the status for the current stats snapshot
func (r *statusReporter) line(now time.Time) string {
	st := r.stats.Stats()

	rate := 0.0
	if elapsed := now.Sub(r.lastTime).Seconds(); elapsed > 0 {
		rate = float64(st.Completed-r.lastCompleted) / elapsed
	}

	r.lastTime = now
	r.lastCompleted = st.Completed

	frame := spinnerFrames[r.spinnerIdx]
	r.spinnerIdx = (r.spinnerIdx + 1) % len(spinnerFrames)

	return fmt.Sprintf("%s %s busy %d/%d queued %d served %d failed %d %s",
		formatElapsed(now.Sub(r.startTime)),
		frame,
		st.Busy,
		st.Size,
		st.Queued,
		st.Completed,
		st.Failed,
		formatRate(rate),
	)
}

// clear erases the status line (TTY only)
func (r *statusReporter) clear() {
	if r.isTerminal {
		fmt.Fprint(r.out, "\r\033[K")
	}
}
