// ABOUTME: Tests for headless mode helpers: serve, status line and summary
// ABOUTME: Runs a real server on a free loopback port

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hello-server/pool"
	"hello-server/server"
	"hello-server/site"
)

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()

	dir := t.TempDir()
	if _, err := site.WriteDefaultPages(dir); err != nil {
		t.Fatal(err)
	}

	sc, err := InitializeServer(RunOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Overrides:  Overrides{Port: 0, Workers: 2, ContentDir: dir},
	}, func(server.RequestEvent) {})
	if err != nil {
		t.Fatalf("InitializeServer failed: %v", err)
	}

	t.Cleanup(func() { sc.Close() })

	return sc
}

func TestServeStopsOnCancel(t *testing.T) {
	sc := newTestServerContext(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- serve(ctx, sc) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	if !sc.Server.Stats().ShuttingDown {
		t.Error("Expected the pool to be shut down")
	}
}

func TestServeStopsWhenTaskFails(t *testing.T) {
	sc := newTestServerContext(t)
	boom := errors.New("boom")

	done := make(chan error, 1)

	go func() {
		done <- serve(context.Background(), sc, func(context.Context) error {
			return boom
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("Expected task error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after task failure")
	}
}

func TestStatusReporterLine(t *testing.T) {
	start := time.Now()
	stats := &fixedStats{stats: pool.Stats{Size: 4, Busy: 2, Queued: 1, Completed: 10, Failed: 1}}

	r := newStatusReporter(stats, start, true)

	line := r.line(start.Add(2 * time.Second))

	for _, want := range []string{"2s", "busy 2/4", "queued 1", "served 10", "failed 1", "5.00 req/s"} {
		if !strings.Contains(line, want) {
			t.Errorf("Status line %q missing %q", line, want)
		}
	}

	// Rate is measured between calls
	line = r.line(start.Add(3 * time.Second))
	if !strings.Contains(line, "0.00 req/s") {
		t.Errorf("Expected zero rate without new completions, got %q", line)
	}
}

func TestStatusReporterClear(t *testing.T) {
	var buf bytes.Buffer

	r := newStatusReporter(&fixedStats{}, time.Now(), false)
	r.out = &buf
	r.clear()

	if buf.Len() != 0 {
		t.Errorf("Expected no output for non-terminal, got %q", buf.String())
	}

	r.isTerminal = true
	r.clear()

	if buf.String() != "\r\033[K" {
		t.Errorf("Unexpected clear sequence %q", buf.String())
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer

	printSummary(&buf, pool.Stats{
		Completed: 7,
		Failed:    1,
		Workers: []pool.WorkerStats{
			{ID: 0, State: pool.StateTerminated, JobsRun: 4, Failures: 1},
			{ID: 1, State: pool.StateTerminated, JobsRun: 3},
		},
	}, 65*time.Second)

	out := buf.String()

	for _, want := range []string{"Served 7 requests (1 failed) in  1m05s", "Worker", "terminated"} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary %q missing %q", out, want)
		}
	}

	if lines := strings.Count(out, "\n"); lines != 6 {
		t.Errorf("Expected 6 lines, got %d in %q", lines, out)
	}
}

type fixedStats struct {
	stats pool.Stats
}

func (f *fixedStats) Stats() pool.Stats {
	return f.stats
}
