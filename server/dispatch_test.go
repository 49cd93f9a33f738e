// ABOUTME: Tests for the dispatchers behind each concurrency model
// ABOUTME: Covers repeated shutdown after a timeout and panic reporting

package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"hello-server/config"
	"hello-server/pool"
)

func TestDispatcherShutdownRetryAfterTimeout(t *testing.T) {
	models := []string{
		config.ModelThreadPool,
		config.ModelAnts,
		config.ModelThreadPerConnection,
	}

	for _, model := range models {
		t.Run(model, func(t *testing.T) {
			cfg := testConfig(model)
			cfg.PoolSize = 1

			d, err := newDispatcher(cfg, nil, nil)
			if err != nil {
				t.Fatalf("newDispatcher failed: %v", err)
			}

			started := make(chan struct{})
			release := make(chan struct{})

			if err := d.Submit(func() error {
				close(started)
				<-release
				return nil
			}); err != nil {
				t.Fatalf("Submit failed: %v", err)
			}

			<-started

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			if err := d.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("Expected DeadlineExceeded while a job runs, got %v", err)
			}

			if err := d.Submit(func() error { return nil }); !errors.Is(err, pool.ErrPoolShuttingDown) {
				t.Errorf("Expected ErrPoolShuttingDown after shutdown began, got %v", err)
			}

			close(release)

			ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := d.Shutdown(ctx); err != nil {
				t.Fatalf("Second Shutdown failed: %v", err)
			}

			if stats := d.Stats(); stats.Completed != 1 || !stats.ShuttingDown {
				t.Errorf("Expected 1 completed job and shutting down, got %+v", stats)
			}
		})
	}
}

func TestAntsDispatcherReportsPanics(t *testing.T) {
	reported := make(chan *pool.JobFailure, 1)

	d, err := newAntsDispatcher(1, func(f *pool.JobFailure) { reported <- f })
	if err != nil {
		t.Fatalf("newAntsDispatcher failed: %v", err)
	}

	if err := d.Submit(func() error { panic("boom") }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	var f *pool.JobFailure
	select {
	case f = <-reported:
	case <-time.After(5 * time.Second):
		t.Fatal("Panic was not reported")
	}

	if f.Value != "boom" || len(f.Stack) == 0 {
		t.Errorf("Unexpected failure: value=%v stack=%d bytes", f.Value, len(f.Stack))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if stats := d.Stats(); stats.Failed != 1 || stats.Completed != 1 {
		t.Errorf("Expected 1 failed of 1 completed, got %d of %d", stats.Failed, stats.Completed)
	}
}
