// ABOUTME: Headless mode: serve until interrupted, then print a summary
// ABOUTME: Handles signal handling, the content watcher and the one-shot init/write-config commands

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"hello-server/config"
	"hello-server/pool"
	"hello-server/site"
)

const statusUpdateInterval = 500 * time.Millisecond

// RunServer serves in the foreground until SIGINT or SIGTERM
func RunServer(opts RunOptions) error {
	sc, err := InitializeServer(opts, nil)
	if err != nil {
		return err
	}
	defer sc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := sc.Config

	fmt.Printf("Serving %s on %s with %s (pool size %d)\n", cfg.ContentDir, cfg.Address(), cfg.ConcurrencyModel, cfg.PoolSize)
	fmt.Println("Press Ctrl+C to stop")

	startTime := time.Now()

	reporter := newStatusReporter(sc.Server, startTime, isTTY(os.Stdout))

	err = serve(ctx, sc, func(ctx context.Context) error {
		reporter.run(ctx, statusUpdateInterval)
		return nil
	})

	reporter.clear()
	printSummary(os.Stdout, sc.Server.Stats(), time.Since(startTime))

	return err
}

// serve runs the server alongside the content watcher and any extra tasks.
// Returns once the server has drained; extra tasks must stop when ctx ends.
func serve(ctx context.Context, sc *ServerContext, extra ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// The watcher and extra tasks stop once the server has drained
	g.Go(func() error {
		defer cancel()
		return sc.Server.ListenAndServe(ctx)
	})

	if sc.Config.WatchContent {
		watcher, err := sc.Site.NewWatcher(debugf)
		if err != nil {
			log.Printf("Warning: content changes will not be picked up: %v", err)
		} else {
			g.Go(func() error {
				return watcher.Run(ctx)
			})
		}
	}

	for _, task := range extra {
		g.Go(func() error {
			return task(ctx)
		})
	}

	return g.Wait()
}

// printSummary writes final pool counters as a table
func printSummary(out io.Writer, stats pool.Stats, elapsed time.Duration) {
	fmt.Fprintf(out, "\nServed %d requests (%d failed) in %s\n",
		stats.Completed, stats.Failed, formatElapsed(elapsed))

	if len(stats.Workers) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "Worker\tState\tJobs\tFailed"); err != nil {
		log.Printf("Warning: failed to write header: %v", err)
	}

	if _, err := fmt.Fprintln(w, "------\t-----\t----\t------"); err != nil {
		log.Printf("Warning: failed to write separator: %v", err)
	}

	for _, ws := range stats.Workers {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", ws.ID, ws.State, ws.JobsRun, ws.Failures); err != nil {
			log.Printf("Warning: failed to write worker %d: %v", ws.ID, err)
		}
	}

	if err := w.Flush(); err != nil {
		log.Printf("Warning: failed to flush output: %v", err)
	}
}

// RunInit writes the default pages into the configured content directory
func RunInit(opts RunOptions) error {
	cfg, err := LoadEffectiveConfig(opts)
	if err != nil {
		return err
	}

	written, err := site.WriteDefaultPages(cfg.ContentDir)
	if err != nil {
		return err
	}

	if len(written) == 0 {
		fmt.Printf("All pages already present in %s\n", cfg.ContentDir)
		return nil
	}

	for _, name := range written {
		fmt.Printf("Wrote %s\n", name)
	}

	return nil
}

// RunWriteConfig saves the effective configuration to the config path
func RunWriteConfig(opts RunOptions) error {
	cfg, err := LoadEffectiveConfig(opts)
	if err != nil {
		return err
	}

	if err := config.SaveConfig(opts.ConfigPath, cfg); err != nil {
		return err
	}

	fmt.Printf("Saved configuration to %s\n", opts.ConfigPath)

	return nil
}
