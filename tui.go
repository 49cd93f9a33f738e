// ABOUTME: Monitor mode: serve while showing a live dashboard
// ABOUTME: Wires server request events and stats into the terminal monitor

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"hello-server/tui"
)

// eventBufferSize bounds request events waiting for the monitor.
// Events beyond it are dropped rather than slowing workers down.
const eventBufferSize = 256

// RunMonitor serves with the terminal dashboard until the user quits or a signal arrives
func RunMonitor(opts RunOptions) error {
	if !isTTY(os.Stdout) {
		return errors.New("monitor mode needs a terminal, run without -monitor instead")
	}

	events := make(chan tui.Event, eventBufferSize)
	forwarder := newEventForwarder(events)

	sc, err := InitializeServer(opts, forwarder.forward)
	if err != nil {
		return err
	}
	defer sc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := sc.Config

	// The monitor exits when ctx ends; quitting it cancels ctx
	monitor := func(ctx context.Context) error {
		return tui.Run(ctx, tui.Options{
			Address:    cfg.Address(),
			Model:      cfg.ConcurrencyModel,
			PoolSize:   cfg.PoolSize,
			ContentDir: cfg.ContentDir,
		}, tui.Dependencies{
			Stats:  sc.Server,
			Events: events,
			Stop:   cancel,
			Debugf: debugf,
		})
	}

	err = serve(ctx, sc, monitor)

	if dropped := forwarder.droppedCount(); dropped > 0 {
		debugf("[MAIN] Monitor dropped %d request events", dropped)
	}

	return err
}
