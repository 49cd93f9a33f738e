// ABOUTME: Dispatchers that run connection jobs for each concurrency model
// ABOUTME: Adapts the worker pool, an ants pool and goroutine-per-connection to one interface

package server

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"hello-server/config"
	"hello-server/pool"
)

// Dispatcher runs connection jobs
type Dispatcher interface {
	// Submit queues job. Returns pool.ErrPoolShuttingDown after Shutdown began.
	Submit(job func() error) error

	// Shutdown stops accepting jobs and waits for running ones until ctx ends.
	// Safe to call more than once.
	Shutdown(ctx context.Context) error

	Stats() pool.Stats
}

// newDispatcher builds the dispatcher for cfg.ConcurrencyModel
func newDispatcher(cfg config.ServerConfig, debugf func(string, ...interface{}), onFailure func(*pool.JobFailure)) (Dispatcher, error) {
	switch cfg.ConcurrencyModel {
	case config.ModelThreadPool:
		p, err := pool.NewWithOptions(pool.Options{
			Size:      cfg.PoolSize,
			Debugf:    debugf,
			OnFailure: onFailure,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create worker pool: %w", err)
		}

		return &poolDispatcher{pool: p}, nil
	case config.ModelAnts:
		return newAntsDispatcher(cfg.PoolSize, onFailure)
	case config.ModelThreadPerConnection:
		return &connDispatcher{counters: counters{onFailure: onFailure}}, nil
	default:
		return nil, fmt.Errorf("unknown concurrency model %q", cfg.ConcurrencyModel)
	}
}

// poolDispatcher runs jobs on the fixed-size worker pool
type poolDispatcher struct {
	pool *pool.ThreadPool
}

func (d *poolDispatcher) Submit(job func() error) error {
	return d.pool.ExecuteFunc(job)
}

func (d *poolDispatcher) Shutdown(ctx context.Context) error {
	return d.pool.ShutdownContext(ctx)
}

func (d *poolDispatcher) Stats() pool.Stats {
	return d.pool.Stats()
}

// counters tracks job totals for dispatchers without per-worker bookkeeping
type counters struct {
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	onFailure func(*pool.JobFailure)
}

func (c *counters) fail(f *pool.JobFailure) {
	c.failed.Add(1)

	if c.onFailure != nil {
		c.onFailure(f)
	}
}

// antsDispatcher runs jobs on an ants goroutine pool.
// Unlike the worker pool, Submit blocks while every ants worker is busy.
type antsDispatcher struct {
	counters

	pool *ants.Pool
	mu   sync.Mutex
}

// antsDrainPoll is how often Shutdown checks for running ants workers
const antsDrainPoll = 10 * time.Millisecond

func newAntsDispatcher(size int, onFailure func(*pool.JobFailure)) (*antsDispatcher, error) {
	d := &antsDispatcher{counters: counters{onFailure: onFailure}}

	p, err := ants.NewPool(size, ants.WithPanicHandler(func(r interface{}) {
		d.fail(&pool.JobFailure{WorkerID: -1, Value: r, Stack: debug.Stack()})
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}

	d.pool = p

	return d, nil
}

func (d *antsDispatcher) Submit(job func() error) error {
	if job == nil {
		return pool.ErrNilJob
	}

	d.submitted.Add(1)

	err := d.pool.Submit(func() {
		defer d.completed.Add(1)

		if err := job(); err != nil {
			d.fail(&pool.JobFailure{WorkerID: -1, Err: err})
		}
	})
	if err != nil {
		d.submitted.Add(-1)

		if errors.Is(err, ants.ErrPoolClosed) {
			return pool.ErrPoolShuttingDown
		}

		return fmt.Errorf("failed to submit to ants pool: %w", err)
	}

	return nil
}

func (d *antsDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Release closes the pool once; a retry after a timeout only waits again
	if !d.pool.IsClosed() {
		d.pool.Release()
	}

	ticker := time.NewTicker(antsDrainPoll)
	defer ticker.Stop()

	for d.pool.Running() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ants pool did not drain, %d workers running: %w", d.pool.Running(), ctx.Err())
		case <-ticker.C:
		}
	}

	return nil
}

func (d *antsDispatcher) Stats() pool.Stats {
	return pool.Stats{
		Size:         d.pool.Cap(),
		Busy:         d.pool.Running(),
		Queued:       d.pool.Waiting(),
		Submitted:    d.submitted.Load(),
		Completed:    d.completed.Load(),
		Failed:       d.failed.Load(),
		ShuttingDown: d.pool.IsClosed(),
	}
}

// connDispatcher starts one goroutine per job
type connDispatcher struct {
	counters

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	active atomic.Int64
}

func (d *connDispatcher) Submit(job func() error) error {
	if job == nil {
		return pool.ErrNilJob
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return pool.ErrPoolShuttingDown
	}

	d.submitted.Add(1)
	d.wg.Add(1)

	go d.run(job)

	return nil
}

func (d *connDispatcher) run(job func() error) {
	d.active.Add(1)

	defer func() {
		d.active.Add(-1)
		d.completed.Add(1)

		if r := recover(); r != nil {
			d.fail(&pool.JobFailure{WorkerID: -1, Value: r, Stack: debug.Stack()})
		}

		d.wg.Done()
	}()

	if err := job(); err != nil {
		d.fail(&pool.JobFailure{WorkerID: -1, Err: err})
	}
}

func (d *connDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})

	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%d connections still running: %w", d.active.Load(), ctx.Err())
	}
}

func (d *connDispatcher) Stats() pool.Stats {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()

	return pool.Stats{
		Busy:         int(d.active.Load()),
		Submitted:    d.submitted.Load(),
		Completed:    d.completed.Load(),
		Failed:       d.failed.Load(),
		ShuttingDown: closed,
	}
}
