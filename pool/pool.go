// ABOUTME: Fixed-size worker pool running jobs from a shared unbounded queue
// ABOUTME: Provides execute, graceful shutdown with one terminate signal per worker, and stats

// Package pool implements a fixed-size pool of long-lived worker goroutines.
//
// Workers start immediately and wait on a shared FIFO queue. Execute never
// blocks the caller. Shutdown closes the queue, sends one terminate signal per
// worker and joins every worker after its in-flight job completes.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Job is a unit of deferred work
type Job func()

// Options configures a ThreadPool
type Options struct {
	Size int

	// Debugf receives pool lifecycle and failure messages. Optional.
	Debugf func(format string, args ...interface{})

	// OnFailure is called from the worker goroutine for every failed job. Optional.
	// A panic inside it is logged through Debugf and does not stop the worker.
	OnFailure func(*JobFailure)
}

// ThreadPool manages a fixed set of workers sharing one job queue
type ThreadPool struct {
	queue     *Queue
	workers   []*worker
	debugf    func(string, ...interface{})
	onFailure func(*JobFailure)

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	shutdownMu sync.Mutex
}

// WorkerStats is a snapshot of one worker
type WorkerStats struct {
	ID       int
	State    State
	JobsRun  int64
	Failures int64
}

// Stats is a point-in-time snapshot of the pool
type Stats struct {
	Size         int
	Busy         int
	Queued       int
	Submitted    int64
	Completed    int64
	Failed       int64
	ShuttingDown bool
	Workers      []WorkerStats
}

// New creates a pool with size workers, all started and idle
func New(size int) (*ThreadPool, error) {
	return NewWithOptions(Options{Size: size})
}

// NewWithOptions creates a pool from opts. Fails with ErrInvalidSize if opts.Size < 1.
func NewWithOptions(opts Options) (*ThreadPool, error) {
	if opts.Size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, opts.Size)
	}

	p := &ThreadPool{
		queue:     NewQueue(),
		workers:   make([]*worker, opts.Size),
		debugf:    opts.Debugf,
		onFailure: opts.OnFailure,
	}

	if p.debugf == nil {
		p.debugf = func(string, ...interface{}) {}
	}

	for i := range p.workers {
		w := newWorker(i, p)
		p.workers[i] = w

		go w.run()
	}

	p.debugf("[POOL] Started %d workers", opts.Size)

	return p, nil
}

// Execute queues job for exactly one worker. It never blocks.
// Returns ErrPoolShuttingDown once shutdown has begun; the job is not queued.
func (p *ThreadPool) Execute(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	p.submitted.Add(1)

	if err := p.queue.Submit(job); err != nil {
		p.submitted.Add(-1)

		return ErrPoolShuttingDown
	}

	return nil
}

// ExecuteFunc is Execute for work that can fail.
// A non-nil error from fn is reported as a JobFailure.
func (p *ThreadPool) ExecuteFunc(fn func() error) error {
	if fn == nil {
		return ErrNilJob
	}

	return p.Execute(func() {
		if err := fn(); err != nil {
			panic(jobError{err: err})
		}
	})
}

// Shutdown stops accepting jobs and blocks until every worker has exited.
// Jobs queued before the call still run. Calling it again is a no-op.
// Must not be called from inside a job.
func (p *ThreadPool) Shutdown() error {
	return p.ShutdownContext(context.Background())
}

// ShutdownContext is Shutdown with a bound on how long to wait for workers.
// Workers still running when ctx ends are reported as JoinErrors, combined into
// one error; the rest are still joined. A later call only waits for the
// workers that have not exited yet.
func (p *ThreadPool) ShutdownContext(ctx context.Context) error {
	p.shutdownMu.Lock()
	defer p.shutdownMu.Unlock()

	if p.queue.Close() {
		p.debugf("[POOL] Shutting down: sending %d terminate signals", len(p.workers))
		p.queue.Terminate(len(p.workers))
	}

	var errs error

	for _, w := range p.workers {
		if w.joined {
			continue
		}

		if err := w.join(ctx); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		w.joined = true
	}

	if errs != nil {
		p.debugf("[POOL] Shutdown incomplete: %v", errs)
	} else {
		p.debugf("[POOL] All workers joined")
	}

	return errs
}

// Close shuts the pool down, implementing io.Closer
func (p *ThreadPool) Close() error {
	return p.Shutdown()
}

// Size returns the fixed number of workers
func (p *ThreadPool) Size() int {
	return len(p.workers)
}

// Stats returns a snapshot of pool and worker counters
func (p *ThreadPool) Stats() Stats {
	s := Stats{
		Size:         len(p.workers),
		Queued:       p.queue.Len(),
		Submitted:    p.submitted.Load(),
		Completed:    p.completed.Load(),
		Failed:       p.failed.Load(),
		ShuttingDown: p.queue.Closed(),
		Workers:      make([]WorkerStats, len(p.workers)),
	}

	for i, w := range p.workers {
		state := w.State()
		if state == StateRunning {
			s.Busy++
		}

		s.Workers[i] = WorkerStats{
			ID:       w.id,
			State:    state,
			JobsRun:  w.jobsRun.Load(),
			Failures: w.failures.Load(),
		}
	}

	return s
}

// reportFailure records a failed job and hands it to the failure hook
func (p *ThreadPool) reportFailure(f *JobFailure) {
	p.failed.Add(1)

	if f.Stack != nil {
		p.debugf("[POOL] %v\n%s", f, f.Stack)
	} else {
		p.debugf("[POOL] %v", f)
	}

	if p.onFailure == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.debugf("[POOL] Failure hook panicked: %v", r)
		}
	}()

	p.onFailure(f)
}
