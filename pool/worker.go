// ABOUTME: Worker goroutine loop and lifecycle state
// ABOUTME: Takes jobs until a terminate signal, recovering failed jobs without exiting

package pool

import (
	"context"
	"runtime/debug"
	"sync/atomic"
)

// State is a worker's position in its lifecycle
type State int32

const (
	StateIdle State = iota // blocked in Queue.Take
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type worker struct {
	id   int
	pool *ThreadPool

	state    atomic.Int32
	jobsRun  atomic.Int64
	failures atomic.Int64

	done   chan struct{} // closed when the goroutine returns
	joined bool          // guarded by pool.shutdownMu
}

func newWorker(id int, p *ThreadPool) *worker {
	return &worker{
		id:   id,
		pool: p,
		done: make(chan struct{}),
	}
}

// run is the worker loop. It returns after taking one terminate signal.
// A job that exits the goroutine with runtime.Goexit leaves the loop early;
// a fresh goroutine then takes over the same worker slot.
func (w *worker) run() {
	terminated := false

	defer func() {
		if !terminated {
			w.pool.debugf("[POOL] Worker %d goroutine exited mid-job, restarting", w.id)
			w.setState(StateIdle)

			go w.run()

			return
		}

		w.setState(StateTerminated)
		close(w.done)
	}()

	for {
		job, ok := w.pool.queue.Take()
		if !ok {
			w.pool.debugf("[POOL] Worker %d received terminate signal", w.id)
			terminated = true

			return
		}

		w.setState(StateRunning)
		w.execute(job)
		w.setState(StateIdle)
	}
}

// execute runs one job, converting a panic or Goexit into a reported JobFailure
func (w *worker) execute(job Job) {
	returned := false

	defer func() {
		w.jobsRun.Add(1)
		w.pool.completed.Add(1)

		r := recover()
		if r == nil && returned {
			return
		}

		failure := &JobFailure{WorkerID: w.id}
		switch je, ok := r.(jobError); {
		case r == nil:
			failure.Err = ErrJobAborted
		case ok:
			failure.Err = je.err
		default:
			failure.Value = r
			failure.Stack = debug.Stack()
		}

		w.failures.Add(1)
		w.pool.reportFailure(failure)
	}()

	job()
	returned = true
}

// join waits for the goroutine to exit or ctx to end
func (w *worker) join(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	default:
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return &JoinError{WorkerID: w.id, Err: ctx.Err()}
	}
}

func (w *worker) setState(s State) {
	w.state.Store(int32(s))
}

func (w *worker) State() State {
	return State(w.state.Load())
}
