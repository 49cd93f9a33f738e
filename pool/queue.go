// ABOUTME: Unbounded FIFO queue shared by every worker of a pool
// ABOUTME: Jobs and terminate signals travel through the same ordered stream

package pool

import (
	"sync"

	"github.com/gammazero/deque"
)

// entry is one queued item: a job, or a terminate signal
type entry struct {
	job  Job
	stop bool
}

// Queue is a goroutine-safe FIFO of jobs and terminate signals.
// Submit never blocks; Take is the only place a worker waits.
type Queue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    deque.Deque[entry]
	closed   bool
}

// NewQueue creates an empty, open queue
func NewQueue() *Queue {
	q := &Queue{}
	q.nonEmpty = sync.NewCond(&q.mu)

	return q
}

// Submit appends a job. Returns ErrQueueClosed after Close.
func (q *Queue) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items.PushBack(entry{job: job})
	q.nonEmpty.Signal()

	return nil
}

// Take blocks until the next entry is available.
// Returns the job and true, or nil and false for a terminate signal.
func (q *Queue) Take() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 {
		q.nonEmpty.Wait()
	}

	e := q.items.PopFront()
	if e.stop {
		return nil, false
	}

	return e.job, true
}

// Close stops the queue from accepting jobs. Entries already queued stay.
// Returns false if the queue was already closed.
func (q *Queue) Close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.closed = true

	return true
}

// Terminate enqueues n terminate signals behind any pending jobs.
// Each signal stops exactly one consumer. Allowed after Close.
func (q *Queue) Terminate(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for range n {
		q.items.PushBack(entry{stop: true})
	}

	q.nonEmpty.Broadcast()
}

// Closed reports whether Close has been called
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

// Len returns the number of pending entries, terminate signals included
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Len()
}
