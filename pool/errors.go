// ABOUTME: Error values reported by the job queue and the worker pool
// ABOUTME: Covers bad pool size, closed queue, job failures and worker join failures

package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned when a pool is constructed with fewer than one worker.
	ErrInvalidSize = errors.New("pool size must be at least 1")

	// ErrQueueClosed is returned by Queue.Submit after Close.
	ErrQueueClosed = errors.New("job queue closed")

	// ErrPoolShuttingDown is returned by Execute once shutdown has begun.
	// It matches ErrQueueClosed with errors.Is.
	ErrPoolShuttingDown = fmt.Errorf("pool is shutting down: %w", ErrQueueClosed)

	// ErrNilJob is returned when a nil job is submitted
	ErrNilJob = errors.New("nil job")

	// ErrJobAborted is the JobFailure error for a job that neither returned nor
	// panicked, such as one calling runtime.Goexit.
	ErrJobAborted = errors.New("job aborted without returning")
)

// JobFailure describes a job that panicked or returned an error.
// The worker that ran it keeps serving.
type JobFailure struct {
	WorkerID int
	Value    interface{} // recovered panic value, nil when Err came from ExecuteFunc
	Err      error
	Stack    []byte
}

func (f *JobFailure) Error() string {
	if f.Value != nil {
		return fmt.Sprintf("worker %d: job panicked: %v", f.WorkerID, f.Value)
	}

	return fmt.Sprintf("worker %d: job failed: %v", f.WorkerID, f.Err)
}

func (f *JobFailure) Unwrap() error {
	return f.Err
}

// JoinError reports a worker that did not exit before the shutdown context ended
type JoinError struct {
	WorkerID int
	Err      error
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("worker %d did not join: %v", e.WorkerID, e.Err)
}

func (e *JoinError) Unwrap() error {
	return e.Err
}

// jobError carries an error returned by an ExecuteFunc job to the worker's recover
type jobError struct {
	err error
}
