// ABOUTME: Tests for the shared job queue
// ABOUTME: Verifies FIFO order, blocking take, close semantics and terminate signals

package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()

	var got []int
	for i := range 5 {
		if err := q.Submit(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	if q.Len() != 5 {
		t.Fatalf("Expected 5 pending entries, got %d", q.Len())
	}

	for range 5 {
		job, ok := q.Take()
		if !ok {
			t.Fatal("Expected a job, got terminate signal")
		}
		job()
	}

	for i, v := range got {
		if v != i {
			t.Errorf("Position %d: expected job %d, got %d", i, i, v)
		}
	}
}

func TestQueueTakeBlocksUntilSubmit(t *testing.T) {
	q := NewQueue()
	taken := make(chan struct{})

	go func() {
		job, ok := q.Take()
		if ok {
			job()
		}
		close(taken)
	}()

	select {
	case <-taken:
		t.Fatal("Take returned before anything was submitted")
	case <-time.After(20 * time.Millisecond):
	}

	ran := false
	if err := q.Submit(func() { ran = true }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case <-taken:
	case <-time.After(time.Second):
		t.Fatal("Take did not wake up after Submit")
	}

	if !ran {
		t.Error("Expected submitted job to be returned by Take")
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue()

	if !q.Close() {
		t.Fatal("First Close should report true")
	}

	if q.Close() {
		t.Error("Second Close should report false")
	}

	if !q.Closed() {
		t.Error("Expected Closed() to be true")
	}

	err := q.Submit(func() {})
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Expected ErrQueueClosed, got %v", err)
	}

	if q.Len() != 0 {
		t.Errorf("Rejected job must not be queued, Len() = %d", q.Len())
	}
}

func TestQueueRejectsNilJob(t *testing.T) {
	q := NewQueue()

	if err := q.Submit(nil); !errors.Is(err, ErrNilJob) {
		t.Errorf("Expected ErrNilJob, got %v", err)
	}
}

func TestQueueTerminateAfterPendingJobs(t *testing.T) {
	q := NewQueue()

	var order []string
	_ = q.Submit(func() { order = append(order, "a") })
	_ = q.Submit(func() { order = append(order, "b") })
	q.Close()
	q.Terminate(2)

	for range 2 {
		job, ok := q.Take()
		if !ok {
			t.Fatal("Terminate signal delivered before pending jobs")
		}
		job()
	}

	for i := range 2 {
		if _, ok := q.Take(); ok {
			t.Fatalf("Expected terminate signal %d, got a job", i)
		}
	}

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("Expected [a b], got %v", order)
	}
}

func TestQueueConcurrentConsumersTakeEachJobOnce(t *testing.T) {
	const (
		consumers = 4
		jobs      = 1000
	)

	q := NewQueue()
	counts := make([]atomic.Int32, jobs)

	var wg sync.WaitGroup
	for range consumers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				job, ok := q.Take()
				if !ok {
					return
				}
				job()
			}
		}()
	}

	for i := range jobs {
		_ = q.Submit(func() { counts[i].Add(1) })
	}

	q.Close()
	q.Terminate(consumers)
	wg.Wait()

	for i := range counts {
		if n := counts[i].Load(); n != 1 {
			t.Errorf("Job %d ran %d times", i, n)
		}
	}
}
