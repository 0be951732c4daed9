package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolProcessesJobs(t *testing.T) {
	var processed int64
	pool, err := New(Config{Workers: 4, QueueSize: 16}, func(ctx context.Context, job *Job) *Result {
		atomic.AddInt64(&processed, 1)
		return &Result{JobID: job.ID, Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()

	for i := 0; i < 10; i++ {
		if err := pool.Submit(&Job{ID: "job"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	pool.Stop()

	if got := atomic.LoadInt64(&processed); got != 10 {
		t.Errorf("processed = %d, want 10", got)
	}
	stats := pool.Stats()
	if stats.JobsCompleted != 10 {
		t.Errorf("completed = %d, want 10", stats.JobsCompleted)
	}
}

func TestPoolRetriesFailedJobs(t *testing.T) {
	var attempts int64
	pool, err := New(Config{Workers: 1, QueueSize: 4, MaxRetries: 2, RetryDelay: time.Millisecond}, func(ctx context.Context, job *Job) *Result {
		if atomic.AddInt64(&attempts, 1) < 3 {
			return &Result{JobID: job.ID, Success: false, Error: errors.New("transient")}
		}
		return &Result{JobID: job.ID, Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()

	if err := pool.Submit(&Job{ID: "retry-me"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pool.Stop()

	if got := atomic.LoadInt64(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if pool.Stats().JobsRetried != 2 {
		t.Errorf("retried = %d, want 2", pool.Stats().JobsRetried)
	}
}

func TestStopProcessesQueuedJobs(t *testing.T) {
	var processed int64
	pool, err := New(Config{Workers: 1, QueueSize: 16}, func(ctx context.Context, job *Job) *Result {
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&processed, 1)
		return &Result{JobID: job.ID, Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()

	// Jobs carry no context, the drain must still run every one of them.
	for i := 0; i < 8; i++ {
		if err := pool.Submit(&Job{ID: "queued"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if err := pool.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := atomic.LoadInt64(&processed); got != 8 {
		t.Errorf("processed = %d, want 8", got)
	}
	if failed := pool.Stats().JobsFailed; failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
}

func TestStopWithZeroValuedTimings(t *testing.T) {
	var processed int64
	pool, err := New(Config{Workers: 1, QueueSize: 4}, func(ctx context.Context, job *Job) *Result {
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&processed, 1)
		return &Result{JobID: job.ID, Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()

	if err := pool.Submit(&Job{ID: "slow"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// The default shutdown timeout must apply, waiting out the in-flight job
	// instead of tearing the result channel down under it.
	if err := pool.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := atomic.LoadInt64(&processed); got != 1 {
		t.Errorf("processed = %d, want 1", got)
	}
}

func TestSubmitAfterStop(t *testing.T) {
	pool, err := New(Config{Workers: 1, QueueSize: 1}, func(ctx context.Context, job *Job) *Result {
		return &Result{JobID: job.ID, Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()
	pool.Stop()

	if err := pool.Submit(&Job{ID: "late"}); err == nil {
		t.Error("expected error submitting to stopped pool")
	}
}

func TestQueueFull(t *testing.T) {
	block := make(chan struct{})
	pool, err := New(Config{Workers: 1, QueueSize: 1}, func(ctx context.Context, job *Job) *Result {
		<-block
		return &Result{JobID: job.ID, Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()
	defer func() {
		close(block)
		pool.Stop()
	}()

	// One in flight, one queued, the third must be rejected.
	pool.Submit(&Job{ID: "a"})
	time.Sleep(10 * time.Millisecond)
	pool.Submit(&Job{ID: "b"})
	if err := pool.Submit(&Job{ID: "c"}); err == nil {
		t.Error("expected queue-full error")
	}
}
