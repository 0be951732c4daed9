// Package workerpool provides a bounded worker pool for notification
// delivery. Volume is modest, the pool exists to cap concurrency and to
// retry transient delivery failures.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of delivery work.
type Job struct {
	ID      string
	Payload interface{}
	Context context.Context
}

// Result is the outcome of processing a job.
type Result struct {
	JobID   string
	Success bool
	Error   error
}

// HandlerFunc processes a single job.
type HandlerFunc func(ctx context.Context, job *Job) *Result

// Config holds worker pool configuration
type Config struct {
	// Workers is the number of concurrent workers
	Workers int
	// QueueSize is the size of the job queue
	QueueSize int
	// MaxRetries is the maximum number of retries for failed jobs
	MaxRetries int
	// RetryDelay is the base delay between retries, grown linearly
	RetryDelay time.Duration
	// GracefulShutdownTimeout bounds Stop
	GracefulShutdownTimeout time.Duration
}

// DefaultConfig returns defaults sized for notification traffic
func DefaultConfig() Config {
	return Config{
		Workers:                 8,
		QueueSize:               256,
		MaxRetries:              3,
		RetryDelay:              200 * time.Millisecond,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// Pool manages a fixed set of workers draining a bounded queue.
type Pool struct {
	config  Config
	handler HandlerFunc
	logger  *zap.Logger

	jobChan    chan *Job
	resultChan chan *Result
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	jobsSubmitted int64
	jobsCompleted int64
	jobsFailed    int64
	jobsRetried   int64
	queueDepth    int64
}

// New creates a new worker pool
func New(cfg Config, fn HandlerFunc, logger *zap.Logger) (*Pool, error) {
	if fn == nil {
		return nil, fmt.Errorf("handler function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	if cfg.GracefulShutdownTimeout <= 0 {
		cfg.GracefulShutdownTimeout = DefaultConfig().GracefulShutdownTimeout
	}

	return &Pool{
		config:     cfg,
		handler:    fn,
		logger:     logger,
		jobChan:    make(chan *Job, cfg.QueueSize),
		resultChan: make(chan *Result, cfg.QueueSize),
	}, nil
}

// Start launches all workers
func (p *Pool) Start() {
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize))
}

// Submit adds a job to the queue without blocking. A full queue is an error
// so callers can leave the message uncommitted and see it again.
func (p *Pool) Submit(job *Job) error {
	// The read lock holds the queue open against Stop closing it.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return fmt.Errorf("pool is shutting down")
	}

	select {
	case p.jobChan <- job:
		atomic.AddInt64(&p.jobsSubmitted, 1)
		atomic.AddInt64(&p.queueDepth, 1)
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}

// Results returns the result channel for async consumption
func (p *Pool) Results() <-chan *Result {
	return p.resultChan
}

// Stop refuses new submissions, drains every queued job and shuts the pool
// down. Already-queued work is processed, not cancelled.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.jobChan)
	p.mu.Unlock()

	p.logger.Info("stopping worker pool")

	// resultChan is closed here, after every worker has exited, so a worker
	// can never send on a closed channel.
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(p.resultChan)
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(p.config.GracefulShutdownTimeout):
		p.logger.Warn("worker pool shutdown timed out")
		return fmt.Errorf("worker pool shutdown timed out after %s", p.config.GracefulShutdownTimeout)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobChan {
		atomic.AddInt64(&p.queueDepth, -1)
		p.processJob(id, job)
	}
}

func (p *Pool) processJob(workerID int, job *Job) {
	ctx := job.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var result *Result
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			result = &Result{JobID: job.ID, Success: false, Error: ctx.Err()}
		default:
			result = p.handler(ctx, job)
		}

		if result.Success || attempt >= p.config.MaxRetries {
			break
		}

		atomic.AddInt64(&p.jobsRetried, 1)
		p.logger.Debug("retrying job",
			zap.String("job_id", job.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(result.Error))

		select {
		case <-ctx.Done():
			result = &Result{JobID: job.ID, Success: false, Error: ctx.Err()}
		case <-time.After(p.config.RetryDelay * time.Duration(attempt+1)):
			continue
		}
		break
	}

	if result.Success {
		atomic.AddInt64(&p.jobsCompleted, 1)
	} else {
		atomic.AddInt64(&p.jobsFailed, 1)
		p.logger.Error("job failed",
			zap.String("job_id", job.ID),
			zap.Int("worker_id", workerID),
			zap.Error(result.Error))
	}

	select {
	case p.resultChan <- result:
	default:
		p.logger.Warn("result channel full, dropping result",
			zap.String("job_id", job.ID))
	}
}

// Stats holds current pool statistics
type Stats struct {
	JobsSubmitted int64
	JobsCompleted int64
	JobsFailed    int64
	JobsRetried   int64
	QueueDepth    int64
	QueueCapacity int
	Workers       int
}

// Stats returns current pool statistics
func (p *Pool) Stats() Stats {
	return Stats{
		JobsSubmitted: atomic.LoadInt64(&p.jobsSubmitted),
		JobsCompleted: atomic.LoadInt64(&p.jobsCompleted),
		JobsFailed:    atomic.LoadInt64(&p.jobsFailed),
		JobsRetried:   atomic.LoadInt64(&p.jobsRetried),
		QueueDepth:    atomic.LoadInt64(&p.queueDepth),
		QueueCapacity: p.config.QueueSize,
		Workers:       p.config.Workers,
	}
}

// IsHealthy reports whether the queue has headroom
func (p *Pool) IsHealthy() bool {
	stats := p.Stats()
	return float64(stats.QueueDepth)/float64(stats.QueueCapacity) < 0.9
}
