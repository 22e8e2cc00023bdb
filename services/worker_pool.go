// Package services holds the background work that runs beside the HTTP
// handlers: the job pool, owner notifications and health checks.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/folio-site/folio-backend/config"
	"github.com/folio-site/folio-backend/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// jobTimeout bounds a single job execution.
const jobTimeout = 30 * time.Second

// Job represents a unit of work for the worker pool.
type Job struct {
	// Name is a descriptive name for logging purposes
	Name string
	// Execute is the function that performs the work
	Execute func(ctx context.Context) error
}

// WorkerPool manages a bounded set of workers processing jobs from a queue.
type WorkerPool struct {
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	metrics  *workerPoolMetrics
	config   config.WorkerPoolConfig
	mu       sync.RWMutex
	running  bool
	stopped  bool
}

type workerPoolMetrics struct {
	queueDepth    prometheus.Gauge
	activeWorkers prometheus.Gauge
	completedJobs prometheus.Counter
	droppedJobs   prometheus.Counter
	errorCount    prometheus.Counter
	jobDuration   prometheus.Histogram
}

func newWorkerPoolMetrics(reg prometheus.Registerer) *workerPoolMetrics {
	factory := promauto.With(reg)
	return &workerPoolMetrics{
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "folio_worker_pool_queue_depth",
			Help: "Current number of jobs waiting in queue",
		}),
		activeWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "folio_worker_pool_active_workers",
			Help: "Current number of workers processing jobs",
		}),
		completedJobs: factory.NewCounter(prometheus.CounterOpts{
			Name: "folio_worker_pool_completed_jobs_total",
			Help: "Total number of completed jobs",
		}),
		droppedJobs: factory.NewCounter(prometheus.CounterOpts{
			Name: "folio_worker_pool_dropped_jobs_total",
			Help: "Total number of jobs dropped due to full queue",
		}),
		errorCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "folio_worker_pool_errors_total",
			Help: "Total number of job execution errors",
		}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_worker_pool_job_duration_seconds",
			Help:    "Time taken to execute jobs",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

// NewWorkerPool creates a new worker pool. Jobs are accepted once Start is called.
func NewWorkerPool(cfg config.WorkerPoolConfig, reg prometheus.Registerer) *WorkerPool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobQueue: make(chan Job, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.GetLogger().Named("worker-pool"),
		metrics:  newWorkerPoolMetrics(reg),
		config:   cfg,
	}
}

// Start launches the worker goroutines. Calling Start more than once is a no-op.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running || wp.stopped {
		wp.logger.Warn("Worker pool already started")
		return
	}
	wp.running = true

	wp.logger.Infow("Starting worker pool",
		"maxWorkers", wp.config.MaxWorkers,
		"queueSize", wp.config.QueueSize)

	for i := 0; i < wp.config.MaxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker drains the queue until it is closed.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	wp.logger.Debugw("Worker started", "workerId", id)

	for job := range wp.jobQueue {
		wp.executeJob(id, job)
	}
	wp.logger.Debugw("Worker stopping (queue closed)", "workerId", id)
}

func (wp *WorkerPool) executeJob(workerID int, job Job) {
	wp.metrics.activeWorkers.Inc()
	wp.metrics.queueDepth.Dec()
	defer wp.metrics.activeWorkers.Dec()

	start := time.Now()

	jobCtx, cancel := context.WithTimeout(wp.ctx, jobTimeout)
	defer cancel()

	if err := job.Execute(jobCtx); err != nil {
		wp.logger.Errorw("Job execution failed",
			"job", job.Name,
			"workerId", workerID,
			"error", err,
			"duration", time.Since(start))
		wp.metrics.errorCount.Inc()
	} else {
		wp.logger.Debugw("Job completed",
			"job", job.Name,
			"workerId", workerID,
			"duration", time.Since(start))
	}

	wp.metrics.jobDuration.Observe(time.Since(start).Seconds())
	wp.metrics.completedJobs.Inc()
}

// Submit queues a job without blocking. It returns false when the job was
// dropped because the queue is full or the pool is not running.
func (wp *WorkerPool) Submit(job Job) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		wp.metrics.droppedJobs.Inc()
		wp.logger.Warnw("Job dropped - pool not running", "job", job.Name)
		return false
	}

	select {
	case wp.jobQueue <- job:
		wp.metrics.queueDepth.Inc()
		wp.logger.Debugw("Job submitted", "job", job.Name)
		return true
	default:
		wp.metrics.droppedJobs.Inc()
		wp.logger.Warnw("Job dropped - queue full",
			"job", job.Name,
			"queueSize", wp.config.QueueSize)
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued and in-flight jobs.
// When ctx ends first, running jobs see their context cancelled and ctx.Err() is returned.
func (wp *WorkerPool) Shutdown(ctx context.Context) error {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return nil
	}
	wp.running = false
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.logger.Info("Initiating worker pool shutdown...")

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.cancel()
		wp.logger.Info("Worker pool shutdown complete - all workers finished")
		return nil
	case <-ctx.Done():
		wp.cancel()
		wp.logger.Warn("Worker pool shutdown timed out - some workers may still be running")
		return ctx.Err()
	}
}

// QueueDepth returns the current number of jobs waiting in the queue.
func (wp *WorkerPool) QueueDepth() int {
	return len(wp.jobQueue)
}

// IsRunning returns whether the worker pool is currently running.
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.running
}
