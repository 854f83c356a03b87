package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/billing/internal/infrastructure/logger"
)

// JobExecutor runs the jobs of one method
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobExecutorFunc adapts a function to JobExecutor
type JobExecutorFunc func(ctx context.Context, job *Job) error

// Execute calls f(ctx, job)
func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// RelatedAction points at the record a job works on, so an operator can
// jump from the job to its result
type RelatedAction struct {
	Label      string    `json:"label"`
	Model      string    `json:"model"`
	ResourceID uuid.UUID `json:"resource_id"`
}

// RelatedActionFunc derives the related action from a job's arguments
type RelatedActionFunc func(job *Job) (*RelatedAction, error)

type registration struct {
	executor JobExecutor
	related  RelatedActionFunc
}

// QueueConfig holds job queue configuration
type QueueConfig struct {
	Enabled       bool
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultQueueConfig returns default job queue configuration
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Enabled:       true,
		Workers:       2,
		QueueSize:     100,
		JobTimeout:    2 * time.Hour,
		RetryAttempts: 0,
		RetryDelay:    time.Minute,
	}
}

// Validate checks the configuration
func (c QueueConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// JobQueue runs jobs on a pool of workers. Executors are registered per
// method name; job state is mirrored to a JobStore after every transition.
type JobQueue struct {
	config QueueConfig
	store  JobStore
	logger *zap.Logger

	registry map[string]registration

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewJobQueue creates a stopped job queue
func NewJobQueue(config QueueConfig, store JobStore, logger *zap.Logger) (*JobQueue, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryJobStore()
	}
	return &JobQueue{
		config:   config,
		store:    store,
		logger:   logger.Named("jobs"),
		registry: make(map[string]registration),
	}, nil
}

// Register binds an executor to a method. related may be nil.
func (q *JobQueue) Register(method string, executor JobExecutor, related RelatedActionFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.registry[method] = registration{executor: executor, related: related}
}

// Start starts the worker pool
func (q *JobQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = true
	q.jobs = make(chan *Job, q.config.QueueSize)
	jobs := q.jobs
	q.mu.Unlock()

	if _, err := q.RecoverStale(ctx); err != nil {
		q.logger.Warn("Failed to recover stale jobs", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i, jobs)
	}

	q.logger.Info("Job queue started",
		zap.Int("workers", q.config.Workers),
		zap.Duration("job_timeout", q.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the queue. Jobs still buffered are dropped and stay
// queued in the store.
func (q *JobQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	close(q.jobs)
	q.mu.Unlock()

	if q.cancel != nil {
		q.cancel()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("Job queue stopped gracefully")
		return nil
	case <-ctx.Done():
		q.logger.Warn("Job queue stop timed out")
		return ctx.Err()
	}
}

// RecoverStale fails started jobs whose start is older than the job timeout.
// No worker can still be running them, so they were left behind by a process
// that stopped mid-job. It returns the number of recovered jobs.
func (q *JobQueue) RecoverStale(ctx context.Context) (int, error) {
	started, err := q.store.List(ctx, JobFilter{State: JobStateStarted})
	if err != nil {
		return 0, fmt.Errorf("failed to list started jobs: %w", err)
	}

	cutoff := time.Now().Add(-q.config.JobTimeout)
	recovered := 0
	for _, job := range started {
		if job.StartedAt == nil || job.StartedAt.After(cutoff) {
			continue
		}
		job.Fail(ErrJobAbandoned.Error())
		if err := q.store.Save(ctx, job); err != nil {
			return recovered, fmt.Errorf("failed to store job %s: %w", job.ID, err)
		}
		recovered++
		q.logger.Warn("Recovered stale job",
			zap.String("job_id", job.ID.String()),
			zap.String("channel", job.Channel),
			zap.String("method", job.Method),
			zap.Time("started_at", *job.StartedAt),
		)
	}
	return recovered, nil
}

// IsRunning reports whether workers are accepting jobs
func (q *JobQueue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isRunning
}

// Delay builds a job from its parts and enqueues it
func (q *JobQueue) Delay(ctx context.Context, channel, model, method string, args any) (*Job, error) {
	job, err := NewJob(channel, model, method, args, q.config.RetryAttempts)
	if err != nil {
		return nil, err
	}
	if err := q.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Enqueue stores the job as queued and hands it to the workers
func (q *JobQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.isRunning {
		return ErrQueueNotRunning
	}
	if _, ok := q.registry[job.Method]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJobMethod, job.Method)
	}
	if err := q.store.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to store job: %w", err)
	}

	select {
	case q.jobs <- job:
		q.logger.Debug("Job enqueued",
			zap.String("job_id", job.ID.String()),
			zap.String("channel", job.Channel),
			zap.String("method", job.Method),
		)
		return nil
	default:
		job.Fail(ErrJobQueueFull.Error())
		q.saveState(ctx, job)
		return ErrJobQueueFull
	}
}

// Get returns a job by ID
func (q *JobQueue) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	return q.store.Get(ctx, id)
}

// List returns jobs matching the filter
func (q *JobQueue) List(ctx context.Context, filter JobFilter) ([]*Job, error) {
	return q.store.List(ctx, filter)
}

// CountByChannelAndState counts jobs of a channel in a state
func (q *JobQueue) CountByChannelAndState(ctx context.Context, channel string, state JobState) (int, error) {
	return q.store.CountByChannelAndState(ctx, channel, state)
}

// RelatedAction resolves the related action of a job
func (q *JobQueue) RelatedAction(ctx context.Context, id uuid.UUID) (*RelatedAction, error) {
	job, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	reg, ok := q.registry[job.Method]
	q.mu.Unlock()
	if !ok || reg.related == nil {
		return nil, ErrNoRelatedAction
	}
	return reg.related(job)
}

func (q *JobQueue) worker(ctx context.Context, workerID int, jobs <-chan *Job) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			q.processJob(ctx, job, workerID)
		}
	}
}

func (q *JobQueue) processJob(ctx context.Context, job *Job, workerID int) {
	q.mu.Lock()
	reg, ok := q.registry[job.Method]
	q.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, q.config.JobTimeout)
	defer cancel()
	jobCtx = logger.WithJobID(jobCtx, job.ID.String())
	log := q.logger.With(logger.Fields(jobCtx)...)

	if !ok {
		job.Fail(fmt.Sprintf("%s: %s", ErrUnknownJobMethod, job.Method))
		q.saveState(jobCtx, job)
		return
	}

	job.Start()
	q.saveState(jobCtx, job)
	log.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("channel", job.Channel),
		zap.String("method", job.Method),
	)

	err := q.execute(jobCtx, reg.executor, job)
	if err != nil {
		job.Fail(err.Error())
		q.saveState(jobCtx, job)
		log.Error("Job failed",
			zap.Int("worker_id", workerID),
			zap.String("method", job.Method),
			zap.Error(err),
		)
		if job.ShouldRetry() && !errors.Is(err, context.Canceled) {
			q.scheduleRetry(job)
		}
		return
	}

	job.Complete()
	q.saveState(jobCtx, job)
	log.Info("Job completed successfully",
		zap.Int("worker_id", workerID),
		zap.String("method", job.Method),
	)
}

// execute runs the executor, turning a panic into a job failure
func (q *JobQueue) execute(ctx context.Context, executor JobExecutor, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return executor.Execute(ctx, job)
}

func (q *JobQueue) scheduleRetry(job *Job) {
	job.Requeue()
	q.logger.Info("Job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
	)

	time.AfterFunc(q.config.RetryDelay, func() {
		ctx := context.Background()
		q.mu.Lock()
		defer q.mu.Unlock()
		if !q.isRunning {
			return
		}
		q.saveState(ctx, job)
		select {
		case q.jobs <- job:
		default:
			q.logger.Warn("Failed to re-queue job for retry", zap.String("job_id", job.ID.String()))
		}
	})
}

func (q *JobQueue) saveState(ctx context.Context, job *Job) {
	// state writes must survive a cancelled job context
	if err := q.store.Save(context.WithoutCancel(ctx), job); err != nil {
		q.logger.Warn("Failed to store job state",
			zap.String("job_id", job.ID.String()),
			zap.String("state", string(job.State)),
			zap.Error(err),
		)
	}
}
