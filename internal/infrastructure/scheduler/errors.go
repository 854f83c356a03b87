package scheduler

import "errors"

var (
	// ErrQueueNotRunning is returned when enqueueing on a stopped queue
	ErrQueueNotRunning = errors.New("job queue is not running")

	// ErrJobQueueFull is returned when the buffer of pending jobs is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJobMethod is returned when no executor is registered for a method
	ErrUnknownJobMethod = errors.New("no executor registered for job method")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrNoRelatedAction is returned when a job's method has no related action
	ErrNoRelatedAction = errors.New("job has no related action")

	// ErrJobAbandoned marks a started job whose worker stopped before it finished
	ErrJobAbandoned = errors.New("worker stopped before the job finished")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid job queue configuration")
)
