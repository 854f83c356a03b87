package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle state of a job
type JobState string

const (
	JobStateQueued  JobState = "queued"
	JobStateStarted JobState = "started"
	JobStateDone    JobState = "done"
	JobStateFailed  JobState = "failed"
)

// Job is a unit of background work: a method of a model called with JSON
// arguments, executed on a named channel
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Channel     string          `json:"channel"`
	Model       string          `json:"model"`
	Method      string          `json:"method"`
	Args        json.RawMessage `json:"args"`
	State       JobState        `json:"state"`
	Error       string          `json:"error,omitempty"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewJob creates a queued job. args is marshalled to JSON.
func NewJob(channel, model, method string, args any, maxRetries int) (*Job, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job arguments: %w", err)
	}
	return &Job{
		ID:         uuid.New(),
		Channel:    channel,
		Model:      model,
		Method:     method,
		Args:       raw,
		State:      JobStateQueued,
		MaxRetries: maxRetries,
		EnqueuedAt: time.Now(),
	}, nil
}

// DecodeArgs unmarshals the job arguments into v
func (j *Job) DecodeArgs(v any) error {
	if err := json.Unmarshal(j.Args, v); err != nil {
		return fmt.Errorf("failed to decode arguments of job %s: %w", j.ID, err)
	}
	return nil
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.State = JobStateStarted
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as done
func (j *Job) Complete() {
	now := time.Now()
	j.State = JobStateDone
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.State = JobStateFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if a failed job has retries left
func (j *Job) ShouldRetry() bool {
	return j.State == JobStateFailed && j.RetryCount < j.MaxRetries
}

// Requeue puts a failed job back in the queued state for another attempt
func (j *Job) Requeue() {
	j.RetryCount++
	j.State = JobStateQueued
	j.CompletedAt = nil
}

// Clone returns a copy safe to hand out of a store
func (j *Job) Clone() *Job {
	c := *j
	c.Args = append(json.RawMessage(nil), j.Args...)
	return &c
}
