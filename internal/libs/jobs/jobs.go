// Package jobs provides background job queue management and async task processing.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status is the lifecycle state of a job
type Status string

// Job status values. StatusRemoved is never stored; it is reported for
// unknown ids.
const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusRemoved  Status = "removed"
)

// IndeterminateProgress marks a job whose progress cannot be measured yet
const IndeterminateProgress = -1

// Task is the long running function behind a job
type Task func(ctx context.Context, id string)

// Message is the human readable status of a running job
type Message struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Job represents a background job
type Job struct {
	ID        string
	Status    Status
	Message   *Message
	Progress  *float64
	Results   any
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time

	task Task
}

// Registry tracks background jobs by id
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	ctx    context.Context
	wg     sync.WaitGroup
	logger zerolog.Logger
	now    func() time.Time
}

// NewRegistry creates a new job registry. Tasks run with ctx, so cancelling
// it is how the owning process shuts running jobs down.
func NewRegistry(ctx context.Context, logger zerolog.Logger) *Registry {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Registry{
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		logger: logger,
		now:    time.Now,
	}
}

// Add stores a pending job for task and returns its id. The task does not
// run until Start is called.
func (r *Registry) Add(task Task) string {
	id := uuid.NewString()
	now := r.now()

	r.mu.Lock()
	r.jobs[id] = &Job{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		task:      task,
	}
	r.mu.Unlock()

	r.logger.Debug().Str("job_id", id).Msg("job added")
	return id
}

// Start moves a pending job to running and runs its task on a new goroutine.
// It reports false when the job is unknown or not pending.
func (r *Registry) Start(id string) bool {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusPending {
		r.mu.Unlock()
		return false
	}
	job.Status = StatusRunning
	job.UpdatedAt = r.now()
	task := job.task
	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Debug().Str("job_id", id).Msg("job started")

	go func() {
		defer r.wg.Done()
		if task != nil {
			task(r.ctx, id)
		}
	}()
	return true
}

// Status returns the status of the job, or StatusRemoved for unknown ids
func (r *Registry) Status(id string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if job, ok := r.jobs[id]; ok {
		return job.Status
	}
	return StatusRemoved
}

// Message returns the current message of the job, nil when unset or unknown
func (r *Registry) Message(id string) *Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if job, ok := r.jobs[id]; ok && job.Message != nil {
		msg := *job.Message
		return &msg
	}
	return nil
}

// Progress returns the current progress of the job, nil when unset or unknown
func (r *Registry) Progress(id string) *float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if job, ok := r.jobs[id]; ok && job.Progress != nil {
		p := *job.Progress
		return &p
	}
	return nil
}

// Results returns the results of a complete job. The second value is false
// while the job is not complete.
func (r *Registry) Results(id string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusComplete {
		return nil, false
	}
	return job.Results, true
}

// Err returns the failure of a complete job, if any
func (r *Registry) Err(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if job, ok := r.jobs[id]; ok && job.Status == StatusComplete {
		return job.Err
	}
	return nil
}

// Snapshot returns a copy of the job without its task
func (r *Registry) Snapshot(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{ID: id, Status: StatusRemoved}, false
	}
	snap := *job
	snap.task = nil
	if job.Message != nil {
		msg := *job.Message
		snap.Message = &msg
	}
	if job.Progress != nil {
		p := *job.Progress
		snap.Progress = &p
	}
	return snap, true
}

// SetMessage sets the message of the job. Unknown ids are ignored.
func (r *Registry) SetMessage(id, title, subtitle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Message = &Message{Title: title, Subtitle: subtitle}
		job.UpdatedAt = r.now()
	}
}

// SetProgress sets the progress of the job. Unknown ids are ignored.
func (r *Registry) SetProgress(id string, progress float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Progress = &progress
		job.UpdatedAt = r.now()
	}
}

// Complete stores the results of a running job, clears its message and
// progress, and only then marks it complete.
func (r *Registry) Complete(id string, results any) bool {
	return r.finish(id, results, nil)
}

// Fail completes a running job with an error instead of results
func (r *Registry) Fail(id string, err error) bool {
	return r.finish(id, nil, err)
}

func (r *Registry) finish(id string, results any, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusRunning {
		return false
	}
	job.Results = results
	job.Err = err
	job.Message = nil
	job.Progress = nil
	job.UpdatedAt = r.now()
	job.Status = StatusComplete

	event := r.logger.Debug()
	if err != nil {
		event = r.logger.Warn().Err(err)
	}
	event.Str("job_id", id).Msg("job complete")
	return true
}

// Remove deletes a job. Its task keeps running if it already started, and
// its later updates are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Prune removes complete jobs last updated before maxAge ago and returns how
// many were removed
func (r *Registry) Prune(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, job := range r.jobs {
		if job.Status == StatusComplete && job.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of jobs in the registry
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Wait blocks until every started task has returned
func (r *Registry) Wait() {
	r.wg.Wait()
}
