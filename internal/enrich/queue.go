package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "renditax/internal/errors"
	"renditax/internal/uuid"
)

// JobStatus is the lifecycle state of a submitted batch job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is the handle returned for a fire-and-forget batch trigger. Callers
// must not assume completion before acknowledgment; they poll the job by ID.
type Job struct {
	ID          string       `json:"id"`
	Source      Source       `json:"source"`
	Status      JobStatus    `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Report      *BatchReport `json:"report,omitempty"`
	Error       string       `json:"error,omitempty"`
}

type queued struct {
	jobID   string
	adapter Adapter
}

// Queue runs batch jobs on a single background worker. Submitting returns
// immediately with a job handle; a source whose batch is still running is
// turned away rather than queued behind itself.
type Queue struct {
	runner *Runner
	logger *zap.SugaredLogger
	work   chan queued

	mu   sync.RWMutex
	jobs map[string]*Job

	wg   sync.WaitGroup
	once sync.Once
}

// NewQueue creates a queue with the given backlog size and starts its worker.
func NewQueue(runner *Runner, backlog int, logger *zap.SugaredLogger) *Queue {
	q := &Queue{
		runner: runner,
		logger: logger,
		work:   make(chan queued, backlog),
		jobs:   make(map[string]*Job),
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Submit enqueues a batch run for the adapter and returns its job handle.
// A source that is mid-run is rejected immediately; a full backlog is
// reported the same way rather than blocking the caller.
func (q *Queue) Submit(adapter Adapter) (*Job, error) {
	if q.runner.Active(adapter.Source()) {
		return nil, apperrors.ErrEnrichRunActive
	}

	job := &Job{
		ID:          uuid.New(),
		Source:      adapter.Source(),
		Status:      JobQueued,
		SubmittedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	select {
	case q.work <- queued{jobID: job.ID, adapter: adapter}:
	default:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return nil, apperrors.ErrEnrichRunActive
	}

	return q.snapshot(job.ID), nil
}

// Get returns a copy of the job with the given ID.
func (q *Queue) Get(id string) (*Job, bool) {
	job := q.snapshot(id)
	return job, job != nil
}

// Close stops accepting work and waits for the in-flight job to finish.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.work) })
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for item := range q.work {
		started := time.Now().UTC()
		q.update(item.jobID, func(j *Job) {
			j.Status = JobRunning
			j.StartedAt = &started
		})

		report, err := q.runner.RunBatch(context.Background(), item.adapter)

		finished := time.Now().UTC()
		q.update(item.jobID, func(j *Job) {
			j.FinishedAt = &finished
			j.Report = report
			if err != nil {
				j.Status = JobFailed
				j.Error = err.Error()
				return
			}
			j.Status = JobCompleted
		})

		if err != nil {
			q.logger.Errorw("batch job failed", "job_id", item.jobID, "error", err)
		}
	}
}

func (q *Queue) update(id string, fn func(*Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		fn(job)
	}
}

func (q *Queue) snapshot(id string) *Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
