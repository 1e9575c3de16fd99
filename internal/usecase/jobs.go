package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"GoreScanner/internal/domain"
)

// maxJobs bounds how many jobs are kept for polling.
const maxJobs = 100

// ErrJobNotFound is returned for unknown or evicted job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobKind distinguishes scan and verify jobs.
type JobKind string

const (
	JobScan   JobKind = "scan"
	JobVerify JobKind = "verify"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is a unit of background work. Callers poll Status or wait on Done.
type Job struct {
	ID        string
	Kind      JobKind
	CreatedAt time.Time

	mu         sync.Mutex
	status     JobStatus
	err        error
	scan       *ScanResult
	verify     []domain.VerifyResult
	finishedAt time.Time
	done       chan struct{}
}

// JobSnapshot is a consistent copy of a job's state.
type JobSnapshot struct {
	ID         string
	Kind       JobKind
	Status     JobStatus
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
	Scan       *ScanResult
	Verify     []domain.VerifyResult
}

func newJob(kind JobKind) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: time.Now(),
		status:    JobPending,
		done:      make(chan struct{}),
	}
}

// Status returns the current state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx ends.
func (j *Job) Wait(ctx context.Context) (JobSnapshot, error) {
	select {
	case <-j.done:
		return j.Snapshot(), nil
	case <-ctx.Done():
		return j.Snapshot(), ctx.Err()
	}
}

// Snapshot copies the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:         j.ID,
		Kind:       j.Kind,
		Status:     j.status,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.finishedAt,
		Scan:       j.scan,
		Verify:     j.verify,
	}
	if j.err != nil {
		snap.Error = j.err.Error()
	}
	return snap
}

func (j *Job) setRunning() {
	j.mu.Lock()
	j.status = JobRunning
	j.mu.Unlock()
}

func (j *Job) finish(scan *ScanResult, verify []domain.VerifyResult, err error) {
	j.mu.Lock()
	j.scan = scan
	j.verify = verify
	j.err = err
	j.status = JobDone
	if err != nil {
		j.status = JobFailed
	}
	j.finishedAt = time.Now()
	j.mu.Unlock()
	close(j.done)
}

// Jobs runs scans and verifications in the background so the caller stays
// responsive. Results are polled by ID.
type Jobs struct {
	scanner  *Scanner
	verifier *Verifier
	ctx      context.Context

	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
	wg    sync.WaitGroup
}

// NewJobs binds background work to ctx; cancelling it cancels running jobs.
func NewJobs(ctx context.Context, scanner *Scanner, verifier *Verifier) *Jobs {
	return &Jobs{
		scanner:  scanner,
		verifier: verifier,
		ctx:      ctx,
		jobs:     map[string]*Job{},
	}
}

// SubmitScan starts a scan job.
func (j *Jobs) SubmitScan(req ScanRequest) *Job {
	job := newJob(JobScan)
	j.track(job)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		job.setRunning()
		if j.scanner == nil {
			job.finish(nil, nil, errors.New("scanner is not configured"))
			return
		}
		result, err := j.scanner.Scan(j.ctx, req)
		job.finish(result, nil, err)
	}()
	return job
}

// SubmitVerify starts a verify job.
func (j *Jobs) SubmitVerify(urls []string) *Job {
	job := newJob(JobVerify)
	j.track(job)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		job.setRunning()
		if j.verifier == nil {
			job.finish(nil, nil, errors.New("verifier is not configured"))
			return
		}
		job.finish(nil, j.verifier.Verify(j.ctx, urls), nil)
	}()
	return job
}

// Get returns a tracked job.
func (j *Jobs) Get(id string) (*Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Wait blocks until all submitted jobs finish.
func (j *Jobs) Wait() {
	j.wg.Wait()
}

// track registers job and evicts the oldest finished jobs beyond maxJobs.
func (j *Jobs) track(job *Job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[job.ID] = job
	j.order = append(j.order, job.ID)

	for len(j.order) > maxJobs {
		evicted := false
		for i, id := range j.order {
			if j.jobs[id].Status() == JobDone || j.jobs[id].Status() == JobFailed {
				delete(j.jobs, id)
				j.order = append(j.order[:i], j.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
