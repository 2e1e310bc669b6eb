// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrJobAlreadyRegistered is returned when a job is added to a second batch, or twice to the same one.
	ErrJobAlreadyRegistered = errors.New("job already registered with a batch")
	// ErrNilJob is returned when a nil job is added to a batch.
	ErrNilJob = errors.New("job is nil")
)

// batchNamespace seeds the name based batch identifiers.
var batchNamespace = uuid.MustParse("8f0d3c1e-6a55-4c1b-9a57-0b5f0e7f2d10")

// Batch is the aggregate of all jobs submitted to one pool.
// It is safe for concurrent use.
type Batch struct {
	mu          sync.RWMutex
	name        string
	id          string
	startDate   time.Time
	endDate     time.Time
	jobs        []*Job
	jobCounter  uint64
	parameters  string
	jobsFile    string
	logDir      string
	plannedJobs int

	status  atomic.Int32
	success atomic.Uint64
	failure atomic.Uint64
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithParameters records the parameter string appended to every job.
func WithParameters(p string) BatchOption {
	return func(b *Batch) { b.parameters = p }
}

// WithJobsFile records the file the job list was read from.
func WithJobsFile(f string) BatchOption {
	return func(b *Batch) { b.jobsFile = f }
}

// WithBatchLogDir records the directory job logs are written to.
func WithBatchLogDir(d string) BatchOption {
	return func(b *Batch) { b.logDir = d }
}

// WithPlannedJobs sets the job count reported when the batch starts.
// When unset the number of jobs registered at start time is used.
func WithPlannedJobs(n int) BatchOption {
	return func(b *Batch) { b.plannedJobs = n }
}

// NewBatch creates a batch in status NONE. An empty name leaves the
// batch unnamed.
func NewBatch(name string, opts ...BatchOption) *Batch {
	b := &Batch{}
	for _, opt := range opts {
		opt(b)
	}

	b.SetName(name)

	return b
}

// SetName sets the batch name and derives the identifier from it.
// Only the first non-empty name is kept.
func (b *Batch) SetName(name string) {
	if name == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.name != "" {
		return
	}

	b.name = name
	b.id = uuid.NewSHA1(batchNamespace, []byte(name)).String()
}

// Name returns the batch name, or an empty string when unnamed.
func (b *Batch) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.name
}

// ID returns the batch identifier. It is empty until a name is set or the
// pool activates.
func (b *Batch) ID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.id
}

// ensureID assigns a random identifier to an unnamed batch.
func (b *Batch) ensureID() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.id == "" {
		b.id = uuid.NewString()
	}

	return b.id
}

// Status returns the current batch status.
func (b *Batch) Status() BatchStatus {
	return BatchStatus(b.status.Load())
}

// markStarted moves the batch to STARTED and records the start date.
func (b *Batch) markStarted(at time.Time) {
	b.mu.Lock()
	b.startDate = at
	b.mu.Unlock()

	b.status.Store(int32(BatchStatusStarted))
}

// markRunning moves the batch to RUNNING unless it is already running or
// terminal. It is called before every job execution.
func (b *Batch) markRunning() {
	for {
		cur := BatchStatus(b.status.Load())
		if cur != BatchStatusNone && cur != BatchStatusStarted {
			return
		}

		if b.status.CompareAndSwap(int32(cur), int32(BatchStatusRunning)) {
			return
		}
	}
}

// finish records the end date and stores the terminal status derived from
// the counters.
func (b *Batch) finish(at time.Time) BatchStatus {
	b.mu.Lock()
	b.endDate = at
	b.mu.Unlock()

	st := StatusFromCounts(b.success.Load(), b.failure.Load())
	b.status.Store(int32(st))

	return st
}

// StartDate returns the activation time and whether it is set.
func (b *Batch) StartDate() (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.startDate, !b.startDate.IsZero()
}

// EndDate returns the termination time and whether it is set.
func (b *Batch) EndDate() (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.endDate, !b.endDate.IsZero()
}

// Duration formats the batch run time as HH:MM:SS.
func (b *Batch) Duration() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return FormatDuration(b.startDate, b.endDate)
}

// SuccessCount returns the number of jobs that completed.
func (b *Batch) SuccessCount() uint64 {
	return b.success.Load()
}

// FailureCount returns the number of jobs that failed.
func (b *Batch) FailureCount() uint64 {
	return b.failure.Load()
}

// Parameters returns the parameter string appended to every job.
func (b *Batch) Parameters() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.parameters
}

// JobsFile returns the file the job list was read from.
func (b *Batch) JobsFile() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.jobsFile
}

// LogDir returns the job log directory.
func (b *Batch) LogDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.logDir
}

// PlannedJobs returns the announced job count, falling back to the number
// of registered jobs.
func (b *Batch) PlannedJobs() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.plannedJobs > 0 {
		return b.plannedJobs
	}

	return len(b.jobs)
}

// planJobs sets the announced job count unless one was configured.
func (b *Batch) planJobs(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.plannedJobs == 0 {
		b.plannedJobs = n
	}
}

// Len returns the number of registered jobs.
func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.jobs)
}

// Jobs returns a snapshot of the registered jobs in submission order.
func (b *Batch) Jobs() []*Job {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Job, len(b.jobs))
	copy(out, b.jobs)

	return out
}

// register appends j to the batch and assigns its identifier. Both happen
// in the same critical section so identifiers follow list order.
func (b *Batch) register(j *Job, r *Runner) error {
	if j == nil {
		return ErrNilJob
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !j.bind(b, r, b.jobCounter+1) {
		return ErrJobAlreadyRegistered
	}

	b.jobCounter++
	b.jobs = append(b.jobs, j)

	return nil
}

func (b *Batch) recordSuccess() {
	b.success.Add(1)
}

func (b *Batch) recordFailure() {
	b.failure.Add(1)
}
