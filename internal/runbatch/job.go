// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/matt-FFFFFF/taskpool/internal/progress"
	"github.com/matt-FFFFFF/taskpool/internal/teereader"
)

const (
	// ExitCodeNotTerminated is the exit code of a job whose process has not exited.
	ExitCodeNotTerminated = -42
	// ExitCodeUnknown is the exit code of a job whose process could not be
	// started or waited for, or was terminated by a signal.
	ExitCodeUnknown = -1
)

// Job is one command line executed at most once as an operating system
// process. It is safe for concurrent use.
type Job struct {
	commandLine string
	id          atomic.Uint64

	mu        sync.RWMutex
	batch     *Batch
	runner    *Runner
	status    JobStatus
	claimed   bool
	destroyed bool
	startDate time.Time
	endDate   time.Time
	exitCode  int
	process   *os.Process
	output    *teereader.LastLineTeeReader
	logFile   string
	outputErr *multierror.Error
}

// NewJob creates a job for commandLine in status NONE. The job receives its
// identifier when it is added to a pool.
func NewJob(commandLine string) *Job {
	return &Job{
		commandLine: commandLine,
		exitCode:    ExitCodeNotTerminated,
	}
}

// ID returns the job identifier, or zero before the job is added to a batch.
func (j *Job) ID() uint64 {
	return j.id.Load()
}

// CommandLine returns the command line the job runs.
func (j *Job) CommandLine() string {
	return j.commandLine
}

// String implements fmt.Stringer.
func (j *Job) String() string {
	return j.commandLine
}

// Status returns the current job status.
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.status
}

// ExitCode returns the process exit code, or ExitCodeNotTerminated while the
// job has not finished.
func (j *Job) ExitCode() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.exitCode
}

// StartDate returns the time the job was started and whether it is set.
func (j *Job) StartDate() (time.Time, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.startDate, !j.startDate.IsZero()
}

// EndDate returns the time the job finished and whether it is set.
func (j *Job) EndDate() (time.Time, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.endDate, !j.endDate.IsZero()
}

// Duration formats the job run time as HH:MM:SS.
func (j *Job) Duration() string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return FormatDuration(j.startDate, j.endDate)
}

// LastLine returns the most recent complete line of output, shortened to
// maxLength when maxLength is positive.
func (j *Job) LastLine(maxLength int) string {
	j.mu.RLock()
	out := j.output
	j.mu.RUnlock()

	if out == nil {
		return ""
	}

	return out.LastLine(maxLength)
}

// OutputBytes returns the number of output bytes read so far.
func (j *Job) OutputBytes() int64 {
	j.mu.RLock()
	out := j.output
	j.mu.RUnlock()

	if out == nil {
		return 0
	}

	return out.Len()
}

// Output returns the captured output. It is nil unless the runner captures
// output and no log directory is set.
func (j *Job) Output() []byte {
	j.mu.RLock()
	out := j.output
	j.mu.RUnlock()

	if out == nil {
		return nil
	}

	return out.Bytes()
}

// LogFile returns the path of the job's output log, or an empty string.
func (j *Job) LogFile() string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.logFile
}

// OutputErr returns the errors met while handling the job's output. They
// never change the job status.
func (j *Job) OutputErr() error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.outputErr.ErrorOrNil()
}

// bind attaches the job to its batch and runner. It fails if the job was
// already bound.
func (j *Job) bind(b *Batch, r *Runner, id uint64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.batch != nil {
		return false
	}

	j.batch = b
	j.runner = r
	j.id.Store(id)

	return true
}

// Start runs the job's process to completion and records the outcome on
// the batch. A job that is not in status NONE, or was already started, is
// left untouched and a warning is logged.
func (j *Job) Start(ctx context.Context) {
	logger := ctxlog.Logger(ctx).With(ctxlog.JobIDKey, j.ID())

	j.mu.Lock()

	if j.batch == nil {
		j.mu.Unlock()
		logger.Warn("job is not registered with a batch, not starting", "command", j.commandLine)

		return
	}

	if j.claimed || j.status != JobStatusNone {
		st := j.status
		j.mu.Unlock()
		logger.Warn("job already started, ignoring", "command", j.commandLine, "status", st.String())

		return
	}

	j.claimed = true
	j.startDate = time.Now()
	b := j.batch
	j.mu.Unlock()

	ctx = ctxlog.New(ctx, logger.With(ctxlog.BatchIDKey, b.ID()))

	j.run(ctx)
}

// Destroy kills the job's process if it is running. It is safe to call at
// any time and more than once. A job that has been claimed but not yet
// spawned is killed as soon as its process exists.
func (j *Job) Destroy(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.destroyed = true

	if j.process == nil {
		return
	}

	killPs(ctx, j.process)
}

// finish moves the job to its terminal status, updates the batch counters
// and emits the job record.
func (j *Job) finish(ctx context.Context, exitCode int, cause error) {
	logger := ctxlog.Logger(ctx)

	j.mu.Lock()
	j.endDate = time.Now()
	j.exitCode = exitCode
	j.process = nil

	if exitCode == 0 {
		j.status = JobStatusCompleted
	} else {
		j.status = JobStatusFailed
	}

	st := j.status
	b, r := j.batch, j.runner
	j.mu.Unlock()

	evt := progress.Event{
		BatchID:     b.ID(),
		JobID:       j.ID(),
		CommandLine: j.commandLine,
		Timestamp:   time.Now(),
		ExitCode:    exitCode,
		Err:         cause,
	}

	if st == JobStatusCompleted {
		b.recordSuccess()

		evt.Type = progress.EventJobCompleted
		logger.Debug("job completed", "exitCode", exitCode, "duration", j.Duration())
	} else {
		b.recordFailure()

		evt.Type = progress.EventJobFailed
		logger.Info("job failed", "command", j.commandLine, "exitCode", exitCode, "error", cause)
	}

	if err := r.records.Job(b, j); err != nil {
		logger.Error("could not write job record", "error", err)
	}

	if out := j.Output(); out != nil {
		logger.Debug("job output", "output", string(out))
	}

	r.reporter.Report(evt)
}

func (j *Job) addOutputErr(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.outputErr = multierror.Append(j.outputErr, err)
}

// killPs kills the process. A process that already exited is not an error.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", ps.Pid)
}
