// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/matt-FFFFFF/taskpool/internal/progress"
	"github.com/matt-FFFFFF/taskpool/internal/workerpool"
)

// ErrPoolClosed is returned when a job is added after Shutdown or Abort.
var ErrPoolClosed = workerpool.ErrPoolClosed

// Pool executes the jobs of one batch on a fixed number of workers.
type Pool struct {
	batch  *Batch
	runner *Runner
	wp     *workerpool.Pool

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool of workers for b. A workers value below one uses
// one worker per CPU. A nil runner discards output and records.
func NewPool(b *Batch, r *Runner, workers int) *Pool {
	if r == nil {
		r = NewRunner()
	}

	p := &Pool{
		batch:  b,
		runner: r,
	}

	p.wp = workerpool.New(workers, workerpool.Hooks{
		OnStart:       p.onStart,
		BeforeExecute: p.beforeExecute,
		AfterExecute:  p.afterExecute,
		OnTerminate:   p.onTerminate,
	})

	return p
}

// Batch returns the batch the pool runs.
func (p *Pool) Batch() *Batch {
	return p.batch
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.wp.Size()
}

// Start activates the pool and the batch. It is implied by the first AddTask.
func (p *Pool) Start(ctx context.Context) {
	p.wp.Start(ctx)
}

// AddTask registers j with the batch, assigning its identifier, and queues
// it for execution. It does not wait for a worker.
func (p *Pool) AddTask(ctx context.Context, j *Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	// The batch must be started, and hold its id, before the job is reported.
	p.wp.Start(ctx)

	if err := p.batch.register(j, p.runner); err != nil {
		return err
	}

	ctxlog.Logger(ctx).Debug("job queued", ctxlog.JobIDKey, j.ID(), "command", j.CommandLine())

	p.runner.reporter.Report(progress.Event{
		Type:        progress.EventJobQueued,
		BatchID:     p.batch.ID(),
		JobID:       j.ID(),
		CommandLine: j.CommandLine(),
		Timestamp:   time.Now(),
	})

	return p.wp.Submit(ctx, j.Start) //nolint:wrapcheck
}

// Add creates a job for commandLine and adds it to the pool.
func (p *Pool) Add(ctx context.Context, commandLine string) (*Job, error) {
	j := NewJob(commandLine)
	if err := p.AddTask(ctx, j); err != nil {
		return nil, err
	}

	return j, nil
}

// Shutdown stops accepting jobs. Queued jobs still run and the batch
// reaches its terminal status once they have finished.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wp.Shutdown(ctx)
}

// Abort stops accepting jobs and drops the ones not yet started. They stay
// in status NONE. Running jobs finish normally.
func (p *Pool) Abort(ctx context.Context) int {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	dropped := p.wp.Abort(ctx)
	if dropped > 0 {
		ctxlog.Logger(ctx).Warn("queued jobs will not be started", "count", dropped)
	}

	return dropped
}

// Destroy aborts the pool and kills every running job. A job claimed by a
// worker but not yet spawned is killed as soon as its process exists.
func (p *Pool) Destroy(ctx context.Context) {
	p.Abort(ctx)

	for _, j := range p.batch.Jobs() {
		if !j.Status().Terminal() {
			j.Destroy(ctx)
		}
	}
}

// Wait blocks until the batch has reached its terminal status, or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	return p.wp.Wait(ctx) //nolint:wrapcheck
}

// Done is closed once the batch has reached its terminal status.
func (p *Pool) Done() <-chan struct{} {
	return p.wp.Done()
}

// Run adds one job per command line, shuts the pool down and waits for the
// batch to finish. When ctx is cancelled, queued jobs are dropped and
// running ones killed; Run still waits for the terminal status. Jobs left
// over after an Abort are not submitted.
func (p *Pool) Run(ctx context.Context, commandLines []string) (BatchStatus, error) {
	p.batch.planJobs(len(commandLines))

	for i, cl := range commandLines {
		if _, err := p.Add(ctx, cl); err != nil {
			if !errors.Is(err, ErrPoolClosed) {
				return p.batch.Status(), err
			}

			ctxlog.Logger(ctx).Warn("pool closed, remaining jobs not submitted", "count", len(commandLines)-i)

			break
		}
	}

	p.Shutdown(ctx)

	if err := p.Wait(ctx); err != nil {
		ctxlog.Logger(ctx).Warn("batch interrupted, stopping jobs", "error", err)
		p.Destroy(context.WithoutCancel(ctx))
		<-p.Done()
	}

	return p.batch.Status(), nil
}

func (p *Pool) onStart(ctx context.Context) {
	b := p.batch
	id := b.ensureID()
	b.markStarted(time.Now())

	ctxlog.Logger(ctx).Info("batch started",
		ctxlog.BatchIDKey, id,
		"name", b.Name(),
		"workers", p.wp.Size(),
	)

	if err := p.runner.records.BatchStart(b, p.wp.Size()); err != nil {
		ctxlog.Logger(ctx).Error("could not write batch record", "error", err)
	}

	p.runner.reporter.Report(progress.Event{
		Type:      progress.EventBatchStarted,
		BatchID:   id,
		Message:   b.Name(),
		Timestamp: time.Now(),
	})
}

func (p *Pool) beforeExecute(_ context.Context) {
	p.batch.markRunning()
}

// afterExecute logs a job task that panicked.
func (p *Pool) afterExecute(ctx context.Context, err error) {
	if err == nil {
		return
	}

	ctxlog.Logger(ctx).Error("job task aborted",
		ctxlog.BatchIDKey, p.batch.ID(),
		"error", err,
	)
}

// onTerminate runs after every worker has returned, so the counters are final.
func (p *Pool) onTerminate(ctx context.Context) {
	b := p.batch
	st := b.finish(time.Now())

	ctxlog.Logger(ctx).Info("batch finished",
		ctxlog.BatchIDKey, b.ID(),
		"status", st.String(),
		"success", b.SuccessCount(),
		"failure", b.FailureCount(),
		"duration", b.Duration(),
	)

	if err := p.runner.records.BatchEnd(b); err != nil {
		ctxlog.Logger(ctx).Error("could not write batch record", "error", err)
	}

	p.runner.reporter.Report(progress.Event{
		Type:      progress.EventBatchFinished,
		BatchID:   b.ID(),
		Message:   st.String(),
		Timestamp: time.Now(),
	})
}
