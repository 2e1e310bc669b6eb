// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPoolClosed is returned by Submit after Shutdown or Abort.
	ErrPoolClosed = errors.New("worker pool is not accepting tasks")
	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("task panicked")
)

// Task is a unit of work run by one worker.
type Task func(ctx context.Context)

// Hooks are optional lifecycle callbacks. OnStart and OnTerminate are called
// exactly once; BeforeExecute and AfterExecute are called concurrently from
// the workers and must be safe for that.
type Hooks struct {
	OnStart       func(ctx context.Context)
	BeforeExecute func(ctx context.Context)
	AfterExecute  func(ctx context.Context, err error)
	OnTerminate   func(ctx context.Context)
}

// Pool is a fixed size worker pool with an unbounded backlog.
type Pool struct {
	size  int
	hooks Hooks

	mu      sync.Mutex
	cond    *sync.Cond
	backlog []Task
	closed  bool

	startOnce sync.Once
	done      chan struct{}
}

// New creates a pool of size workers. A size below one uses runtime.NumCPU.
// The workers are not started until Start or the first Submit.
func New(size int, hooks Hooks) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}

	p := &Pool{
		size:  size,
		hooks: hooks,
		done:  make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Start activates the pool: OnStart runs, then the workers are launched.
// Calling Start more than once has no further effect.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		if p.hooks.OnStart != nil {
			p.hooks.OnStart(ctx)
		}

		var g errgroup.Group

		for i := range p.size {
			g.Go(func() error {
				p.work(ctx, i)
				return nil
			})
		}

		go func() {
			_ = g.Wait()

			if p.hooks.OnTerminate != nil {
				p.hooks.OnTerminate(ctx)
			}

			close(p.done)
		}()
	})
}

// Submit appends task to the backlog. It never blocks on worker availability.
// The pool is started if it was not already.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}

	p.backlog = append(p.backlog, task)
	p.mu.Unlock()
	p.cond.Signal()

	p.Start(ctx)

	return nil
}

// Pending returns the number of tasks waiting for a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.backlog)
}

// Shutdown stops accepting tasks. Tasks already submitted still run; the
// workers exit once the backlog is empty. A pool that was never started is
// started so that its hooks run.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()

	p.Start(ctx)
}

// Abort stops accepting tasks and discards the backlog. Tasks already running
// are not interrupted. It returns the number of discarded tasks.
func (p *Pool) Abort(ctx context.Context) int {
	p.mu.Lock()
	p.closed = true
	dropped := len(p.backlog)
	p.backlog = nil
	p.mu.Unlock()
	p.cond.Broadcast()

	p.Start(ctx)

	return dropped
}

// Wait blocks until every worker has returned and OnTerminate has completed,
// or until ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}
}

// Done is closed after OnTerminate has completed.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// next blocks until a task is available. It returns false when the pool is
// closed and the backlog is empty.
func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.backlog) == 0 && !p.closed {
		p.cond.Wait()
	}

	if len(p.backlog) == 0 {
		return nil, false
	}

	task := p.backlog[0]
	p.backlog[0] = nil
	p.backlog = p.backlog[1:]

	return task, true
}

func (p *Pool) work(ctx context.Context, worker int) {
	logger := ctxlog.Logger(ctx).With("worker", worker)
	logger.Debug("worker started")

	for {
		task, ok := p.next()
		if !ok {
			logger.Debug("worker stopped")
			return
		}

		if p.hooks.BeforeExecute != nil {
			p.hooks.BeforeExecute(ctx)
		}

		err := run(ctx, task)
		if err != nil {
			logger.Error("task failed", "error", err)
		}

		if p.hooks.AfterExecute != nil {
			p.hooks.AfterExecute(ctx, err)
		}
	}
}

func run(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrTaskPanicked, r, debug.Stack())
		}
	}()

	task(ctx)

	return nil
}
