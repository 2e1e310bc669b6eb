// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/taskpool/internal/progress"
	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
)

var _ progress.Reporter = (*Reporter)(nil)

// ExecFunc runs the batch and returns its final status.
type ExecFunc func(ctx context.Context) (runbatch.BatchStatus, error)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
	mutex    sync.Mutex
}

// Reporter implements progress.Reporter and forwards events to the TUI.
type Reporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewReporter creates a new TUI progress reporter.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{
		program: program,
	}
}

// Report implements progress.Reporter.
func (tr *Reporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.
func (tr *Reporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	tr.closed = true
}

// NewRunner creates a TUI runner for b. Program options are passed to
// bubbletea; by default the alternate screen is used.
func NewRunner(ctx context.Context, b *runbatch.Batch, opts []Option, programOpts ...tea.ProgramOption) *Runner {
	model := NewModel(ctx, b, opts...)

	if len(programOpts) == 0 {
		programOpts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	programOpts = append(programOpts, tea.WithContext(ctx))
	program := tea.NewProgram(model, programOpts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewReporter(program),
	}
}

// Reporter returns the progress reporter feeding this TUI.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Run starts the TUI and executes the batch. It returns once both the batch
// and the TUI are done; quitting the TUI early does not stop the batch.
func (r *Runner) Run(ctx context.Context, exec ExecFunc) (runbatch.BatchStatus, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	type result struct {
		status runbatch.BatchStatus
		err    error
	}

	resultChan := make(chan result, 1)

	go func() {
		st, err := exec(ctx)
		resultChan <- result{st, err}
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		res    result
		tuiErr error
	)

	select {
	case res = <-resultChan:
		r.program.Send(BatchFinishedMsg{})

		tuiErr = <-tuiDone

		r.reporter.Close()

	case tuiErr = <-tuiDone:
		r.reporter.Close()

		res = <-resultChan
	}

	if errors.Is(tuiErr, tea.ErrProgramKilled) {
		tuiErr = nil
	}

	if tuiErr != nil && res.err == nil {
		return res.status, tuiErr //nolint:wrapcheck
	}

	return res.status, res.err
}
