// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/taskpool/internal/progress"
	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedBatch(t *testing.T, name string, commands ...string) *runbatch.Batch {
	t.Helper()

	b := runbatch.NewBatch(name)
	_, err := runbatch.NewPool(b, nil, 2).Run(context.Background(), commands)
	require.NoError(t, err)

	return b
}

func TestNewModel(t *testing.T) {
	b := runbatch.NewBatch("tui")
	m := NewModel(context.Background(), b, WithWorkers(3))

	require.NotNil(t, m)
	assert.False(t, m.Completed())
	assert.Equal(t, 3, m.workers)
	assert.Equal(t, defaultWidth-2, m.viewport.Width)
	assert.NotNil(t, m.Init())
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel(context.Background(), runbatch.NewBatch("tui"))

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	assert.Nil(t, cmd)
	assert.Equal(t, 58, m.viewport.Width)
	assert.Equal(t, 22, m.viewport.Height)

	m.Update(tea.WindowSizeMsg{Width: 10, Height: 3})
	assert.Equal(t, 1, m.viewport.Height)
}

func TestModel_TickWhileRunning(t *testing.T) {
	m := NewModel(context.Background(), runbatch.NewBatch("tui"))

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd, "keeps ticking until the batch is finished")
	assert.False(t, m.Completed())
}

func TestModel_TickAfterFinish(t *testing.T) {
	b := finishedBatch(t, "done", "true", "false")
	m := NewModel(context.Background(), b)

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.True(t, m.Completed())

	view := m.View()
	assert.Contains(t, view, "taskpool: done")
	assert.Contains(t, view, "#1 true")
	assert.Contains(t, view, "#2 false")
	assert.Contains(t, view, "exit code 1")
	assert.Contains(t, view, "Batch completed with errors")
	assert.Contains(t, view, "Completed: 1")
	assert.Contains(t, view, "Failed: 1")
	assert.Contains(t, view, "Status: COMPLETED_WITH_ERROR")
}

func TestModel_AutoQuit(t *testing.T) {
	b := finishedBatch(t, "auto", "true")
	m := NewModel(context.Background(), b, WithAutoQuit())

	_, cmd := m.Update(BatchFinishedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Completed())
	assert.Contains(t, m.View(), "Batch completed in")
}

func TestModel_QuitKey(t *testing.T) {
	m := NewModel(context.Background(), runbatch.NewBatch("tui"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestModel_FailureReasonFromEvent(t *testing.T) {
	b := finishedBatch(t, "reasons", "no-such-command-here")
	m := NewModel(context.Background(), b)

	m.Update(ProgressEventMsg{Event: progress.Event{
		Type:  progress.EventJobFailed,
		JobID: 1,
		Err:   errors.New("could not start process"),
	}})
	m.Update(ProgressEventMsg{Event: progress.Event{Type: progress.EventJobCompleted, JobID: 2}})
	m.Update(BatchFinishedMsg{})

	view := m.View()
	assert.Contains(t, view, "could not start process")
	assert.Contains(t, view, "Batch FAILED")
}

func TestCountJobs(t *testing.T) {
	b := finishedBatch(t, "counts", "true", "true", "false")

	c := countJobs(b.Jobs())
	assert.Equal(t, counts{total: 3, completed: 2, failed: 1}, c)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello w...", truncate("hello world!", 10))
	assert.Equal(t, "he", truncate("hello", 2))
	assert.Empty(t, truncate("hello", 0))
	assert.Equal(t, "héllo", truncate("héllo", 5))
}

func TestReporter_ClosedDropsEvents(t *testing.T) {
	r := NewReporter(nil)
	r.Report(progress.Event{Type: progress.EventJobQueued})
	r.Close()
	r.Report(progress.Event{Type: progress.EventJobQueued})
}

func TestRunner_Headless(t *testing.T) {
	ctx := context.Background()
	b := runbatch.NewBatch("headless")

	r := NewRunner(ctx, b, []Option{WithAutoQuit()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)

	pool := runbatch.NewPool(b, runbatch.NewRunner(runbatch.WithReporter(r.Reporter())), 2)

	st, err := r.Run(ctx, func(ctx context.Context) (runbatch.BatchStatus, error) {
		return pool.Run(ctx, []string{"true", "false"})
	})
	require.NoError(t, err)
	assert.Equal(t, runbatch.BatchStatusCompletedWithError, st)
	assert.True(t, r.model.Completed())
}
