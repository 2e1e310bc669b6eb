// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
)

const (
	refreshInterval = 100 * time.Millisecond
	defaultWidth    = 100
	defaultHeight   = 24
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	batch     *runbatch.Batch
	workers   int
	autoQuit  bool
	width     int
	height    int
	quitting  bool
	completed bool
	errors    map[uint64]string // start errors by job id
	mutex     sync.RWMutex

	viewport viewport.Model
	spinner  spinner.Model
	styles   *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// Option configures a Model.
type Option func(*Model)

// WithAutoQuit makes the TUI exit as soon as the batch has finished instead
// of waiting for the user.
func WithAutoQuit() Option {
	return func(m *Model) { m.autoQuit = true }
}

// WithWorkers sets the worker count shown in the title.
func WithWorkers(n int) Option {
	return func(m *Model) { m.workers = n }
}

// NewModel creates a new TUI model watching b.
func NewModel(ctx context.Context, b *runbatch.Batch, opts ...Option) *Model {
	m := &Model{
		ctx:      ctx,
		batch:    b,
		width:    defaultWidth,
		height:   defaultHeight,
		errors:   make(map[uint64]string),
		viewport: viewport.New(defaultWidth, defaultHeight),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:   NewStyles(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.updateViewportSize()

	return m
}

// Completed reports whether the batch reached its terminal status.
func (m *Model) Completed() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.completed
}

// counts tallies the jobs of the batch by status.
type counts struct {
	total, pending, running, completed, failed int
}

func countJobs(jobs []*runbatch.Job) counts {
	c := counts{total: len(jobs)}

	for _, j := range jobs {
		switch j.Status() {
		case runbatch.JobStatusNone:
			c.pending++
		case runbatch.JobStatusRunning:
			c.running++
		case runbatch.JobStatusCompleted:
			c.completed++
		case runbatch.JobStatusFailed:
			c.failed++
		}
	}

	return c
}

// getViewportHeight returns the available height for content display.
func (m *Model) getViewportHeight() int {
	// Reserve space for title, border, status bar and help text
	reservedLines := 8
	if m.height <= reservedLines {
		return 1
	}

	return m.height - reservedLines
}

// updateViewportSize must be called with the mutex held or before the
// program starts.
func (m *Model) updateViewportSize() {
	w := m.width - 2 //nolint:mnd // border
	if w < 1 {
		w = 1
	}

	m.viewport.Width = w
	m.viewport.Height = m.getViewportHeight()
}
