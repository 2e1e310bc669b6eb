// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/taskpool/internal/progress"
	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
)

const (
	minStatusBarAvailableHeight = 10
	minCommandWidth             = 16
	commandDurationRounding     = 100 * time.Millisecond
	ellipsis                    = "..."
)

// tickMsg triggers a refresh from the batch.
type tickMsg time.Time

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchFinishedMsg is sent once the batch run has returned.
type BatchFinishedMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportSize()
		m.mutex.Unlock()

		return m, nil

	case spinner.TickMsg:
		m.mutex.Lock()
		defer m.mutex.Unlock()

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tickMsg:
		return m, m.refresh(tick())

	case BatchFinishedMsg:
		return m, m.refresh(nil)

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, nil

	case tea.QuitMsg:
		m.mutex.Lock()
		m.quitting = true
		m.mutex.Unlock()

		return m, tea.Quit
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// refresh marks the model completed once the batch is terminal. It returns
// next while the batch is still running.
func (m *Model) refresh(next tea.Cmd) tea.Cmd {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.batch.Status().Terminal() {
		return next
	}

	m.completed = true

	if m.autoQuit {
		m.quitting = true
		return tea.Quit
	}

	return nil
}

// processProgressEvent keeps the failure reason of jobs that could not run.
func (m *Model) processProgressEvent(event progress.Event) {
	if event.Type != progress.EventJobFailed || event.Err == nil {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.errors[event.JobID] = event.Err.Error()
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.quitting && !m.autoQuit {
		return "Shutting down...\n"
	}

	jobs := m.batch.Jobs()

	var content strings.Builder

	for _, j := range jobs {
		m.renderJob(&content, j)
	}

	if m.completed {
		content.WriteString("\n")
		content.WriteString(m.renderCompletion())
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render(m.title()))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")
		view.WriteString(m.renderStatusBar(countJobs(jobs)))
		view.WriteString("\n")

		helpText := "↑/↓ or j/k to scroll, PgUp/PgDn for pages, 'q' to quit"
		if m.completed {
			helpText = "↑/↓ or j/k to scroll, 'q' to quit and return to terminal"
		}

		view.WriteString(m.styles.Help.Render(helpText))
	}

	return view.String()
}

func (m *Model) title() string {
	name := m.batch.Name()
	if name == "" {
		name = m.batch.ID()
	}

	if m.workers > 0 {
		return fmt.Sprintf("taskpool: %s (%d workers)", name, m.workers)
	}

	return "taskpool: " + name
}

func (m *Model) renderCompletion() string {
	st := m.batch.Status()

	switch st {
	case runbatch.BatchStatusCompleted:
		return m.styles.Success.Render("✅ Batch completed in " + m.batch.Duration())
	case runbatch.BatchStatusCompletedWithError:
		return m.styles.Failed.Render("⚠️  Batch completed with errors in " + m.batch.Duration())
	default:
		return m.styles.Failed.Render("❌ Batch " + st.String() + " in " + m.batch.Duration())
	}
}

// renderJob renders a single job with its last output line or failure.
func (m *Model) renderJob(b *strings.Builder, j *runbatch.Job) {
	st := j.Status()

	var (
		icon string
		name string
	)

	label := fmt.Sprintf("#%d %s", j.ID(), j.CommandLine())

	switch st {
	case runbatch.JobStatusNone:
		icon = "⏳"
		name = m.styles.Pending.Render(truncate(label, m.commandWidth()))
	case runbatch.JobStatusRunning:
		icon = m.spinner.View()
		name = m.styles.Running.Render(truncate(label, m.commandWidth()))
	case runbatch.JobStatusCompleted:
		icon = "✅"
		name = m.styles.Success.Render(truncate(label, m.commandWidth()))
	case runbatch.JobStatusFailed:
		icon = "❌"
		name = m.styles.Failed.Render(truncate(label, m.commandWidth()))
	default:
		icon = "❓"
		name = m.styles.Pending.Render(truncate(label, m.commandWidth()))
	}

	left := fmt.Sprintf("%s %s", icon, name)

	if start, ok := j.StartDate(); ok {
		elapsed := time.Since(start)
		if end, ok := j.EndDate(); ok {
			elapsed = end.Sub(start)
		}

		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", elapsed.Round(commandDurationRounding)))
	}

	var right string

	rightWidth := m.viewport.Width - lipgloss.Width(left) - 3 //nolint:mnd

	switch st {
	case runbatch.JobStatusRunning:
		if line := j.LastLine(0); line != "" {
			right = m.styles.Output.Render(truncate(line, rightWidth))
		}
	case runbatch.JobStatusFailed:
		msg := fmt.Sprintf("exit code %d", j.ExitCode())
		if e, ok := m.errors[j.ID()]; ok {
			msg = e
		}

		right = m.styles.Error.Render(truncate(msg, rightWidth))
	}

	b.WriteString(left)

	if right != "" {
		b.WriteString("  ")
		b.WriteString(right)
	}

	b.WriteString("\n")
}

func (m *Model) renderStatusBar(c counts) string {
	parts := []string{
		fmt.Sprintf("Jobs: %d", c.total),
		m.styles.Pending.Render(fmt.Sprintf("Pending: %d", c.pending)),
		m.styles.Running.Render(fmt.Sprintf("Running: %d", c.running)),
		m.styles.Success.Render(fmt.Sprintf("Completed: %d", c.completed)),
		m.styles.Failed.Render(fmt.Sprintf("Failed: %d", c.failed)),
		"Status: " + m.batch.Status().String(),
	}

	return strings.Join(parts, " | ")
}

func (m *Model) commandWidth() int {
	w := m.viewport.Width / 2 //nolint:mnd
	if w < minCommandWidth {
		w = minCommandWidth
	}

	return w
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	r := []rune(s)
	if len(r) <= width {
		return s
	}

	if width <= len(ellipsis) {
		return string(r[:width])
	}

	return string(r[:width-len(ellipsis)]) + ellipsis
}
