// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"github.com/matt-FFFFFF/taskpool/internal/progress"
	"github.com/spf13/afero"
)

// Runner holds the settings shared by every job of a batch.
type Runner struct {
	logDir        string
	captureOutput bool
	fs            afero.Fs
	records       *RecordWriter
	reporter      progress.Reporter
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogDir streams each job's output to its own file below dir.
func WithLogDir(dir string) RunnerOption {
	return func(r *Runner) { r.logDir = dir }
}

// WithCaptureOutput keeps the output of each job in memory when no log
// directory is set.
func WithCaptureOutput(capture bool) RunnerOption {
	return func(r *Runner) { r.captureOutput = capture }
}

// WithFs sets the filesystem job log files are created on.
func WithFs(fs afero.Fs) RunnerOption {
	return func(r *Runner) { r.fs = fs }
}

// WithRecords sets the writer for batch and job record lines.
func WithRecords(w *RecordWriter) RunnerOption {
	return func(r *Runner) { r.records = w }
}

// WithReporter sets the receiver of progress events.
func WithReporter(rep progress.Reporter) RunnerOption {
	return func(r *Runner) { r.reporter = rep }
}

// NewRunner returns a Runner that discards job output and record lines
// unless configured otherwise.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		fs:       afero.NewOsFs(),
		records:  NewRecordWriter(nil),
		reporter: progress.NullReporter{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// LogDir returns the job log directory, or an empty string.
func (r *Runner) LogDir() string {
	return r.logDir
}

// CaptureOutput reports whether job output is kept in memory.
func (r *Runner) CaptureOutput() bool {
	return r.captureOutput
}

// Records returns the record line writer.
func (r *Runner) Records() *RecordWriter {
	return r.records
}

// Reporter returns the progress reporter.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}
