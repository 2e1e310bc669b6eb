// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

const nullValue = "null"

// RecordWriter emits the pipe separated batch and job record lines.
// Each line is built and written inside one critical section, so lines
// from concurrent jobs never interleave.
type RecordWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewRecordWriter returns a RecordWriter on w. A nil w discards records.
func NewRecordWriter(w io.Writer) *RecordWriter {
	if w == nil {
		w = io.Discard
	}

	return &RecordWriter{w: w}
}

type field struct {
	key   string
	value string
}

// BatchStart writes the batch:start line.
func (rw *RecordWriter) BatchStart(b *Batch, workers int) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	start, _ := b.StartDate()

	return rw.write(
		field{"batch", "start"},
		field{"id", orNull(b.ID())},
		field{"name", orNull(b.Name())},
		field{"parameters", orNull(b.Parameters())},
		field{"workers", strconv.Itoa(workers)},
		field{"number_of_jobs", strconv.Itoa(b.PlannedJobs())},
		field{"jobs_file", orNull(b.JobsFile())},
		field{"log_dir", orNull(b.LogDir())},
		field{"start_date", epochMillis(start)},
		field{"status", b.Status().String()},
	)
}

// BatchEnd writes the batch:end line.
func (rw *RecordWriter) BatchEnd(b *Batch) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	start, _ := b.StartDate()
	end, _ := b.EndDate()

	return rw.write(
		field{"batch", "end"},
		field{"id", orNull(b.ID())},
		field{"name", orNull(b.Name())},
		field{"start_date", epochMillis(start)},
		field{"end_date", epochMillis(end)},
		field{"duration", b.Duration()},
		field{"status", b.Status().String()},
	)
}

// Job writes the batch:job line for a finished job.
func (rw *RecordWriter) Job(b *Batch, j *Job) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	start, _ := j.StartDate()
	end, _ := j.EndDate()

	return rw.write(
		field{"batch", "job"},
		field{"id", orNull(b.ID())},
		field{"job_id", strconv.FormatUint(j.ID(), 10)},
		field{"job_command_line", j.CommandLine()},
		field{"job_start_date", epochMillis(start)},
		field{"job_end_date", epochMillis(end)},
		field{"job_duration", j.Duration()},
		field{"job_status", j.Status().String()},
		field{"job_exit_code", strconv.Itoa(j.ExitCode())},
	)
}

func (rw *RecordWriter) write(fields ...field) error {
	var sb strings.Builder

	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('|')
		}

		sb.WriteString(f.key)
		sb.WriteByte(':')
		sb.WriteString(f.value)
	}

	sb.WriteByte('\n')

	_, err := io.WriteString(rw.w, sb.String())

	return err
}

func orNull(s string) string {
	if s == "" {
		return nullValue
	}

	return s
}

func epochMillis(t time.Time) string {
	if t.IsZero() {
		return nullValue
	}

	return strconv.FormatInt(t.UnixMilli(), 10)
}
