// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestContext(t *testing.T) context.Context {
	t.Helper()

	return ctxlog.New(t.Context(), ctxlog.DefaultLogger)
}

// registeredJob returns a job bound to a fresh batch.
func registeredJob(t *testing.T, commandLine string, opts ...RunnerOption) (*Job, *Batch) {
	t.Helper()

	b := NewBatch("test")
	j := NewJob(commandLine)
	require.NoError(t, b.register(j, NewRunner(opts...)))

	return j, b
}

func TestJobNew(t *testing.T) {
	j := NewJob("echo hello")

	assert.Equal(t, "echo hello", j.CommandLine())
	assert.Equal(t, "echo hello", j.String())
	assert.Equal(t, uint64(0), j.ID())
	assert.Equal(t, JobStatusNone, j.Status())
	assert.Equal(t, ExitCodeNotTerminated, j.ExitCode())
	assert.Equal(t, "00:00:00", j.Duration())
	assert.Empty(t, j.LastLine(0))
	assert.Nil(t, j.Output())
	assert.Zero(t, j.OutputBytes())
	require.NoError(t, j.OutputErr())
}

func TestJobStartSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	var records bytes.Buffer

	j, b := registeredJob(t, `sh -c "echo one; echo two"`,
		WithCaptureOutput(true),
		WithRecords(NewRecordWriter(&records)),
	)

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusCompleted, j.Status())
	assert.Equal(t, 0, j.ExitCode())
	assert.Equal(t, uint64(1), b.SuccessCount())
	assert.Equal(t, uint64(0), b.FailureCount())
	assert.Equal(t, "one\ntwo\n", string(j.Output()))
	assert.Equal(t, "two", j.LastLine(0))
	assert.Equal(t, int64(8), j.OutputBytes())

	start, ok := j.StartDate()
	require.True(t, ok)
	end, ok := j.EndDate()
	require.True(t, ok)
	assert.False(t, end.Before(start))

	assert.True(t, strings.HasPrefix(records.String(), "batch:job|id:"+b.ID()+"|job_id:1|"))
	assert.Contains(t, records.String(), "|job_status:COMPLETED|job_exit_code:0\n")
}

func TestJobStartNonZeroExit(t *testing.T) {
	j, b := registeredJob(t, `sh -c "exit 3"`)

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusFailed, j.Status())
	assert.Equal(t, 3, j.ExitCode())
	assert.Equal(t, uint64(0), b.SuccessCount())
	assert.Equal(t, uint64(1), b.FailureCount())
}

func TestJobStderrMergedIntoOutput(t *testing.T) {
	j, _ := registeredJob(t, `sh -c "echo out; echo err 1>&2"`, WithCaptureOutput(true))

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusCompleted, j.Status())
	assert.Contains(t, string(j.Output()), "out\n")
	assert.Contains(t, string(j.Output()), "err\n")
}

func TestJobOutputDiscardedWithoutCapture(t *testing.T) {
	j, _ := registeredJob(t, "echo hello")

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusCompleted, j.Status())
	assert.Nil(t, j.Output())
	assert.Equal(t, "hello", j.LastLine(0))
}

func TestJobStartTwiceRunsOnce(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	j, b := registeredJob(t, `sh -c "echo x >> `+marker+`"`)
	ctx := newTestContext(t)

	j.Start(ctx)
	j.Start(ctx)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
	assert.Equal(t, uint64(1), b.SuccessCount()+b.FailureCount(), "the job is counted once")
}

func TestJobStartUnregisteredIsNoop(t *testing.T) {
	j := NewJob("true")

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusNone, j.Status())
	assert.Equal(t, ExitCodeNotTerminated, j.ExitCode())
}

func TestJobSpawnFailure(t *testing.T) {
	var records bytes.Buffer

	j, b := registeredJob(t, "this-command-does-not-exist-anywhere --flag",
		WithRecords(NewRecordWriter(&records)),
	)

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusFailed, j.Status())
	assert.Equal(t, ExitCodeUnknown, j.ExitCode())
	assert.Equal(t, uint64(1), b.FailureCount())
	assert.Contains(t, records.String(), "|job_status:FAILED|job_exit_code:-1\n")

	end, ok := j.EndDate()
	assert.True(t, ok)
	assert.False(t, end.IsZero())
}

func TestJobEmptyCommand(t *testing.T) {
	j, b := registeredJob(t, "   ")

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusFailed, j.Status())
	assert.Equal(t, ExitCodeUnknown, j.ExitCode())
	assert.Equal(t, uint64(1), b.FailureCount())
}

func TestJobLogFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/logs", 0o755))

	j, b := registeredJob(t, `sh -c "echo first; printf last"`,
		WithLogDir("/logs"),
		WithFs(fs),
		WithCaptureOutput(true),
	)

	j.Start(newTestContext(t))

	require.Equal(t, JobStatusCompleted, j.Status())
	require.NoError(t, j.OutputErr())

	path := j.LogFile()
	require.NotEmpty(t, path)
	assert.Equal(t, "/logs", filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "batchid-"+b.ID()+"_jobid-1_"), path)
	assert.True(t, strings.HasSuffix(path, "_sh--c--echo-first--printf-last-.log"), path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "first\nlast\n", string(data))
	assert.Nil(t, j.Output(), "output goes to the log file, not memory")
}

func TestJobLogFileCreateFailureKeepsStatus(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	j, b := registeredJob(t, "echo hello", WithLogDir("/logs"), WithFs(fs))

	j.Start(newTestContext(t))

	assert.Equal(t, JobStatusCompleted, j.Status())
	assert.Equal(t, uint64(1), b.SuccessCount())
	require.ErrorIs(t, j.OutputErr(), ErrCreateLogFile)
	assert.Empty(t, j.LogFile())
}

func TestJobDestroy(t *testing.T) {
	defer goleak.VerifyNone(t)

	j, b := registeredJob(t, "sleep 30")
	ctx := newTestContext(t)

	done := make(chan struct{})

	go func() {
		defer close(done)
		j.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return j.Status() == JobStatusRunning
	}, 5*time.Second, 10*time.Millisecond)

	j.Destroy(ctx)
	j.Destroy(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish after Destroy")
	}

	assert.Equal(t, JobStatusFailed, j.Status())
	assert.Equal(t, ExitCodeUnknown, j.ExitCode())
	assert.Equal(t, uint64(1), b.FailureCount())

	j.Destroy(ctx)
}

func TestJobDestroyBeforeStart(t *testing.T) {
	j, _ := registeredJob(t, "sleep 30")
	ctx := newTestContext(t)

	j.Destroy(ctx)

	finished := make(chan struct{})

	go func() {
		defer close(finished)
		j.Start(ctx)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("destroyed job was not killed on spawn")
	}

	assert.Equal(t, JobStatusFailed, j.Status())
}

func TestCopyLines(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, copyLines(&out, strings.NewReader("a\r\nb\nc")))
	assert.Equal(t, "a\r\nb\nc\n", out.String())
}
