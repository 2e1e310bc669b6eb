// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/matt-FFFFFF/taskpool/internal/progress"
	"github.com/matt-FFFFFF/taskpool/internal/teereader"
)

var (
	// ErrEmptyCommand is returned when a command line has no tokens.
	ErrEmptyCommand = errors.New("empty command line")
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrWaitProcess is returned when the exit of a started process could not be observed.
	ErrWaitProcess = errors.New("could not wait for process")
	// ErrCreateLogFile is returned when a job log file could not be created.
	ErrCreateLogFile = errors.New("could not create job log file")
	// ErrWriteLogFile is returned when a job log file could not be written or closed.
	ErrWriteLogFile = errors.New("could not write job log file")
	// ErrReadOutput is returned when the process output could not be read.
	ErrReadOutput = errors.New("could not read process output")
)

// run spawns the process, streams its output and waits for it to exit.
func (j *Job) run(ctx context.Context) {
	logger := ctxlog.Logger(ctx)

	args := Tokenize(j.commandLine)
	logger.Debug("starting process", "command", j.commandLine, "args", args)

	ps, rOut, err := spawn(args)
	if err != nil {
		logger.Error("could not start job", "command", j.commandLine, "error", err)
		j.finish(ctx, ExitCodeUnknown, err)

		return
	}

	logger.Debug("process started", "pid", ps.Pid)

	var opts []teereader.Option
	if j.runner.captureOutput && j.runner.logDir == "" {
		opts = append(opts, teereader.WithFullBuffer())
	}

	out := teereader.NewLastLineTeeReader(rOut, opts...)

	j.mu.Lock()
	j.process = ps
	j.output = out
	j.status = JobStatusRunning
	destroyed := j.destroyed
	j.mu.Unlock()

	if destroyed {
		killPs(ctx, ps)
	}

	j.runner.reporter.Report(progress.Event{
		Type:        progress.EventJobStarted,
		BatchID:     j.batch.ID(),
		JobID:       j.ID(),
		CommandLine: j.commandLine,
		Timestamp:   time.Now(),
	})

	j.consume(ctx, out)
	_ = rOut.Close()

	logger.Debug("waiting for process to finish")

	state, err := ps.Wait()
	if err != nil {
		err = errors.Join(ErrWaitProcess, err)
		logger.Error("could not wait for job", "command", j.commandLine, "error", err)
		j.finish(ctx, ExitCodeUnknown, err)

		return
	}

	j.finish(ctx, state.ExitCode(), nil)
}

// spawn starts the process with standard error merged into standard
// output. It returns the read end of the output pipe.
func spawn(args []string) (*os.Process, *os.File, error) {
	if len(args) == 0 {
		return nil, nil, ErrEmptyCommand
	}

	path, err := exec.LookPath(args[0])
	if err != nil {
		return nil, nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, nil, errors.Join(ErrCouldNotStartProcess, err)
	}
	defer devNull.Close() //nolint:errcheck

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	ps, err := os.StartProcess(path, args, &os.ProcAttr{
		Files: []*os.File{devNull, wOut, wOut},
	})

	// The child holds its own copy of the write end.
	_ = wOut.Close()

	if err != nil {
		_ = rOut.Close()
		return nil, nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	return ps, rOut, nil
}

// consume reads the process output to EOF. It goes line by line to the job
// log file when a log directory is set, otherwise it is discarded or, when
// the tee reader buffers, kept in memory. Failures are recorded on the job
// and never stop the output from being drained.
func (j *Job) consume(ctx context.Context, out io.Reader) {
	logger := ctxlog.Logger(ctx)

	if j.runner.logDir == "" {
		if _, err := io.Copy(io.Discard, out); err != nil {
			err = errors.Join(ErrReadOutput, err)
			logger.Warn("could not read job output", "error", err)
			j.addOutputErr(err)
		}

		return
	}

	path := LogFilename(j.runner.logDir, j.batch.ID(), j.ID(), time.Now(), j.commandLine)

	f, err := j.runner.fs.Create(path)
	if err != nil {
		err = errors.Join(ErrCreateLogFile, err)
		logger.Warn("could not create job log file", "path", path, "error", err)
		j.addOutputErr(err)

		_, _ = io.Copy(io.Discard, out)

		return
	}

	j.mu.Lock()
	j.logFile = path
	j.mu.Unlock()

	logger.Debug("writing job output", "path", path)

	if err := copyLines(f, out); err != nil {
		logger.Warn("could not write job output", "path", path, "error", err)
		j.addOutputErr(err)
	}

	if err := f.Close(); err != nil {
		err = errors.Join(ErrWriteLogFile, err)
		logger.Warn("could not close job log file", "path", path, "error", err)
		j.addOutputErr(err)
	}
}

// copyLines copies r to w one line at a time, terminating the last line
// with a newline. After a write error the rest of r is still read.
func copyLines(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	var writeErr error

	for {
		line, readErr := br.ReadString('\n')

		if len(line) > 0 && writeErr == nil {
			if line[len(line)-1] != '\n' {
				line += "\n"
			}

			if _, err := bw.WriteString(line); err != nil {
				writeErr = errors.Join(ErrWriteLogFile, err)
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			_, _ = io.Copy(io.Discard, br)
			return errors.Join(writeErr, errors.Join(ErrReadOutput, readErr))
		}
	}

	if writeErr == nil {
		if err := bw.Flush(); err != nil {
			writeErr = errors.Join(ErrWriteLogFile, err)
		}
	}

	return writeErr
}
