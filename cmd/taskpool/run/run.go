// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run command, which executes one batch of jobs.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/matt-FFFFFF/taskpool/internal/history"
	"github.com/matt-FFFFFF/taskpool/internal/metrics"
	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
	"github.com/matt-FFFFFF/taskpool/internal/signalbroker"
	"github.com/matt-FFFFFF/taskpool/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	batchNameFlag     = "batchname"
	corePoolSizeFlag  = "corepoolsize"
	jobsListFlag      = "jobslist"
	jobsFileFlag      = "jobsfile"
	jobsParamFlag     = "jobsparam"
	logDirFlag        = "logdir"
	captureOutputFlag = "capture-output"
	tuiFlag           = "tui"
	tuiAutoQuitFlag   = "tui-auto-quit"
	summaryFlag       = "summary"
	metricsFileFlag   = "metrics-file"
	historyDBFlag     = "history-db"
	logFormatFlag     = "log-format"
	envPrefix         = "TASKPOOL_"
	logDirPerm        = 0o755
	cliExitStr        = ""
)

// ErrCreateLogDir is returned when the job log directory cannot be created.
var ErrCreateLogDir = errors.New("failed to create log directory")

// FsFactory returns the filesystem used for job log files.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

var (
	newSignalChannel = func(ctx context.Context) chan os.Signal {
		return signalbroker.New(ctx)
	}

	// tuiProgramOptions are passed to bubbletea. Empty means the defaults.
	tuiProgramOptions []tea.ProgramOption
)

// RunCmd is the command that runs a batch of jobs.
var RunCmd = NewRunCmd()

// NewRunCmd returns a new run command.
func NewRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a batch of shell command lines on a pool of workers",
		Description: `Run a batch of command lines, each as a child process, on a fixed number of workers.
Jobs come from a ';' separated list (--jobslist), from a jobs file (--jobsfile), or both.
A jobs file holds one command line per line; a .yaml or .yml file is a batch file
that may also set the batch name, workers, parameters, log directory and output capture.
Flags given explicitly override the batch file.

Jobs files may be remote, using Hashicorp's go-getter syntax.
See https://github.com/hashicorp/go-getter.

Record lines describing the batch and every job are written to stdout.
The exit status is 1 unless the batch ends COMPLETED.
The first interrupt stops queued jobs from starting; a second one kills running jobs.
`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     batchNameFlag,
				Aliases:  []string{"n"},
				Usage:    "Name of the batch. The batch id is derived from it.",
				Sources:  cli.EnvVars(envPrefix + "BATCHNAME"),
				OnlyOnce: true,
			},
			&cli.IntFlag{
				Name:        corePoolSizeFlag,
				Aliases:     []string{"c"},
				Usage:       "Number of jobs run concurrently",
				Value:       runtime.NumCPU(),
				DefaultText: "number of CPUs",
				Sources:     cli.EnvVars(envPrefix + "COREPOOLSIZE"),
			},
			&cli.StringFlag{
				Name:     jobsListFlag,
				Aliases:  []string{"l"},
				Usage:    "';' separated list of command lines",
				Sources:  cli.EnvVars(envPrefix + "JOBSLIST"),
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      jobsFileFlag,
				Aliases:   []string{"f"},
				Usage:     "Jobs file, local path or go-getter URL. A .yaml or .yml file is read as a batch file.",
				TakesFile: true,
				Sources:   cli.EnvVars(envPrefix + "JOBSFILE"),
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:     jobsParamFlag,
				Aliases:  []string{"p"},
				Usage:    "Parameters appended to every command line",
				Sources:  cli.EnvVars(envPrefix + "JOBSPARAM"),
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      logDirFlag,
				Aliases:   []string{"d"},
				Usage:     "Directory for per job log files. Without it, job output is discarded.",
				TakesFile: true,
				Sources:   cli.EnvVars(envPrefix + "LOGDIR"),
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:        captureOutputFlag,
				Usage:       "Keep job output in memory when no log directory is set",
				DefaultText: "false",
				Sources:     cli.EnvVars(envPrefix + "CAPTURE_OUTPUT"),
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        tuiFlag,
				Aliases:     []string{"t", "interactive"},
				Usage:       "Show live progress in a terminal user interface",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        tuiAutoQuitFlag,
				Usage:       "Close the terminal user interface as soon as the batch ends",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        summaryFlag,
				Aliases:     []string{"s"},
				Usage:       "Print a table of the jobs once the batch ends",
				DefaultText: "false",
				Sources:     cli.EnvVars(envPrefix + "SUMMARY"),
				OnlyOnce:    true,
			},
			&cli.StringFlag{
				Name:      metricsFileFlag,
				Usage:     "Write Prometheus metrics for the batch to this textfile",
				TakesFile: true,
				Sources:   cli.EnvVars(envPrefix + "METRICS_FILE"),
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      historyDBFlag,
				Usage:     "Record the batch in this SQLite database",
				TakesFile: true,
				Sources:   cli.EnvVars(envPrefix + "HISTORY_DB"),
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:     logFormatFlag,
				Usage:    "Log format, pretty or json",
				Value:    ctxlog.FormatPretty,
				Sources:  cli.EnvVars(envPrefix + "LOG_FORMAT"),
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	stdout, stderr := writers(cmd)

	logger, err := ctxlog.NewLogger(cmd.String(logFormatFlag), stderr)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx = ctxlog.New(ctx, logger.With("command", cmd.Name))
	logger = ctxlog.Logger(ctx)
	logger.Debug("Running run command")

	p, err := buildPlan(ctx, flagsFromCommand(cmd))
	if err != nil {
		logger.Error(fmt.Sprintf("Cannot build the batch: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	fs := FsFactory()

	if p.logDir != "" {
		if err := fs.MkdirAll(p.logDir, logDirPerm); err != nil {
			logger.Error(errors.Join(ErrCreateLogDir, err).Error(), "log_dir", p.logDir)
			return cli.Exit(cliExitStr, 1)
		}
	}

	batch := runbatch.NewBatch(p.name,
		runbatch.WithParameters(p.parameters),
		runbatch.WithJobsFile(p.jobsFile),
		runbatch.WithBatchLogDir(p.logDir),
		runbatch.WithPlannedJobs(len(p.jobs)),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	newPool := func(records io.Writer, opts ...runbatch.RunnerOption) *runbatch.Pool {
		opts = append(opts,
			runbatch.WithLogDir(p.logDir),
			runbatch.WithCaptureOutput(p.captureOutput),
			runbatch.WithFs(fs),
			runbatch.WithRecords(runbatch.NewRecordWriter(records)),
		)

		return runbatch.NewPool(batch, runbatch.NewRunner(opts...), p.workers)
	}

	var (
		status runbatch.BatchStatus
		runErr error
	)

	switch cmd.Bool(tuiFlag) {
	case true:
		logger.Info("Starting interactive TUI mode...")

		// The TUI owns the terminal: record lines and logs are held back.
		held := new(bytes.Buffer)
		logBuf := new(bytes.Buffer)
		tuiCtx := ctxlog.NewForTUI(runCtx, logBuf)

		tuiOpts := []tui.Option{tui.WithWorkers(p.workers)}
		if cmd.Bool(tuiAutoQuitFlag) {
			tuiOpts = append(tuiOpts, tui.WithAutoQuit())
		}

		runner := tui.NewRunner(tuiCtx, batch, tuiOpts, tuiProgramOptions...)
		pool := newPool(held, runbatch.WithReporter(runner.Reporter()))
		stop := watchSignals(tuiCtx, pool, cancel)

		status, runErr = runner.Run(tuiCtx, func(ctx context.Context) (runbatch.BatchStatus, error) {
			return pool.Run(ctx, p.jobs)
		})

		stop()

		held.WriteTo(stdout)   //nolint:errcheck
		logBuf.WriteTo(stderr) //nolint:errcheck
	default:
		pool := newPool(stdout)
		stop := watchSignals(runCtx, pool, cancel)

		status, runErr = pool.Run(runCtx, p.jobs)

		stop()
	}

	if runErr != nil {
		logger.Error(fmt.Sprintf("Batch execution error: %s", runErr.Error()), "error", runErr)
	}

	// The run context may be cancelled by now; reporting still has to happen.
	reportCtx := context.WithoutCancel(ctx)

	if cmd.Bool(summaryFlag) {
		if err := writeSummary(stdout, batch); err != nil {
			logger.Warn(fmt.Sprintf("Failed to write summary: %s", err.Error()))
		}
	}

	if path := cmd.String(metricsFileFlag); path != "" {
		writeMetrics(reportCtx, path, batch, p.workers)
	}

	if path := cmd.String(historyDBFlag); path != "" {
		recordHistory(reportCtx, path, batch, p.workers)
	}

	if runErr != nil || status != runbatch.BatchStatusCompleted {
		logger.Error("Batch did not complete successfully", "status", status.String())
		return cli.Exit(cliExitStr, 1)
	}

	logger.Info("Batch completed successfully", "batch", batch.Name(), "duration", batch.Duration())

	return nil
}

// watchSignals aborts pool on the first termination signal and cancels the
// run on the second. The returned func unsubscribes.
func watchSignals(ctx context.Context, pool *runbatch.Pool, cancel context.CancelFunc) func() {
	sigCh := newSignalChannel(ctx)

	go signalbroker.Watch(ctx, sigCh, func(os.Signal) {
		pool.Abort(ctx)
	}, cancel)

	return func() {
		signalbroker.Stop(sigCh)
	}
}

func writeMetrics(ctx context.Context, path string, b *runbatch.Batch, workers int) {
	c := metrics.New()
	c.Observe(b, workers)

	if err := c.WriteTextfile(path); err != nil {
		ctxlog.Warn(ctx, fmt.Sprintf("Failed to write metrics: %s", err.Error()), "path", path)
		return
	}

	ctxlog.Debug(ctx, "metrics written", "path", path)
}

func recordHistory(ctx context.Context, path string, b *runbatch.Batch, workers int) {
	store, err := history.Open(ctx, path)
	if err != nil {
		ctxlog.Warn(ctx, fmt.Sprintf("Failed to open history: %s", err.Error()), "path", path)
		return
	}

	defer store.Close() //nolint:errcheck

	runID, err := store.RecordBatch(ctx, b, workers)
	if err != nil {
		ctxlog.Warn(ctx, fmt.Sprintf("Failed to record batch history: %s", err.Error()), "path", path)
		return
	}

	ctxlog.Debug(ctx, "batch recorded", "path", path, "run_id", runID)
}

func writers(cmd *cli.Command) (io.Writer, io.Writer) {
	var stdout, stderr io.Writer = cmd.Writer, cmd.ErrWriter

	if root := cmd.Root(); root != nil {
		if stdout == nil {
			stdout = root.Writer
		}

		if stderr == nil {
			stderr = root.ErrWriter
		}
	}

	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return stdout, stderr
}
