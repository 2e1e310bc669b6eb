// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history implements the history command, which lists the batches
// recorded by taskpool run --history-db.
package history

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/matt-FFFFFF/taskpool/internal/history"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	historyDBFlag = "history-db"
	limitFlag     = "limit"
	runFlag       = "run"
	defaultLimit  = 20
	noValue       = "-"
	cliExitStr    = ""
)

// HistoryCmd is the command that lists recorded batch runs.
var HistoryCmd = NewHistoryCmd()

// NewHistoryCmd returns a new history command.
func NewHistoryCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List the batch runs recorded in a history database",
		Description: `List the batch runs recorded by 'taskpool run --history-db', newest first.
With --run, list the jobs of one recorded run instead.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      historyDBFlag,
				Usage:     "SQLite history database",
				Required:  true,
				TakesFile: true,
				Sources:   cli.EnvVars("TASKPOOL_HISTORY_DB"),
				OnlyOnce:  true,
			},
			&cli.IntFlag{
				Name:    limitFlag,
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to list",
				Value:   defaultLimit,
			},
			&cli.IntFlag{
				Name:  runFlag,
				Usage: "List the jobs of this run",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	w := cmd.Writer
	if w == nil {
		w = cmd.Root().Writer
	}

	store, err := history.Open(ctx, cmd.String(historyDBFlag))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to open history: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	defer store.Close() //nolint:errcheck

	if runID := cmd.Int(runFlag); runID > 0 {
		jobs, err := store.Jobs(ctx, int64(runID))
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to read jobs: %s", err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		if err := writeJobs(w, jobs); err != nil {
			return cli.Exit(err.Error(), 1)
		}

		return nil
	}

	runs, err := store.ListRuns(ctx, cmd.Int(limitFlag))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to list runs: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	if err := writeRuns(w, runs); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func writeRuns(w io.Writer, runs []history.Run) error {
	table := tablewriter.NewWriter(w)
	table.Header("Run", "Batch", "Status", "Workers", "Succeeded", "Failed", "Started", "Duration")

	for _, r := range runs {
		name := r.Name
		if name == "" {
			name = r.BatchID
		}

		started := noValue
		if !r.Start.IsZero() {
			started = humanize.Time(r.Start)
		}

		if err := table.Append([]string{
			strconv.FormatInt(r.RunID, 10),
			name,
			r.Status,
			strconv.Itoa(r.Workers),
			strconv.FormatUint(r.Success, 10),
			strconv.FormatUint(r.Failure, 10),
			started,
			r.Duration(),
		}); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return table.Render() //nolint:wrapcheck
}

func writeJobs(w io.Writer, jobs []history.Job) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Command", "Status", "Exit", "Log file")

	for _, j := range jobs {
		logFile := j.LogFile
		if logFile == "" {
			logFile = noValue
		}

		if err := table.Append([]string{
			strconv.FormatUint(j.JobID, 10),
			j.CommandLine,
			j.Status,
			strconv.Itoa(j.ExitCode),
			logFile,
		}); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return table.Render() //nolint:wrapcheck
}
