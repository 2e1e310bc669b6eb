// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the taskpool command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/taskpool"
	"github.com/matt-FFFFFF/taskpool/cmd/taskpool/history"
	"github.com/matt-FFFFFF/taskpool/cmd/taskpool/run"
	"github.com/matt-FFFFFF/taskpool/cmd/taskpool/schema"
	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		history.HistoryCmd,
		schema.SchemaCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "taskpool",
	Description: `taskpool runs a batch of shell command lines on a bounded pool of workers.
Each job runs as a child process; its combined output can be written to a per job log file.
Progress is reported as pipe separated record lines on stdout, and the batch ends
COMPLETED, COMPLETED_WITH_ERROR or FAILED depending on the exit codes of its jobs.`,
	Usage:     `taskpool run -n nightly -c 4 -l "make test; make lint"`,
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", taskpool.Version, taskpool.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
