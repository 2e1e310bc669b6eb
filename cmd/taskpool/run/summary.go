// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
	"github.com/olekukonko/tablewriter"
)

const noValue = "-"

// writeSummary prints one line for the batch followed by a table of its jobs.
func writeSummary(w io.Writer, b *runbatch.Batch) error {
	name := b.Name()
	if name == "" {
		name = b.ID()
	}

	if _, err := fmt.Fprintf(w, "\nBatch %s: %s in %s, %d succeeded, %d failed\n",
		name, b.Status(), b.Duration(), b.SuccessCount(), b.FailureCount()); err != nil {
		return err //nolint:wrapcheck
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Command", "Status", "Exit", "Duration", "Output", "Log file")

	for _, j := range b.Jobs() {
		exit := noValue
		if j.Status().Terminal() {
			exit = strconv.Itoa(j.ExitCode())
		}

		logFile := j.LogFile()
		if logFile == "" {
			logFile = noValue
		}

		if err := table.Append([]string{
			strconv.FormatUint(j.ID(), 10),
			j.CommandLine(),
			j.Status().String(),
			exit,
			j.Duration(),
			humanize.Bytes(uint64(j.OutputBytes())), //nolint:gosec
			logFile,
		}); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return table.Render() //nolint:wrapcheck
}
