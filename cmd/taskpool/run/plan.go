// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"runtime"

	"github.com/matt-FFFFFF/taskpool/internal/joblist"
	"github.com/urfave/cli/v3"
)

// ErrLoadJobs is returned when the jobs file cannot be loaded.
var ErrLoadJobs = errors.New("failed to load jobs")

// plan is the resolved configuration of one batch run.
type plan struct {
	name          string
	workers       int
	parameters    string
	logDir        string
	captureOutput bool
	jobsFile      string
	jobs          []string
}

// flagValues holds the run command flags. isSet reports whether a flag was
// given on the command line or through its environment variable.
type flagValues struct {
	name          string
	workers       int
	jobsList      string
	jobsFile      string
	parameters    string
	logDir        string
	captureOutput bool
	isSet         func(name string) bool
}

func flagsFromCommand(cmd *cli.Command) flagValues {
	return flagValues{
		name:          cmd.String(batchNameFlag),
		workers:       cmd.Int(corePoolSizeFlag),
		jobsList:      cmd.String(jobsListFlag),
		jobsFile:      cmd.String(jobsFileFlag),
		parameters:    cmd.String(jobsParamFlag),
		logDir:        cmd.String(logDirFlag),
		captureOutput: cmd.Bool(captureOutputFlag),
		isSet:         cmd.IsSet,
	}
}

// buildPlan merges the flags with the jobs file. Jobs from the file come
// first, followed by the literal list. Settings read from a YAML batch file
// apply unless the matching flag was set explicitly.
func buildPlan(ctx context.Context, fv flagValues) (*plan, error) {
	p := &plan{
		name:          fv.name,
		workers:       fv.workers,
		parameters:    fv.parameters,
		logDir:        fv.logDir,
		captureOutput: fv.captureOutput,
		jobsFile:      fv.jobsFile,
	}

	var jobs []string

	if fv.jobsFile != "" {
		def, err := joblist.Load(ctx, fv.jobsFile)
		if err != nil {
			return nil, errors.Join(ErrLoadJobs, err)
		}

		jobs = append(jobs, def.Jobs...)

		p.name = pick(fv.isSet(batchNameFlag), fv.name, def.Name)
		p.workers = pick(fv.isSet(corePoolSizeFlag), fv.workers, def.Workers)
		p.parameters = pick(fv.isSet(jobsParamFlag), fv.parameters, def.Parameters)
		p.logDir = pick(fv.isSet(logDirFlag), fv.logDir, def.LogDir)
		p.captureOutput = pick(fv.isSet(captureOutputFlag), fv.captureOutput, def.CaptureOutput)
	}

	jobs = append(jobs, joblist.ParseList(fv.jobsList)...)
	if len(jobs) == 0 {
		return nil, joblist.ErrNoJobs
	}

	p.jobs = joblist.WithParameters(jobs, p.parameters)

	if p.workers < 1 {
		p.workers = runtime.NumCPU()
	}

	return p, nil
}

// pick returns the flag value when the flag was set or the file has no value.
func pick[T comparable](flagSet bool, flagValue, fileValue T) T {
	var zero T
	if flagSet || fileValue == zero {
		return flagValue
	}

	return fileValue
}
