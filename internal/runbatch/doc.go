// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a batch of independent shell commands on a bounded
// worker pool and aggregates their outcome.
//
// A Batch owns the ordered list of Jobs and the success/failure counters.
// A Job is one command line, started at most once, whose process output is
// streamed to a per-job log file, captured, or discarded according to the
// Runner. Pool ties the two together: it drives the batch status through
// NONE, STARTED, RUNNING and a terminal state derived from the counters once
// every job has finished.
package runbatch
