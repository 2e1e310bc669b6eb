// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time Terminal User Interface (TUI) for watching
// a batch run. It lists every job with a status indicator, its run time and
// the last line of output of running jobs, above a status bar with the batch
// counters.
//
// The view polls the batch on a short tick, so it never depends on every
// progress event being delivered. Progress events are used for details the
// batch does not keep, such as the reason a job failed to start.
package tui
