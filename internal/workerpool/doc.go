// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workerpool runs submitted tasks on a fixed number of worker
// goroutines fed from an unbounded FIFO backlog.
//
// Callers customise the pool lifecycle through Hooks rather than by wrapping
// the pool: OnStart runs once when the pool activates, BeforeExecute and
// AfterExecute run on the worker around every task, and OnTerminate runs once
// after the last worker has returned.
package workerpool
