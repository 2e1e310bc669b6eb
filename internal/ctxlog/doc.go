// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-carried slog logger for taskpool.
//
// The default is a pretty console handler writing to stderr, so that the
// batch record lines written to stdout stay machine readable. The level is
// read from the TASKPOOL_LOG_LEVEL environment variable.
package ctxlog
