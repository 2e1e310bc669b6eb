// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader provides a reader that remembers the last complete line
// passing through it, and optionally the whole stream. Job output is read
// through it so the live view can show what a job printed last without the
// batch holding every job's output in memory.
package teereader
