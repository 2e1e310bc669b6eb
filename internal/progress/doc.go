// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries batch and job lifecycle events from the worker
// pool to whoever renders progress (the live view, mostly). Reporting never
// blocks a worker: events that cannot be delivered are dropped.
package progress
