// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a single lifecycle notification.
type Event struct {
	Type        EventType
	BatchID     string
	JobID       uint64 // zero for batch events
	CommandLine string
	Message     string
	Timestamp   time.Time
	ExitCode    int
	Err         error
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventBatchStarted is sent when the pool activates.
	EventBatchStarted EventType = iota
	// EventJobQueued is sent when a job is submitted and has its id.
	EventJobQueued
	// EventJobStarted is sent when a job's process has been spawned.
	EventJobStarted
	// EventJobCompleted is sent when a job exits with code zero.
	EventJobCompleted
	// EventJobFailed is sent when a job fails to spawn or exits non-zero.
	EventJobFailed
	// EventBatchFinished is sent once the pool has drained and the batch status is final.
	EventBatchFinished
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventBatchStarted:
		return "batch_started"
	case EventJobQueued:
		return "job_queued"
	case EventJobStarted:
		return "job_started"
	case EventJobCompleted:
		return "job_completed"
	case EventJobFailed:
		return "job_failed"
	case EventBatchFinished:
		return "batch_finished"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends the lifecycle of its subject.
func (et EventType) Terminal() bool {
	return et == EventJobCompleted || et == EventJobFailed || et == EventBatchFinished
}
