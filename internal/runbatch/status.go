// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

// BatchStatus is the aggregate state of a batch.
type BatchStatus int32

const (
	// BatchStatusNone is the state before the pool activates.
	BatchStatusNone BatchStatus = iota
	// BatchStatusStarted is set when the pool begins accepting work.
	BatchStatusStarted
	// BatchStatusRunning is set when the first job is about to execute.
	BatchStatusRunning
	// BatchStatusFailed means no job succeeded.
	BatchStatusFailed
	// BatchStatusCompletedWithError means some, but not all, jobs failed.
	BatchStatusCompletedWithError
	// BatchStatusCompleted means every job that ran succeeded.
	BatchStatusCompleted
)

var batchStatusNames = [...]string{
	BatchStatusNone:               "NONE",
	BatchStatusStarted:            "STARTED",
	BatchStatusRunning:            "RUNNING",
	BatchStatusFailed:             "FAILED",
	BatchStatusCompletedWithError: "COMPLETED_WITH_ERROR",
	BatchStatusCompleted:          "COMPLETED",
}

// String implements fmt.Stringer.
func (s BatchStatus) String() string {
	if s < 0 || int(s) >= len(batchStatusNames) {
		return "UNKNOWN"
	}

	return batchStatusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s BatchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s is one of the final batch states.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusFailed || s == BatchStatusCompletedWithError || s == BatchStatusCompleted
}

// StatusFromCounts derives the terminal batch status from the job counters.
// A batch in which no job succeeded, including one that ran no job at all,
// has failed.
func StatusFromCounts(success, failure uint64) BatchStatus {
	switch {
	case success == 0:
		return BatchStatusFailed
	case failure == 0:
		return BatchStatusCompleted
	default:
		return BatchStatusCompletedWithError
	}
}

// JobStatus is the state of a single job. It only moves forward:
// NONE, RUNNING, then COMPLETED or FAILED.
type JobStatus int32

const (
	// JobStatusNone is the state of a job that has not started.
	JobStatusNone JobStatus = iota
	// JobStatusRunning is the state of a job whose process is alive.
	JobStatusRunning
	// JobStatusFailed is the state of a job that could not start or exited non-zero.
	JobStatusFailed
	// JobStatusCompleted is the state of a job that exited with code zero.
	JobStatusCompleted
)

var jobStatusNames = [...]string{
	JobStatusNone:      "NONE",
	JobStatusRunning:   "RUNNING",
	JobStatusFailed:    "FAILED",
	JobStatusCompleted: "COMPLETED",
}

// String implements fmt.Stringer.
func (s JobStatus) String() string {
	if s < 0 || int(s) >= len(jobStatusNames) {
		return "UNKNOWN"
	}

	return jobStatusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s is COMPLETED or FAILED.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}
