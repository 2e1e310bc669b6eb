// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

// Reporter receives events from the pool and its jobs.
// Report is called concurrently from the workers and must not block.
type Reporter interface {
	Report(event Event)
	Close()
}

// NullReporter discards every event.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}
