// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics exposes the outcome of a batch as Prometheus metrics,
// written in the node exporter textfile format.
package metrics

import (
	"errors"
	"time"

	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskpool"

// ErrWriteTextfile is returned when the metrics file cannot be written.
var ErrWriteTextfile = errors.New("failed to write metrics textfile")

var batchStatuses = []runbatch.BatchStatus{
	runbatch.BatchStatusNone,
	runbatch.BatchStatusStarted,
	runbatch.BatchStatusRunning,
	runbatch.BatchStatusFailed,
	runbatch.BatchStatusCompletedWithError,
	runbatch.BatchStatusCompleted,
}

// Collector holds the batch metrics on a private registry.
type Collector struct {
	registry      *prometheus.Registry
	jobs          *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	batchStatus   *prometheus.GaugeVec
	batchDuration *prometheus.GaugeVec
	batchStart    *prometheus.GaugeVec
	batchEnd      *prometheus.GaugeVec
	workers       *prometheus.GaugeVec
}

// New creates a Collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Number of jobs by final status",
			},
			[]string{"batch", "status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Run time of finished jobs",
				Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
			},
			[]string{"batch", "status"},
		),
		batchStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batch_status",
				Help:      "1 for the current status of the batch, 0 for the others",
			},
			[]string{"batch", "status"},
		),
		batchDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Run time of the batch",
			},
			[]string{"batch"},
		),
		batchStart: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batch_start_timestamp_seconds",
				Help:      "Unix time the batch started",
			},
			[]string{"batch"},
		),
		batchEnd: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batch_end_timestamp_seconds",
				Help:      "Unix time the batch finished",
			},
			[]string{"batch"},
		),
		workers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batch_workers",
				Help:      "Number of workers the batch ran with",
			},
			[]string{"batch"},
		),
	}

	c.registry.MustRegister(
		c.jobs,
		c.jobDuration,
		c.batchStatus,
		c.batchDuration,
		c.batchStart,
		c.batchEnd,
		c.workers,
	)

	return c
}

// Registry returns the registry the metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records the state of b. Jobs that never finished are counted
// under their current status without a duration sample.
func (c *Collector) Observe(b *runbatch.Batch, workers int) {
	label := batchLabel(b)

	for _, st := range batchStatuses {
		v := 0.0
		if st == b.Status() {
			v = 1
		}

		c.batchStatus.WithLabelValues(label, st.String()).Set(v)
	}

	c.workers.WithLabelValues(label).Set(float64(workers))

	start, hasStart := b.StartDate()
	end, hasEnd := b.EndDate()

	if hasStart {
		c.batchStart.WithLabelValues(label).Set(unixSeconds(start))
	}

	if hasEnd {
		c.batchEnd.WithLabelValues(label).Set(unixSeconds(end))
	}

	if hasStart && hasEnd {
		c.batchDuration.WithLabelValues(label).Set(end.Sub(start).Seconds())
	}

	for _, j := range b.Jobs() {
		st := j.Status().String()
		c.jobs.WithLabelValues(label, st).Inc()

		js, ok1 := j.StartDate()
		je, ok2 := j.EndDate()

		if ok1 && ok2 {
			c.jobDuration.WithLabelValues(label, st).Observe(je.Sub(js).Seconds())
		}
	}
}

// WriteTextfile writes the metrics to path atomically, for collection by the
// node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Join(ErrWriteTextfile, err)
	}

	return nil
}

func batchLabel(b *runbatch.Batch) string {
	if n := b.Name(); n != "" {
		return n
	}

	return b.ID()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
