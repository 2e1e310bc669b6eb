// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runBatch(t *testing.T, name string, commands ...string) *runbatch.Batch {
	t.Helper()

	b := runbatch.NewBatch(name)
	p := runbatch.NewPool(b, nil, 2)

	_, err := p.Run(context.Background(), commands)
	require.NoError(t, err)

	return b
}

func gather(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()

	mfs, err := c.Registry().Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}

	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}

	return ""
}

func TestObserve(t *testing.T) {
	b := runBatch(t, "metrics", "true", "true", "false")

	c := New()
	c.Observe(b, 2)

	mfs := gather(t, c)

	jobs := mfs["taskpool_jobs_total"]
	require.NotNil(t, jobs)

	counts := map[string]float64{}
	for _, m := range jobs.GetMetric() {
		assert.Equal(t, "metrics", labelValue(m, "batch"))
		counts[labelValue(m, "status")] = m.GetCounter().GetValue()
	}

	assert.Equal(t, map[string]float64{"COMPLETED": 2, "FAILED": 1}, counts)

	status := mfs["taskpool_batch_status"]
	require.NotNil(t, status)
	assert.Len(t, status.GetMetric(), len(batchStatuses))

	for _, m := range status.GetMetric() {
		want := 0.0
		if labelValue(m, "status") == "COMPLETED_WITH_ERROR" {
			want = 1
		}

		assert.InDelta(t, want, m.GetGauge().GetValue(), 0, labelValue(m, "status"))
	}

	hist := mfs["taskpool_job_duration_seconds"]
	require.NotNil(t, hist)

	var samples uint64
	for _, m := range hist.GetMetric() {
		samples += m.GetHistogram().GetSampleCount()
	}

	assert.Equal(t, uint64(3), samples)

	workers := mfs["taskpool_batch_workers"]
	require.NotNil(t, workers)
	assert.InDelta(t, 2, workers.GetMetric()[0].GetGauge().GetValue(), 0)

	assert.Contains(t, mfs, "taskpool_batch_start_timestamp_seconds")
	assert.Contains(t, mfs, "taskpool_batch_end_timestamp_seconds")
	assert.Contains(t, mfs, "taskpool_batch_duration_seconds")
}

func TestObserveUnnamedBatchUsesID(t *testing.T) {
	b := runBatch(t, "", "true")

	c := New()
	c.Observe(b, 1)

	jobs := gather(t, c)["taskpool_jobs_total"]
	require.NotNil(t, jobs)
	assert.Equal(t, b.ID(), labelValue(jobs.GetMetric()[0], "batch"))
}

func TestWriteTextfile(t *testing.T) {
	b := runBatch(t, "textfile", "true")

	c := New()
	c.Observe(b, 1)

	path := filepath.Join(t.TempDir(), "taskpool.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `taskpool_jobs_total{batch="textfile",status="COMPLETED"} 1`)
	assert.Contains(t, string(data), `taskpool_batch_status{batch="textfile",status="COMPLETED"} 1`)
}

func TestWriteTextfileError(t *testing.T) {
	c := New()

	err := c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "taskpool.prom"))
	require.ErrorIs(t, err, ErrWriteTextfile)
}
