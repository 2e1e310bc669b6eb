// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history persists finished batches and their jobs in SQLite so
// earlier runs can be listed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const defaultLimit = 20

var (
	// ErrOpenStore is returned when the database cannot be opened or migrated.
	ErrOpenStore = errors.New("failed to open history store")
	// ErrRecordBatch is returned when a batch cannot be saved.
	ErrRecordBatch = errors.New("failed to record batch")
	// ErrQuery is returned when reading the history fails.
	ErrQuery = errors.New("failed to query history")
)

// Run is one recorded execution of a batch.
type Run struct {
	RunID      int64
	BatchID    string
	Name       string
	Status     string
	Workers    int
	Parameters string
	JobsFile   string
	LogDir     string
	Start      time.Time
	End        time.Time
	Success    uint64
	Failure    uint64
	RecordedAt time.Time
}

// Duration formats the run time as HH:MM:SS.
func (r Run) Duration() string {
	return runbatch.FormatDuration(r.Start, r.End)
}

// Job is one recorded job of a run.
type Job struct {
	JobID       uint64
	CommandLine string
	Status      string
	ExitCode    int
	Start       time.Time
	End         time.Time
	LogFile     string
}

// Store provides SQLite-backed batch history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Join(ErrOpenStore, err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrOpenStore, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrOpenStore, fmt.Errorf("running migrations: %w", err))
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck
}

// RecordBatch saves b and all its jobs in one transaction and returns the
// run identifier.
func (s *Store) RecordBatch(ctx context.Context, b *runbatch.Batch, workers int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Join(ErrRecordBatch, err)
	}

	defer tx.Rollback() //nolint:errcheck

	start, _ := b.StartDate()
	end, _ := b.EndDate()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (batch_id, name, status, workers, parameters, jobs_file, log_dir, start_ms, end_ms, success, failure, recorded_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID(),
		b.Name(),
		b.Status().String(),
		workers,
		b.Parameters(),
		b.JobsFile(),
		b.LogDir(),
		toMillis(start),
		toMillis(end),
		b.SuccessCount(),
		b.FailureCount(),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, errors.Join(ErrRecordBatch, err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Join(ErrRecordBatch, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jobs (run_id, job_id, command_line, status, exit_code, start_ms, end_ms, log_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, errors.Join(ErrRecordBatch, err)
	}

	defer stmt.Close() //nolint:errcheck

	for _, j := range b.Jobs() {
		js, _ := j.StartDate()
		je, _ := j.EndDate()

		if _, err := stmt.ExecContext(ctx,
			runID,
			j.ID(),
			j.CommandLine(),
			j.Status().String(),
			j.ExitCode(),
			toMillis(js),
			toMillis(je),
			j.LogFile(),
		); err != nil {
			return 0, errors.Join(ErrRecordBatch, fmt.Errorf("job %d: %w", j.ID(), err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Join(ErrRecordBatch, err)
	}

	return runID, nil
}

// ListRuns returns the most recent runs, newest first. A limit below one
// returns the default number of runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, batch_id, name, status, workers, parameters, jobs_file, log_dir,
		       start_ms, end_ms, success, failure, recorded_ms
		FROM runs
		ORDER BY run_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run

	for rows.Next() {
		var (
			r                              Run
			name, params, jobsFile, logDir sql.NullString
			startMs, endMs                 sql.NullInt64
			recordedMs                     int64
		)

		if err := rows.Scan(
			&r.RunID, &r.BatchID, &name, &r.Status, &r.Workers, &params, &jobsFile, &logDir,
			&startMs, &endMs, &r.Success, &r.Failure, &recordedMs,
		); err != nil {
			return nil, errors.Join(ErrQuery, err)
		}

		r.Name = name.String
		r.Parameters = params.String
		r.JobsFile = jobsFile.String
		r.LogDir = logDir.String
		r.Start = fromMillis(startMs)
		r.End = fromMillis(endMs)
		r.RecordedAt = time.UnixMilli(recordedMs)

		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	return runs, nil
}

// Jobs returns the jobs recorded for a run in identifier order.
func (s *Store) Jobs(ctx context.Context, runID int64) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, command_line, status, exit_code, start_ms, end_ms, log_file
		FROM jobs
		WHERE run_id = ?
		ORDER BY job_id
	`, runID)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close() //nolint:errcheck

	var jobs []Job

	for rows.Next() {
		var (
			j              Job
			startMs, endMs sql.NullInt64
			logFile        sql.NullString
		)

		if err := rows.Scan(&j.JobID, &j.CommandLine, &j.Status, &j.ExitCode, &startMs, &endMs, &logFile); err != nil {
			return nil, errors.Join(ErrQuery, err)
		}

		j.Start = fromMillis(startMs)
		j.End = fromMillis(endMs)
		j.LogFile = logFile.String

		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	return jobs, nil
}

func toMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}

	return time.UnixMilli(v.Int64)
}
