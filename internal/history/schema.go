// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package history

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    name TEXT,
    status TEXT NOT NULL,
    workers INTEGER NOT NULL,
    parameters TEXT,
    jobs_file TEXT,
    log_dir TEXT,
    start_ms INTEGER,
    end_ms INTEGER,
    success INTEGER NOT NULL DEFAULT 0,
    failure INTEGER NOT NULL DEFAULT 0,
    recorded_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_batch_id ON runs(batch_id);

CREATE TABLE IF NOT EXISTS jobs (
    run_id INTEGER NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    job_id INTEGER NOT NULL,
    command_line TEXT NOT NULL,
    status TEXT NOT NULL,
    exit_code INTEGER NOT NULL,
    start_ms INTEGER,
    end_ms INTEGER,
    log_file TEXT,
    PRIMARY KEY (run_id, job_id)
);
`
