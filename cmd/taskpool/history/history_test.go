// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package history

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/taskpool/internal/history"
	"github.com/matt-FFFFFF/taskpool/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func recordRun(t *testing.T, path, name string, commands ...string) int64 {
	t.Helper()

	ctx := context.Background()

	b := runbatch.NewBatch(name)
	_, err := runbatch.NewPool(b, nil, 1).Run(ctx, commands)
	require.NoError(t, err)

	store, err := history.Open(ctx, path)
	require.NoError(t, err)

	defer store.Close() //nolint:errcheck

	id, err := store.RecordBatch(ctx, b, 1)
	require.NoError(t, err)

	return id
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)

	cmd := NewHistoryCmd()
	cmd.Writer = out
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	root := &cli.Command{
		Name:           "taskpool",
		Commands:       []*cli.Command{cmd},
		Writer:         out,
		ErrWriter:      new(bytes.Buffer),
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	err := root.Run(context.Background(), append([]string{"taskpool", "history"}, args...))

	return out.String(), err
}

func TestHistoryCmd_ListsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	recordRun(t, db, "first", "true")
	recordRun(t, db, "second", "true", "false")

	out, err := runApp(t, "--history-db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "first")
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "COMPLETED_WITH_ERROR")
	assert.Less(t, bytes.Index([]byte(out), []byte("second")), bytes.Index([]byte(out), []byte("first")),
		"newest run should be listed first")
}

func TestHistoryCmd_Limit(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	recordRun(t, db, "older", "true")
	recordRun(t, db, "newer", "true")

	out, err := runApp(t, "--history-db", db, "-n", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "newer")
	assert.NotContains(t, out, "older")
}

func TestHistoryCmd_RunJobs(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	id := recordRun(t, db, "jobs", "echo listed", "false")

	out, err := runApp(t, "--history-db", db, "--run", "1")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	assert.Contains(t, out, "echo listed")
	assert.Contains(t, out, "FAILED")
}

func TestHistoryCmd_RequiresDatabase(t *testing.T) {
	_, err := runApp(t)
	require.Error(t, err)
}
