// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package joblist

import (
	"context"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFs(t *testing.T, files map[string]string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return fs
	})
	t.Cleanup(stubs.Reset)
}

func TestLoadTextFile(t *testing.T) {
	stubFs(t, map[string]string{
		"/jobs.txt": "# header\necho one\n\necho two\n",
	})

	def, err := Load(context.Background(), "/jobs.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"echo one", "echo two"}, def.Jobs)
	assert.Empty(t, def.Name)
	assert.Zero(t, def.Workers)
}

func TestLoadBatchFile(t *testing.T) {
	stubFs(t, map[string]string{
		"/batch.yml": "name: weekly\nworkers: 2\njobs:\n  - echo one\n",
	})

	def, err := Load(context.Background(), "/batch.yml")
	require.NoError(t, err)

	assert.Equal(t, "weekly", def.Name)
	assert.Equal(t, 2, def.Workers)
	assert.Equal(t, []string{"echo one"}, def.Jobs)
}

func TestLoadErrors(t *testing.T) {
	stubFs(t, map[string]string{
		"/empty.txt":  "# nothing here\n\n",
		"/broken.yml": "jobs: [",
	})

	testCases := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"empty source", "", ErrReadJobsFile},
		{"missing file", "/missing.txt", ErrReadJobsFile},
		{"no jobs in text file", "/empty.txt", ErrNoJobs},
		{"broken batch file", "/broken.yml", ErrInvalidYaml},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			def, err := Load(context.Background(), tc.src)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, def)
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/jobs.txt"))
	assert.True(t, IsRemote("git::https://github.com/org/repo//jobs.txt"))
	assert.True(t, IsRemote("s3::bucket/jobs.txt"))
	assert.False(t, IsRemote("./jobs.txt"))
	assert.False(t, IsRemote("/etc/jobs.txt"))
}

func TestFetch(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		wantErr   error
		wantBytes []byte
	}{
		{
			name:    "empty url returns error",
			url:     "",
			wantErr: ErrGetJobsFile,
		},
		{
			name:    "getter fails",
			url:     "git::http://notexist.invalid//file.txt",
			wantErr: ErrGetJobsFile,
		},
		{
			name:      "local file succeeds",
			url:       "./testdata/jobs.txt",
			wantBytes: []byte("# test jobs\necho one\necho two\n"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fetch(context.Background(), tc.url)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantBytes, got)
		})
	}
}

func TestSplitFileNameFromGetterURL(t *testing.T) {
	testCases := []struct {
		url      string
		wantURL  string
		wantFile string
	}{
		{
			url:      "git::https://github.com/org/repo//jobs/nightly.txt?ref=v1",
			wantURL:  "git::https://github.com/org/repo//jobs?ref=v1",
			wantFile: "nightly.txt",
		},
		{
			url:      "git::https://github.com/org/repo//nightly.yaml",
			wantURL:  "git::https://github.com/org/repo",
			wantFile: "nightly.yaml",
		},
		{
			url: "https://example.com/jobs.txt",
		},
		{
			url: "git::https://github.com/org/repo//",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			gotURL, gotFile := splitFileNameFromGetterURL(tc.url)
			assert.Equal(t, tc.wantURL, gotURL)
			assert.Equal(t, tc.wantFile, gotFile)
		})
	}
}
