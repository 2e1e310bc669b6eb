// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{"one hour one minute one second", start, start.Add(3661000 * time.Millisecond), "01:01:01"},
		{"sub second truncated", start, start.Add(999 * time.Millisecond), "00:00:00"},
		{"long run", start, start.Add(27*time.Hour + 5*time.Second), "27:00:05"},
		{"missing start", time.Time{}, start, "00:00:00"},
		{"missing end", start, time.Time{}, "00:00:00"},
		{"both missing", time.Time{}, time.Time{}, "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.start, tt.end))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`foo "bar baz" 'qux'`, []string{"foo", "bar baz", "qux"}},
		{`sh -c "exit 1"`, []string{"sh", "-c", "exit 1"}},
		{`  nslookup   google.fr  `, []string{"nslookup", "google.fr"}},
		{`echo ""`, []string{"echo", ""}},
		{`echo "it's"`, []string{"echo", "it's"}},
		{`echo "unterminated`, []string{"echo", `"unterminated`}},
		{``, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestSanitizeCommand(t *testing.T) {
	assert.Equal(t, "nslookup-google-fr", SanitizeCommand("nslookup google.fr"))
	assert.Equal(t, "sh--c--exit---", SanitizeCommand(`sh -c "exit 1"`))
	assert.Equal(t, "Keep_this-one", SanitizeCommand("Keep_this-one"))
	assert.Equal(t, "caf-", SanitizeCommand("café"))
}

func TestLogFilename(t *testing.T) {
	at := time.Date(2024, 3, 5, 7, 8, 9, 5*int(time.Millisecond), time.Local)

	got := LogFilename("/var/log/jobs", "abc", 12, at, "nslookup google.fr")
	assert.Equal(t,
		filepath.Join("/var/log/jobs", "batchid-abc_jobid-12_20240305-07080905_nslookup-google-fr.log"),
		got,
	)

	at = at.Add(118 * time.Millisecond)
	got = LogFilename("logs", "abc", 1, at, "ls")
	assert.Equal(t, filepath.Join("logs", "batchid-abc_jobid-1_20240305-070809123_ls.log"), got)
}
