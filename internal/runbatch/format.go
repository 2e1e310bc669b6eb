// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	secondsInHour   = 3600
	secondsInMinute = 60

	logFileTimeLayout = "20060102-150405"
)

// tokenPattern matches a double quoted string, a single quoted string or a
// run of non-space characters, in that order of preference.
var tokenPattern = regexp.MustCompile(`"[^"]*"|'[^']*'|\S+`)

// FormatDuration renders end-start as HH:MM:SS in whole seconds.
// A zero start or end yields "00:00:00".
func FormatDuration(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "00:00:00"
	}

	secs := int64(end.Sub(start) / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d",
		secs/secondsInHour,
		(secs%secondsInHour)/secondsInMinute,
		secs%secondsInMinute,
	)
}

// Tokenize splits a command line on whitespace. Single or double quoted
// substrings are kept as one token with the quotes removed.
func Tokenize(commandLine string) []string {
	matches := tokenPattern.FindAllString(commandLine, -1)
	tokens := make([]string, 0, len(matches))

	for _, m := range matches {
		if len(m) >= 2 && (m[0] == '"' || m[0] == '\'') && m[len(m)-1] == m[0] {
			m = m[1 : len(m)-1]
		}

		tokens = append(tokens, m)
	}

	return tokens
}

// SanitizeCommand replaces every character outside [A-Za-z_-] with '-'.
func SanitizeCommand(commandLine string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, commandLine)
}

// LogFilename builds the path of a job's output log:
// <dir>/batchid-<batchID>_jobid-<jobID>_<yyyyMMdd-HHmmssSS>_<sanitized command>.log
// The trailing timestamp field is the millisecond of the second, at least
// two digits wide.
func LogFilename(dir, batchID string, jobID uint64, at time.Time, commandLine string) string {
	var sb strings.Builder

	sb.WriteString("batchid-")
	sb.WriteString(batchID)
	sb.WriteString("_jobid-")
	sb.WriteString(strconv.FormatUint(jobID, 10))
	sb.WriteString("_")
	sb.WriteString(at.Format(logFileTimeLayout))
	fmt.Fprintf(&sb, "%02d", at.Nanosecond()/int(time.Millisecond))
	sb.WriteString("_")
	sb.WriteString(SanitizeCommand(commandLine))
	sb.WriteString(".log")

	return filepath.Join(dir, sb.String())
}
