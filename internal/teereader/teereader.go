// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// LastLineTeeReader wraps an io.Reader and tracks the last complete line read.
// It is safe to query while another goroutine reads.
type LastLineTeeReader struct {
	reader   io.Reader
	full     *bytes.Buffer // nil unless WithFullBuffer
	lastLine string
	partial  strings.Builder
	n        int64
	mu       sync.RWMutex
}

// Option configures a LastLineTeeReader.
type Option func(*LastLineTeeReader)

// WithFullBuffer keeps a copy of everything read, available from Bytes.
func WithFullBuffer() Option {
	return func(lt *LastLineTeeReader) {
		lt.full = &bytes.Buffer{}
	}
}

// NewLastLineTeeReader creates a new LastLineTeeReader that wraps the given reader.
func NewLastLineTeeReader(r io.Reader, opts ...Option) *LastLineTeeReader {
	lt := &LastLineTeeReader{reader: r}
	for _, opt := range opts {
		opt(lt)
	}

	return lt
}

// Read implements io.Reader.
func (lt *LastLineTeeReader) Read(p []byte) (n int, err error) {
	n, err = lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		defer lt.mu.Unlock()

		lt.n += int64(n)

		if lt.full != nil {
			lt.full.Write(p[:n])
		}

		lt.processNewData(string(p[:n]))
	}

	return n, err //nolint:wrapcheck
}

// processNewData must be called with the write lock held.
func (lt *LastLineTeeReader) processNewData(data string) {
	lt.partial.WriteString(data)

	combined := lt.partial.String()

	idx := strings.LastIndexByte(combined, '\n')
	if idx < 0 {
		return
	}

	complete := combined[:idx]
	if prev := strings.LastIndexByte(complete, '\n'); prev >= 0 {
		complete = complete[prev+1:]
	}

	lt.lastLine = strings.TrimSuffix(complete, "\r")

	rest := combined[idx+1:]
	lt.partial.Reset()
	lt.partial.WriteString(rest)
}

// LastLine returns the last complete line read, without its line ending.
// If maxLength > 3 and the line is longer, it is truncated and "..." appended.
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	result := lt.lastLine
	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}

// Partial returns the data read after the last newline.
func (lt *LastLineTeeReader) Partial() string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.partial.String()
}

// Len returns the number of bytes read so far.
func (lt *LastLineTeeReader) Len() int64 {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.n
}

// Bytes returns a copy of everything read so far, or nil if the reader was
// not created WithFullBuffer.
func (lt *LastLineTeeReader) Bytes() []byte {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	if lt.full == nil {
		return nil
	}

	return bytes.Clone(lt.full.Bytes())
}
