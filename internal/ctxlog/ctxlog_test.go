// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		ctx := New(context.Background(), logger)
		assert.Same(t, logger, Logger(ctx))
	})

	t.Run("with nil logger should use default", func(t *testing.T) {
		ctx := New(context.Background(), nil)
		assert.Same(t, DefaultLogger, Logger(ctx))
	})
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		setupContext  func() context.Context
		expectDefault bool
	}{
		{
			name: "context with logger",
			setupContext: func() context.Context {
				return New(context.Background(), slog.New(slog.NewTextHandler(os.Stdout, nil)))
			},
			expectDefault: false,
		},
		{
			name:          "context without logger",
			setupContext:  context.Background,
			expectDefault: true,
		},
		{
			name: "context with nil logger value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, nil)
			},
			expectDefault: true,
		},
		{
			name: "context with wrong type value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, "not a logger")
			},
			expectDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Logger(tt.setupContext())
			require.NotNil(t, logger)

			if tt.expectDefault {
				assert.Same(t, DefaultLogger, logger)
			} else {
				assert.NotSame(t, DefaultLogger, logger)
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := New(context.Background(), logger)

	tests := []struct {
		name     string
		logFunc  func(context.Context, string, ...any)
		message  string
		expected string
	}{
		{name: "Info logging", logFunc: Info, message: "job queued", expected: "INFO"},
		{name: "Debug logging", logFunc: Debug, message: "job started", expected: "DEBUG"},
		{name: "Warn logging", logFunc: Warn, message: "job already started", expected: "WARN"},
		{name: "Error logging", logFunc: Error, message: "could not spawn", expected: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, tt.message, "job_id", 1)

			assert.Contains(t, buf.String(), tt.expected)
			assert.Contains(t, buf.String(), tt.message)
			assert.Contains(t, buf.String(), "job_id=1")
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		envValue      string
		expectedLevel slog.Level
	}{
		{name: "DEBUG level", envValue: "DEBUG", expectedLevel: slog.LevelDebug},
		{name: "INFO level", envValue: "INFO", expectedLevel: slog.LevelInfo},
		{name: "WARN level", envValue: "WARN", expectedLevel: slog.LevelWarn},
		{name: "ERROR level", envValue: "ERROR", expectedLevel: slog.LevelError},
		{name: "lower case is accepted", envValue: "debug", expectedLevel: slog.LevelDebug},
		{name: "Invalid level defaults to INFO", envValue: "INVALID", expectedLevel: slog.LevelInfo},
		{name: "Empty level defaults to INFO", envValue: "", expectedLevel: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(LogLevelEnvVar, tt.envValue)
			assert.Equal(t, tt.expectedLevel, logLevelFromEnv())
		})
	}
}

func TestNewLogger(t *testing.T) {
	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelInfo)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		logger, err := NewLogger(FormatJSON, &buf)
		require.NoError(t, err)
		logger.Info("batch started", "workers", 2)
		assert.Contains(t, buf.String(), `"msg":"batch started"`)
		assert.Contains(t, buf.String(), `"workers":2`)
	})

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer

		logger, err := NewLogger("", &buf)
		require.NoError(t, err)
		logger.Info("batch started")
		assert.Contains(t, buf.String(), "INFO:")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewLogger("xml", &bytes.Buffer{})
		require.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestNewForTUI(t *testing.T) {
	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelInfo)

	var buf bytes.Buffer

	ctx := NewForTUI(context.Background(), &buf)
	Warn(ctx, "held back")

	assert.Contains(t, buf.String(), "held back")
	assert.NotContains(t, buf.String(), "\033[", "TUI logger must not colour output")
}

func TestDefaultLoggers(t *testing.T) {
	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelDebug)

	assert.True(t, DefaultLogger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, JSONLogger.Enabled(context.Background(), slog.LevelInfo))
}
