// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package logging holds the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnv enables debug logging when set to any non-empty value.
const DebugEnv = "APTX_DEBUG"

// Logger is the shared logger. It discards output until InitLogger is called,
// so library packages can log unconditionally.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// InitLogger initializes the global logger writing to stderr.
// Set APTX_DEBUG=1 to enable debug records.
func InitLogger() {
	Logger = New(os.Stderr, os.Getenv(DebugEnv) != "")
}

// New builds a text logger without time and level attributes for cleaner CLI output.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	})

	return slog.New(handler)
}

// Debug logs a debug message (only shown when APTX_DEBUG is set)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
