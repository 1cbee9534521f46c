// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI command
// diagnostics at level. When stderr is a terminal it uses
// slog.TextHandler for human-readable output. When stderr is piped or
// redirected it uses slog.JSONHandler, so runs captured by lab
// automation stay machine-parseable.
//
// Experiment output (effect results, replay progress) goes to the
// event bus, not here.
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
