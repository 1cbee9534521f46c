// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestLogHandlerSummarize(t *testing.T) {
	handler := NewLogHandler(slog.LevelInfo)
	derived := handler.WithAttrs([]slog.Attr{slog.String("scene", "1")}).WithGroup("ssh").(*LogHandler)

	record := slog.NewRecord(time.Now(), slog.LevelWarn, "dial failed", 0)
	record.AddAttrs(slog.String("host", "10.0.0.5"))

	got := derived.summarize(record)
	want := "dial failed (scene=1, ssh.host=10.0.0.5)"
	if got != want {
		t.Errorf("summarize = %q, want %q", got, want)
	}
}

func TestLogHandlerEnabled(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled at warn level")
	}
}

func TestLogHandlerWithoutProgramDrops(t *testing.T) {
	logger := slog.New(NewLogHandler(slog.LevelDebug))
	// Must not block or panic before a program is attached.
	logger.Error("early record", "error", "boom")
}
