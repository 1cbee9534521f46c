// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"fmt"
	"strings"
	"time"
)

// Stream identifies one of the four bus streams.
type Stream int

const (
	// Effects carries remote session output.
	Effects Stream = iota
	// Logs carries log replay notices.
	Logs
	// Context carries scenario context notices. Reserved: nothing in
	// the engine publishes to it yet.
	Context
	// Errors carries every reported failure.
	Errors
)

// streamCount is the number of streams; Stream values are dense in
// [0, streamCount).
const streamCount = 4

// AllStreams lists the streams in display order.
var AllStreams = [streamCount]Stream{Effects, Logs, Context, Errors}

// String returns the stream's lowercase name.
func (s Stream) String() string {
	switch s {
	case Effects:
		return "effects"
	case Logs:
		return "logs"
	case Context:
		return "context"
	case Errors:
		return "errors"
	default:
		return fmt.Sprintf("stream(%d)", int(s))
	}
}

// ParseStream returns the stream named name, case-insensitively.
func ParseStream(name string) (Stream, error) {
	for _, stream := range AllStreams {
		if strings.EqualFold(stream.String(), name) {
			return stream, nil
		}
	}
	return 0, fmt.Errorf("unknown stream %q (want effects, logs, context, or errors)", name)
}

// Message is one line published to a stream.
type Message struct {
	Stream Stream
	Time   time.Time
	Text   string
}
