// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ecs-project/ecs/lib/clock"
)

// ErrClosed is returned by Wait once the bus is closed and every
// stream has been drained.
var ErrClosed = errors.New("bus closed")

// Bus is the set of four streams shared by every worker of a session.
type Bus struct {
	clock   clock.Clock
	streams [streamCount]*Queue

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a Bus that stamps messages with clk.
func New(clk clock.Clock) *Bus {
	b := &Bus{
		clock:  clk,
		closed: make(chan struct{}),
	}
	for i := range b.streams {
		b.streams[i] = newQueue()
	}
	return b
}

// Publish appends text to stream. Publishing to a closed bus is a
// no-op.
func (b *Bus) Publish(stream Stream, text string) {
	select {
	case <-b.closed:
		return
	default:
	}
	b.Stream(stream).Push(Message{Stream: stream, Time: b.clock.Now(), Text: text})
}

// Publishf formats and publishes to stream.
func (b *Bus) Publishf(stream Stream, format string, args ...any) {
	b.Publish(stream, fmt.Sprintf(format, args...))
}

// Stream returns the queue backing stream. Panics on an unknown
// stream.
func (b *Bus) Stream(stream Stream) *Queue {
	if stream < 0 || int(stream) >= streamCount {
		panic(fmt.Sprintf("bus: unknown stream %d", int(stream)))
	}
	return b.streams[stream]
}

// Pending returns the total number of queued messages.
func (b *Bus) Pending() int {
	total := 0
	for _, queue := range b.streams {
		total += queue.Len()
	}
	return total
}

// Wait blocks until at least one stream may have data, the bus is
// closed, or ctx is done. It returns nil when the caller should Drain,
// ErrClosed when the bus is closed and empty, and ctx.Err() on
// cancellation. A nil return may occasionally be followed by an empty
// Drain.
func (b *Bus) Wait(ctx context.Context) error {
	if b.Pending() > 0 {
		return nil
	}
	select {
	case <-b.streams[Effects].Notify():
	case <-b.streams[Logs].Notify():
	case <-b.streams[Context].Notify():
	case <-b.streams[Errors].Notify():
	case <-b.closed:
		if b.Pending() > 0 {
			return nil
		}
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Drain removes and returns every pending message, grouped by stream
// in display order: effects, logs, context, errors. Within a stream,
// messages keep publication order.
func (b *Bus) Drain() []Message {
	var drained []Message
	for _, stream := range AllStreams {
		drained = append(drained, b.streams[stream].Drain()...)
	}
	return drained
}

// Close stops accepting new messages and wakes the consumer. Messages
// already queued remain drainable. Close is idempotent.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.closed) })
}

// Closed returns a channel that is closed by Close.
func (b *Bus) Closed() <-chan struct{} {
	return b.closed
}

// Pump delivers every message to sink until the bus is closed and
// drained, or ctx is done. It is the consumer loop for callers without
// their own event loop. Returns nil after a clean close.
func Pump(ctx context.Context, b *Bus, sink func(Message)) error {
	for {
		if err := b.Wait(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		for _, message := range b.Drain() {
			sink(message)
		}
	}
}
