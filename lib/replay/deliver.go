// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/elastic"
)

// Sender writes events into an index with one bulk request.
// *elastic.Client implements it.
type Sender interface {
	Bulk(ctx context.Context, index string, events []json.RawMessage) (elastic.Response, error)
}

// ErrNoEvents is returned by SendBulk for an empty batch.
var ErrNoEvents = errors.New("no events to send")

// SendBulk writes every event into index with a single request. A
// response is returned even for non-2xx statuses; only transport
// failures are errors.
func SendBulk(ctx context.Context, sender Sender, index string, events []json.RawMessage) (elastic.Response, error) {
	if len(events) == 0 {
		return elastic.Response{}, ErrNoEvents
	}
	return sender.Bulk(ctx, index, events)
}

// Delivery is the outcome of one trickled event.
type Delivery struct {
	// Number is the 1-based position in delivery order.
	Number int

	// Waited is how long the trickle slept before sending.
	Waited time.Duration

	Response elastic.Response
	Err      error
}

// OK reports whether the event was accepted.
func (d Delivery) OK() bool {
	return d.Err == nil && d.Response.OK()
}

// Trickle replays events one at a time in timestamp order, waiting on
// clk for each original inter-event gap.
//
// Events are stably sorted by "@timestamp", or by a numeric "ts" when
// "@timestamp" is absent; events with neither sort first. Before each send, Trickle waits for the gap between
// the event's timestamp and the latest timestamp sent so far, so
// simultaneous events go out back to back and out-of-order stragglers
// never wait. Each event is its own bulk request; report is called for
// every one, and a failed send does not stop the replay.
//
// Trickle returns the number of events sent and, when ctx ends the
// replay early, ctx.Err().
func Trickle(ctx context.Context, sender Sender, clk clock.Clock, index string, events []json.RawMessage, report func(Delivery)) (int, error) {
	ordered := sortByTimestamp(events)

	var latest time.Time
	haveLatest := false
	sent := 0
	for _, item := range ordered {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		var wait time.Duration
		if item.valid {
			if !haveLatest {
				latest = item.timestamp
				haveLatest = true
			}
			if item.timestamp.After(latest) {
				wait = item.timestamp.Sub(latest)
				latest = item.timestamp
			}
		}
		if wait > 0 {
			select {
			case <-clk.After(wait):
			case <-ctx.Done():
				return sent, ctx.Err()
			}
		}

		response, err := sender.Bulk(ctx, index, []json.RawMessage{item.event})
		sent++
		if report != nil {
			report(Delivery{Number: sent, Waited: wait, Response: response, Err: err})
		}
	}
	return sent, nil
}

// timedEvent is an event with its parsed timestamp.
type timedEvent struct {
	event     json.RawMessage
	timestamp time.Time
	valid     bool
}

func sortByTimestamp(events []json.RawMessage) []timedEvent {
	ordered := make([]timedEvent, len(events))
	for position, event := range events {
		ordered[position].event = event
		ordered[position].timestamp, ordered[position].valid = eventTimestamp(event)
	}
	slices.SortStableFunc(ordered, func(a, b timedEvent) int {
		switch {
		case !a.valid && !b.valid:
			return 0
		case !a.valid:
			return -1
		case !b.valid:
			return 1
		default:
			return a.timestamp.Compare(b.timestamp)
		}
	})
	return ordered
}

// eventTimestamp extracts an event's "@timestamp", falling back to a
// numeric "ts" (epoch seconds) for records that carry only that.
func eventTimestamp(event json.RawMessage) (time.Time, bool) {
	trimmed := bytes.TrimSpace(event)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return time.Time{}, false
	}
	var fields struct {
		Timestamp string `json:"@timestamp"`
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return time.Time{}, false
	}
	if fields.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, fields.Timestamp)
		if err == nil {
			return parsed, true
		}
	}
	seconds, ok, err := numericTS(trimmed)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return epochTime(seconds), true
}

// describeResponse renders a backend reply for the operator.
func describeResponse(response elastic.Response) string {
	return fmt.Sprintf("<Response [%d]>\n%s", response.StatusCode, bytes.TrimSpace(response.Body))
}
