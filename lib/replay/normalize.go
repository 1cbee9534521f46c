// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// ErrFormatConflict is returned when a record carries both an ISO
// timestamp and a numeric "ts" field, so the two alignment conventions
// would fight over it.
var ErrFormatConflict = errors.New("log has attributes of both a Zeek dump and a winlogbeat dump")

// isoTimestamp matches the millisecond ISO-8601 timestamps shipped by
// beats and logstash, e.g. 2022-12-09T19:14:25.412Z.
var isoTimestamp = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z`)

// Field names touched for numeric-epoch records.
const (
	fieldTS        = "ts"
	fieldTimestamp = "@timestamp"
)

// shifter maps recorded times onto the new origin. The anchor is the
// first timestamp met in scan order, in either convention.
type shifter struct {
	origin time.Time
	anchor time.Time
	seen   bool
}

func (s *shifter) shift(t time.Time) time.Time {
	if !s.seen {
		s.anchor = t
		s.seen = true
	}
	return s.origin.Add(t.Sub(s.anchor))
}

// Normalize rewrites every timestamp in events so the first timestamp
// found lands on the origin selected by option and all deltas are
// preserved: new = origin + (t - anchor). now is the origin for Now.
//
// ISO timestamps are replaced in place wherever they occur in a record.
// A record with a numeric "ts" field (epoch seconds) gains an
// "@timestamp" with the shifted time, and "ts" is rewritten to the
// shifted epoch seconds with microsecond precision.
//
// Normalization is all-or-nothing: a record with both conventions
// fails the batch with ErrFormatConflict before anything is returned.
// NoUpdate returns events unchanged.
func Normalize(ctx context.Context, events []json.RawMessage, option TimeOption, now time.Time) ([]json.RawMessage, error) {
	var origin time.Time
	switch option.Mode {
	case NoUpdate:
		return events, nil
	case Now:
		origin = now.UTC()
	case Explicit:
		origin = option.Origin.UTC()
	default:
		return nil, fmt.Errorf("%w: mode %d", ErrUnsupportedTimeOption, option.Mode)
	}

	if err := detectConflict(ctx, events); err != nil {
		return nil, err
	}

	s := &shifter{origin: origin}
	normalized := make([]json.RawMessage, len(events))
	for position, event := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rewritten, err := s.rewrite(event)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", position+1, err)
		}
		normalized[position] = rewritten
	}
	return normalized, nil
}

// detectConflict scans the whole batch before anything is rewritten.
func detectConflict(ctx context.Context, events []json.RawMessage) error {
	for position, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !isoTimestamp.Match(event) {
			continue
		}
		if _, ok, err := numericTS(event); err != nil {
			return fmt.Errorf("event %d: %w", position+1, err)
		} else if ok {
			return fmt.Errorf("event %d: %w", position+1, ErrFormatConflict)
		}
	}
	return nil
}

func (s *shifter) rewrite(event json.RawMessage) (json.RawMessage, error) {
	if isoTimestamp.Match(event) {
		var failure error
		out := isoTimestamp.ReplaceAllFunc(event, func(match []byte) []byte {
			recorded, err := time.Parse(TimestampLayout, string(match))
			if err != nil {
				// Matches the pattern but is not a real time (month 13).
				failure = err
				return match
			}
			return []byte(s.shift(recorded).Format(TimestampLayout))
		})
		if failure != nil {
			return nil, fmt.Errorf("invalid timestamp: %w", failure)
		}
		return out, nil
	}

	seconds, ok, err := numericTS(event)
	if err != nil {
		return nil, err
	}
	if !ok {
		return event, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(event, &fields); err != nil {
		return nil, err
	}
	shifted := s.shift(epochTime(seconds))
	stamp, err := json.Marshal(shifted.Format(TimestampLayout))
	if err != nil {
		return nil, err
	}
	fields[fieldTimestamp] = stamp
	fields[fieldTS] = json.RawMessage(epochSeconds(shifted))
	return json.Marshal(fields)
}

// numericTS returns the "ts" field of an object record when it is a
// JSON number. Records that are not objects, or whose ts is missing or
// not a number, report false.
func numericTS(event json.RawMessage) (float64, bool, error) {
	trimmed := bytes.TrimSpace(event)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, false, nil
	}
	var fields struct {
		TS json.RawMessage `json:"ts"`
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return 0, false, err
	}
	value := bytes.TrimSpace(fields.TS)
	if len(value) == 0 || !isNumberStart(value[0]) {
		return 0, false, nil
	}
	seconds, err := strconv.ParseFloat(string(value), 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid ts %s: %w", value, err)
	}
	return seconds, true, nil
}

func isNumberStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9')
}

// epochTime converts epoch seconds to a UTC time, rounded to the
// microsecond (the precision Zeek writes).
func epochTime(seconds float64) time.Time {
	micros := int64(math.Round(seconds * 1e6))
	return time.UnixMicro(micros).UTC()
}

// epochSeconds formats t as epoch seconds with six decimals.
func epochSeconds(t time.Time) string {
	micros := t.UnixMicro()
	if micros < 0 {
		return strconv.FormatFloat(float64(micros)/1e6, 'f', 6, 64)
	}
	return fmt.Sprintf("%d.%06d", micros/1_000_000, micros%1_000_000)
}
