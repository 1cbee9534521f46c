// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ParseError reports the dump line on which decoding failed.
type ParseError struct {
	// Line is 1-based.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// emptyString is the placeholder some exporters write between records.
var emptyString = []byte(`""`)

// Parse decodes every JSON record in r. Each line may contain any
// number of records concatenated without separators; each is decoded
// in turn until the line is exhausted. Bare "" records are discarded.
// The first malformed record aborts the parse with a *ParseError.
// Cancellation is checked between lines.
func Parse(ctx context.Context, r io.Reader) ([]json.RawMessage, error) {
	reader := bufio.NewReader(r)
	var events []json.RawMessage

	for lineNumber := 1; ; lineNumber++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("reading line %d: %w", lineNumber, readErr)
		}

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			decoder := json.NewDecoder(bytes.NewReader(line))
			for {
				var record json.RawMessage
				err := decoder.Decode(&record)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return nil, &ParseError{Line: lineNumber, Err: err}
				}
				if bytes.Equal(record, emptyString) {
					continue
				}
				events = append(events, record)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return events, nil
		}
	}
}
