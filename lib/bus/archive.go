// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ecs-project/ecs/lib/codec"
)

// Record is the archived form of a Message.
type Record struct {
	Stream string    `cbor:"stream"`
	Time   time.Time `cbor:"time"`
	Text   string    `cbor:"text"`
}

// Archive writes messages as a CBOR sequence (RFC 8742): one
// self-delimiting record per message, readable while the session is
// still appending.
type Archive struct {
	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	encoder *codec.Encoder
	path    string
}

// CreateArchive creates (or truncates) the archive at path.
func CreateArchive(path string) (*Archive, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	writer := bufio.NewWriter(file)
	return &Archive{
		file:    file,
		writer:  writer,
		encoder: codec.NewEncoder(writer),
		path:    path,
	}, nil
}

// Path returns the archive's file path.
func (a *Archive) Path() string {
	return a.path
}

// Write appends one record and flushes it to the file.
func (a *Archive) Write(message Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return os.ErrClosed
	}
	record := Record{
		Stream: message.Stream.String(),
		Time:   message.Time.UTC(),
		Text:   message.Text,
	}
	if err := a.encoder.Encode(record); err != nil {
		return fmt.Errorf("encoding archive record: %w", err)
	}
	return a.writer.Flush()
}

// Close flushes and closes the archive.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	flushErr := a.writer.Flush()
	closeErr := a.file.Close()
	a.file = nil
	return errors.Join(flushErr, closeErr)
}

// ReadArchive decodes every record from r, calling fn for each in
// order. Iteration stops at the first error returned by fn.
func ReadArchive(r io.Reader, fn func(Record) error) error {
	decoder := codec.NewDecoder(bufio.NewReader(r))
	for index := 0; ; index++ {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding archive record %d: %w", index, err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}
