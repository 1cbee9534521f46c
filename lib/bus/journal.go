// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// maxJournalSuffix bounds the search for a free journal name.
const maxJournalSuffix = 10000

// Journal is the plain text system log of one session: every message
// the consumer displayed, one line each.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// OpenJournal creates a new journal in dir. The file is named
// <name>.txt; if that exists, <name>1.txt, <name>2.txt, and so on.
// An existing journal is never overwritten.
func OpenJournal(dir, name string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	for suffix := 0; suffix < maxJournalSuffix; suffix++ {
		path := filepath.Join(dir, journalName(name, suffix))
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating journal %s: %w", path, err)
		}
		return &Journal{file: file, path: path}, nil
	}
	return nil, fmt.Errorf("no free journal name for %s in %s", name, dir)
}

func journalName(name string, suffix int) string {
	if suffix == 0 {
		return name + ".txt"
	}
	return fmt.Sprintf("%s%d.txt", name, suffix)
}

// Path returns the journal's file path.
func (j *Journal) Path() string {
	return j.path
}

// Write appends the message text as one line.
func (j *Journal) Write(message Message) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return os.ErrClosed
	}
	_, err := fmt.Fprintln(j.file, message.Text)
	return err
}

// Close closes the journal file. Subsequent writes fail.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
