// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"errors"
	"strings"
)

// Recorder persists consumed messages to a journal and, optionally, a
// CBOR archive next to it.
type Recorder struct {
	journal *Journal
	archive *Archive
}

// OpenRecorder opens a new journal in dir and, when withArchive is
// set, an archive at the journal's path with a .cbor extension.
func OpenRecorder(dir, name string, withArchive bool) (*Recorder, error) {
	journal, err := OpenJournal(dir, name)
	if err != nil {
		return nil, err
	}
	recorder := &Recorder{journal: journal}
	if withArchive {
		archivePath := strings.TrimSuffix(journal.Path(), ".txt") + ".cbor"
		archive, err := CreateArchive(archivePath)
		if err != nil {
			journal.Close()
			return nil, err
		}
		recorder.archive = archive
	}
	return recorder, nil
}

// JournalPath returns the text journal's path.
func (r *Recorder) JournalPath() string {
	return r.journal.Path()
}

// ArchivePath returns the archive's path, or "" when archiving is off.
func (r *Recorder) ArchivePath() string {
	if r.archive == nil {
		return ""
	}
	return r.archive.Path()
}

// Write records message in the journal and the archive.
func (r *Recorder) Write(message Message) error {
	err := r.journal.Write(message)
	if r.archive != nil {
		err = errors.Join(err, r.archive.Write(message))
	}
	return err
}

// Close closes both files.
func (r *Recorder) Close() error {
	err := r.journal.Close()
	if r.archive != nil {
		err = errors.Join(err, r.archive.Close())
	}
	return err
}
