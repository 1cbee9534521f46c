// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenJournalPicksFreeName(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for i := 0; i < 3; i++ {
		journal, err := OpenJournal(dir, "ECS_Log")
		if err != nil {
			t.Fatalf("OpenJournal #%d: %v", i, err)
		}
		paths = append(paths, filepath.Base(journal.Path()))
		journal.Close()
	}

	want := []string{"ECS_Log.txt", "ECS_Log1.txt", "ECS_Log2.txt"}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("journal #%d = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestJournalWritesLines(t *testing.T) {
	journal, err := OpenJournal(t.TempDir(), "ECS_Log")
	if err != nil {
		t.Fatal(err)
	}
	journal.Write(Message{Stream: Errors, Text: "[!] Starting log file @ x"})
	journal.Write(Message{Stream: Effects, Text: "root@10.0.0.5 => PID: 4242"})
	if err := journal.Close(); err != nil {
		t.Fatal(err)
	}
	if err := journal.Write(Message{Text: "late"}); err == nil {
		t.Error("Write after Close should fail")
	}

	data, err := os.ReadFile(journal.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := "[!] Starting log file @ x\nroot@10.0.0.5 => PID: 4242\n"
	if string(data) != want {
		t.Errorf("journal = %q, want %q", data, want)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ECS_Log.cbor")
	archive, err := CreateArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	messages := []Message{
		{Stream: Effects, Time: epoch, Text: "u@h => hello"},
		{Stream: Errors, Time: epoch.Add(time.Second), Text: "[!] Bad response log #1"},
	}
	for _, message := range messages {
		if err := archive.Write(message); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	archive.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var records []Record
	if err := ReadArchive(bytes.NewReader(data), func(record Record) error {
		records = append(records, record)
		return nil
	}); err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(records) != len(messages) {
		t.Fatalf("got %d records, want %d", len(records), len(messages))
	}
	for i, record := range records {
		if record.Stream != messages[i].Stream.String() || record.Text != messages[i].Text {
			t.Errorf("record %d = %+v", i, record)
		}
		if !record.Time.Equal(messages[i].Time) {
			t.Errorf("record %d time = %v, want %v", i, record.Time, messages[i].Time)
		}
	}
}

func TestReadArchiveTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.cbor")
	archive, err := CreateArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	archive.Write(Message{Stream: Logs, Time: epoch, Text: "a fairly long line of text"})
	archive.Close()

	data, _ := os.ReadFile(path)
	err = ReadArchive(bytes.NewReader(data[:len(data)-3]), func(Record) error { return nil })
	if err == nil {
		t.Fatal("ReadArchive on truncated input should fail")
	}
}

func TestRecorderWritesBoth(t *testing.T) {
	dir := t.TempDir()
	recorder, err := OpenRecorder(dir, "ECS_Log", true)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(recorder.ArchivePath()) != "ECS_Log.cbor" {
		t.Errorf("ArchivePath = %s", recorder.ArchivePath())
	}
	if err := recorder.Write(Message{Stream: Logs, Time: epoch, Text: "[+] parsing logs from: a.json"}); err != nil {
		t.Fatal(err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(recorder.ArchivePath())
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	count := 0
	ReadArchive(file, func(Record) error { count++; return nil })
	if count != 1 {
		t.Errorf("archive records = %d, want 1", count)
	}

	plain, err := OpenRecorder(dir, "ECS_Log", false)
	if err != nil {
		t.Fatal(err)
	}
	defer plain.Close()
	if plain.ArchivePath() != "" {
		t.Errorf("ArchivePath without archive = %q", plain.ArchivePath())
	}
	if filepath.Base(plain.JournalPath()) != "ECS_Log1.txt" {
		t.Errorf("second JournalPath = %s", plain.JournalPath())
	}
}
