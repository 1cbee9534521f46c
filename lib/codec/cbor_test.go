// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type sampleRecord struct {
	Stream string    `cbor:"stream"`
	Time   time.Time `cbor:"time"`
	Text   string    `cbor:"text"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Stream: "effects",
		Time:   time.Date(2022, 12, 9, 19, 14, 25, 412_000_000, time.UTC),
		Text:   "root@10.0.0.5 => PID: 4242",
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Stream != original.Stream || decoded.Text != original.Text || !decoded.Time.Equal(original.Time) {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := map[string]any{"b": 2, "a": 1, "c": "three"}
	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(record)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding is not deterministic")
		}
	}
}

func TestStreamSequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		if err := encoder.Encode(sampleRecord{Stream: "logs", Text: text}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	var got []string
	for {
		var record sampleRecord
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got = append(got, record.Text)
	}
	if strings.Join(got, ",") != strings.Join(texts, ",") {
		t.Errorf("decoded %v, want %v", got, texts)
	}
}

func TestTimeEncodesAsRFC3339Tag(t *testing.T) {
	data, err := Marshal(sampleRecord{Time: time.Date(2022, 12, 9, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `0("2022-12-09T00:00:00Z")`) {
		t.Errorf("diagnostic %s does not contain tag-0 time", diagnostic)
	}
}

func TestDiagnoseSequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, text := range []string{"first", "second"} {
		if err := encoder.Encode(sampleRecord{Stream: "logs", Text: text}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	items, err := DiagnoseSequence(buffer.Bytes())
	if err != nil {
		t.Fatalf("DiagnoseSequence: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %q, want 2", items)
	}
	if !strings.Contains(items[0], `"first"`) || !strings.Contains(items[1], `"second"`) {
		t.Errorf("items = %q", items)
	}

	truncated := buffer.Bytes()[:buffer.Len()-2]
	if _, err := DiagnoseSequence(truncated); err == nil {
		t.Error("DiagnoseSequence accepted a truncated sequence")
	}
}
