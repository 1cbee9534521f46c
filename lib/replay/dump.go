// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// OpenDump opens a log dump for reading, decompressing by extension:
// .gz (gzip), .zst (zstandard), .lz4 (LZ4 frame). Any other extension
// is read as is. Closing the result closes the file.
func OpenDump(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		reader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("opening gzip dump %s: %w", path, err)
		}
		return &dumpReader{Reader: reader, closers: []io.Closer{reader, file}}, nil
	case ".zst":
		decoder, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("opening zstd dump %s: %w", path, err)
		}
		readCloser := decoder.IOReadCloser()
		return &dumpReader{Reader: readCloser, closers: []io.Closer{readCloser, file}}, nil
	case ".lz4":
		return &dumpReader{Reader: lz4.NewReader(file), closers: []io.Closer{file}}, nil
	default:
		return file, nil
	}
}

// dumpReader closes a decompressor and its underlying file together.
type dumpReader struct {
	io.Reader
	closers []io.Closer
}

func (d *dumpReader) Close() error {
	var errs []error
	for _, closer := range d.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// ParseFile opens and parses the dump at path.
func ParseFile(ctx context.Context, path string) ([]json.RawMessage, error) {
	dump, err := OpenDump(path)
	if err != nil {
		return nil, err
	}
	defer dump.Close()
	return Parse(ctx, dump)
}
