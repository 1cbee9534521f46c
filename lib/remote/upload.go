// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/sftp"
	"github.com/zeebo/blake3"
)

// UploadResult describes a completed upload.
type UploadResult struct {
	// Path is the remote path written, relative to the login
	// directory unless the destination was absolute.
	Path string

	// Bytes is the number of bytes copied.
	Bytes int64

	// Digest is the BLAKE3-256 digest of the copied content.
	Digest [32]byte
}

// DigestHex returns Digest as lowercase hex.
func (r UploadResult) DigestHex() string {
	return hex.EncodeToString(r.Digest[:])
}

// Upload copies the local file source to destination on the remote
// host. A partially written remote file is left in place when the copy
// fails or ctx is cancelled.
func (c *Conn) Upload(ctx context.Context, source, destination string) (UploadResult, error) {
	client, err := c.sftpClient()
	if err != nil {
		return UploadResult{}, fmt.Errorf("opening sftp: %w", err)
	}

	local, err := os.Open(source)
	if err != nil {
		return UploadResult{}, err
	}
	defer local.Close()

	remotePath, err := resolveDestination(client, source, destination)
	if err != nil {
		return UploadResult{}, err
	}

	remote, err := client.Create(remotePath)
	if err != nil {
		return UploadResult{}, fmt.Errorf("creating %s: %w", remotePath, err)
	}

	hasher := blake3.New()
	written, copyErr := io.Copy(io.MultiWriter(remote, hasher), &contextReader{ctx: ctx, reader: local})
	closeErr := remote.Close()
	if copyErr != nil {
		return UploadResult{}, copyErr
	}
	if closeErr != nil {
		return UploadResult{}, fmt.Errorf("closing %s: %w", remotePath, closeErr)
	}

	result := UploadResult{Path: remotePath, Bytes: written}
	copy(result.Digest[:], hasher.Sum(nil))
	c.logger.Debug("uploaded",
		"host", c.address,
		"source", source,
		"path", remotePath,
		"bytes", written,
		"blake3", result.DigestHex(),
	)
	return result, nil
}

// resolveDestination maps an scp-style destination to a path the SFTP
// server understands, creating a trailing-slash directory if needed.
func resolveDestination(client *sftp.Client, source, destination string) (string, error) {
	base := filepath.Base(source)
	destination = strings.TrimPrefix(destination, "~/")
	if destination == "~" {
		destination = ""
	}

	if destination == "" {
		return base, nil
	}
	if strings.HasSuffix(destination, "/") {
		if err := client.MkdirAll(strings.TrimSuffix(destination, "/")); err != nil {
			return "", fmt.Errorf("creating %s: %w", destination, err)
		}
		return path.Join(destination, base), nil
	}
	if info, err := client.Stat(destination); err == nil && info.IsDir() {
		return path.Join(destination, base), nil
	}
	return destination, nil
}

// contextReader stops a copy between reads once ctx is done.
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (r *contextReader) Read(buffer []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.reader.Read(buffer)
}
