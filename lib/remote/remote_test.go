// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/ecs-project/ecs/lib/testutil"
)

func newTestDialer(t *testing.T, config Config) *Dialer {
	t.Helper()
	dialer, err := NewDialer(config)
	require.NoError(t, err)
	return dialer
}

func dialTestServer(t *testing.T, server *testServer) *Conn {
	t.Helper()
	conn, err := newTestDialer(t, Config{}).Dial(context.Background(), server.address, testUser, testPassword)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ls", "'ls'"},
		{"", "''"},
		{"echo it's", `'echo it'\''s'`},
		{"a; b && c $HOME", "'a; b && c $HOME'"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, ShellQuote(test.input), "ShellQuote(%q)", test.input)
	}
}

func TestWrapCommand(t *testing.T) {
	assert.Equal(t, `echo $$; exec bash -c 'python3 beacon.py'`, WrapCommand("python3 beacon.py"))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "10.0.0.5:22", Address("10.0.0.5"))
	assert.Equal(t, "10.0.0.5:2222", Address("10.0.0.5:2222"))
	assert.Equal(t, "[fe80::1]:22", Address("fe80::1"))
}

func TestDialRejectsBadPassword(t *testing.T) {
	server := startTestServer(t)
	_, err := newTestDialer(t, Config{}).Dial(context.Background(), server.address, testUser, "wrong")
	require.Error(t, err)
}

func TestDialRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	listener.Close()

	dialer := newTestDialer(t, Config{ConnectTimeout: 500 * time.Millisecond})
	_, err = dialer.Dial(context.Background(), address, testUser, testPassword)
	require.Error(t, err)
}

func TestDialHandshakeTimeout(t *testing.T) {
	address := silentListener(t)
	dialer := newTestDialer(t, Config{ConnectTimeout: 200 * time.Millisecond})

	start := time.Now() //nolint:realclock // measuring a real network timeout
	_, err := dialer.Dial(context.Background(), address, testUser, testPassword)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second) //nolint:realclock // measuring a real network timeout
}

func TestDialCancelledContext(t *testing.T) {
	address := silentListener(t)
	dialer := newTestDialer(t, Config{ConnectTimeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond) //nolint:realclock // let the handshake start
		cancel()
	}()
	start := time.Now() //nolint:realclock // measuring a real network timeout
	_, err := dialer.Dial(ctx, address, testUser, testPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second) //nolint:realclock // measuring a real network timeout
}

func TestDialKnownHosts(t *testing.T) {
	server := startTestServer(t)

	line := knownhosts.Line([]string{knownhosts.Normalize(server.address)}, server.hostKey)
	path := testutil.WriteFile(t, t.TempDir(), "known_hosts", line+"\n")
	conn, err := newTestDialer(t, Config{KnownHosts: path}).Dial(context.Background(), server.address, testUser, testPassword)
	require.NoError(t, err)
	conn.Close()

	other := startTestServer(t)
	_, err = newTestDialer(t, Config{KnownHosts: path}).Dial(context.Background(), other.address, testUser, testPassword)
	require.Error(t, err, "host missing from known_hosts must be rejected")
}

func TestNewDialerMissingKnownHosts(t *testing.T) {
	_, err := NewDialer(Config{KnownHosts: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}

func TestUploadDestinations(t *testing.T) {
	server := startTestServer(t)
	conn := dialTestServer(t, server)
	require.NoError(t, os.Mkdir(filepath.Join(server.dir, "existing"), 0o755))

	content := "#!/bin/sh\necho beacon\n"
	source := testutil.WriteFile(t, t.TempDir(), "beacon.sh", content)
	want := blake3.Sum256([]byte(content))

	tests := []struct {
		destination string
		wantPath    string
	}{
		{"~/", "beacon.sh"},
		{"", "beacon.sh"},
		{"~/staging/", "staging/beacon.sh"},
		{"~/existing", "existing/beacon.sh"},
		{"~/renamed.sh", "renamed.sh"},
	}
	for _, test := range tests {
		t.Run(test.destination, func(t *testing.T) {
			result, err := conn.Upload(context.Background(), source, test.destination)
			require.NoError(t, err)
			assert.Equal(t, test.wantPath, result.Path)
			assert.Equal(t, int64(len(content)), result.Bytes)
			assert.Equal(t, want, result.Digest)
			assert.Len(t, result.DigestHex(), 64)

			written, err := os.ReadFile(filepath.Join(server.dir, filepath.FromSlash(test.wantPath)))
			require.NoError(t, err)
			assert.Equal(t, content, string(written))
		})
	}
}

func TestUploadMissingSource(t *testing.T) {
	server := startTestServer(t)
	conn := dialTestServer(t, server)
	_, err := conn.Upload(context.Background(), filepath.Join(t.TempDir(), "absent"), "~/")
	require.Error(t, err)
}

func TestUploadCancelled(t *testing.T) {
	server := startTestServer(t)
	conn := dialTestServer(t, server)
	source := testutil.WriteFile(t, t.TempDir(), "payload.bin", strings.Repeat("x", 4096))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := conn.Upload(ctx, source, "~/")
	require.ErrorIs(t, err, context.Canceled)
}

var pidLine = regexp.MustCompile(`^[0-9]+$`)

func collectLines(t *testing.T, process *Process) []string {
	t.Helper()
	var lines []string
	timeout := time.After(10 * time.Second) //nolint:realclock // test safety timeout
	for {
		select {
		case line, ok := <-process.Lines():
			if !ok {
				return lines
			}
			lines = append(lines, line)
		case <-timeout:
			t.Fatalf("output did not finish; got %q", lines)
		}
	}
}

func TestStartReportsPIDThenOutput(t *testing.T) {
	requireBash(t)
	server := startTestServer(t)
	conn := dialTestServer(t, server)

	process, err := conn.Start(context.Background(), `echo out; echo err 1>&2; printf "it's\n"`)
	require.NoError(t, err)

	lines := collectLines(t, process)
	require.NoError(t, process.Wait())
	require.Len(t, lines, 4, "lines: %q", lines)
	assert.Regexp(t, pidLine, lines[0])
	assert.ElementsMatch(t, []string{"out", "err", "it's"}, lines[1:])
}

func TestStartExitStatus(t *testing.T) {
	requireBash(t)
	server := startTestServer(t)
	conn := dialTestServer(t, server)

	process, err := conn.Start(context.Background(), "exit 3")
	require.NoError(t, err)
	collectLines(t, process)

	err = process.Wait()
	var exitErr *ssh.ExitError
	require.True(t, errors.As(err, &exitErr), "Wait error = %v", err)
	assert.Equal(t, 3, exitErr.ExitStatus())
}

func TestStartCancelStopsStream(t *testing.T) {
	requireBash(t)
	server := startTestServer(t)
	conn := dialTestServer(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	process, err := conn.Start(ctx, "echo started; sleep 30")
	require.NoError(t, err)

	pid := testutil.RequireReceive(t, process.Lines(), 10*time.Second, "waiting for PID")
	assert.Regexp(t, pidLine, pid)
	started := testutil.RequireReceive(t, process.Lines(), 10*time.Second, "waiting for output")
	assert.Equal(t, "started", started)

	cancel()
	testutil.RequireClosed(t, process.Done(), 10*time.Second, "process did not stop after cancel")
	assert.ErrorIs(t, process.Wait(), context.Canceled)
	_, open := <-process.Lines()
	assert.False(t, open)
}

func TestCloseWithoutReader(t *testing.T) {
	requireBash(t)
	server := startTestServer(t)
	conn := dialTestServer(t, server)

	process, err := conn.Start(context.Background(), "yes")
	require.NoError(t, err)
	require.NoError(t, process.Close())
	require.NoError(t, process.Close())
	testutil.RequireClosed(t, process.Done(), 10*time.Second, "process did not stop after Close")
}
