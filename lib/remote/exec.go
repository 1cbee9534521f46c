// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/ecs-project/ecs/lib/netutil"
)

// maxLineLength caps a single output line. Longer lines end the stream
// with bufio.ErrTooLong reported by Wait.
const maxLineLength = 1 << 20

// ShellQuote quotes s for a POSIX shell as a single word.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// WrapCommand returns the remote command line that reports the PID of
// command before running it. The PID survives the exec, so it is the
// PID of the process command runs as.
func WrapCommand(command string) string {
	return "echo $$; exec bash -c " + ShellQuote(command)
}

// Process is a command running on a remote host.
type Process struct {
	session *ssh.Session
	lines   chan string
	done    chan struct{}
	stop    func() bool

	closeOnce sync.Once
	closed    chan struct{}

	// err is written before done closes.
	err error
}

// Start runs command on the remote host under [WrapCommand]. The first
// line delivered by Lines is the remote PID. Cancelling ctx closes the
// session.
func (c *Conn) Start(ctx context.Context, command string) (*Process, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	reader, writer := io.Pipe()
	session.Stdout = writer
	session.Stderr = writer

	if err := session.Start(WrapCommand(command)); err != nil {
		session.Close()
		return nil, fmt.Errorf("starting %q: %w", command, err)
	}

	process := &Process{
		session: session,
		lines:   make(chan string),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	process.stop = context.AfterFunc(ctx, func() { process.Close() })

	waitResult := make(chan error, 1)
	go func() {
		err := session.Wait()
		writer.Close()
		waitResult <- err
	}()

	go func() {
		scanErr := process.scan(reader)
		reader.CloseWithError(io.ErrClosedPipe)
		waitErr := <-waitResult
		process.stop()
		process.err = process.classify(ctx, waitErr, scanErr)
		close(process.done)
	}()

	c.logger.Debug("remote command started", "host", c.address, "command", command)
	return process, nil
}

// scan delivers lines until the stream ends or the process is closed.
func (p *Process) scan(reader io.Reader) error {
	defer close(p.lines)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		select {
		case p.lines <- line:
		case <-p.closed:
			return nil
		}
	}
	return scanner.Err()
}

func (p *Process) classify(ctx context.Context, waitErr, scanErr error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if scanErr != nil {
		return scanErr
	}
	var exitErr *ssh.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr
	}
	var missing *ssh.ExitMissingError
	if errors.As(waitErr, &missing) {
		// Closed locally without ctx: treat as a normal stop.
		return nil
	}
	if waitErr != nil && netutil.IsExpectedCloseError(waitErr) {
		return nil
	}
	return waitErr
}

// Lines returns the merged stdout and stderr stream. It is closed
// when the remote command exits or the process is closed.
func (p *Process) Lines() <-chan string {
	return p.lines
}

// Done is closed once the process has exited and Lines is closed.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits. It returns nil on a zero exit
// status, an *ssh.ExitError on a non-zero one, and the context error
// when the process was stopped by cancellation.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Close closes the session. The remote command receives SIGHUP from
// the server once its channel goes away. Close is idempotent.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		err = p.session.Close()
		if netutil.IsExpectedCloseError(err) {
			err = nil
		}
	})
	return err
}
