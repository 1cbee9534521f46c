// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package effects

import (
	"context"

	"github.com/ecs-project/ecs/lib/remote"
	"github.com/ecs-project/ecs/lib/scenario"
)

// Dialer opens a connection to a target host.
type Dialer interface {
	Dial(ctx context.Context, target scenario.Target) (Conn, error)
}

// Conn is a live connection to one target host.
type Conn interface {
	Upload(ctx context.Context, source, destination string) (remote.UploadResult, error)
	Start(ctx context.Context, command string) (Process, error)
	Close() error
}

// Process is a running remote command. The first line on Lines is the
// remote PID. Lines is closed when the command exits or the process is
// closed.
type Process interface {
	Lines() <-chan string
	Wait() error
	Close() error
}

// SSHDialer returns a Dialer backed by SSH.
func SSHDialer(dialer *remote.Dialer) Dialer {
	return sshDialer{dialer: dialer}
}

type sshDialer struct {
	dialer *remote.Dialer
}

func (d sshDialer) Dial(ctx context.Context, target scenario.Target) (Conn, error) {
	conn, err := d.dialer.Dial(ctx, target.Host, target.Username, target.Password)
	if err != nil {
		return nil, err
	}
	return sshConn{Conn: conn}, nil
}

type sshConn struct {
	*remote.Conn
}

func (c sshConn) Start(ctx context.Context, command string) (Process, error) {
	process, err := c.Conn.Start(ctx, command)
	if err != nil {
		return nil, err
	}
	return process, nil
}
