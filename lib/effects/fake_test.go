// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package effects

import (
	"context"
	"errors"
	"sync"

	"github.com/ecs-project/ecs/lib/remote"
	"github.com/ecs-project/ecs/lib/scenario"
)

// fakeDialer records every transport call. Commands are scripted per
// command string; unscripted commands print a PID and exit.
type fakeDialer struct {
	mu       sync.Mutex
	dials    []scenario.Target
	uploads  []fakeUpload
	commands []fakeCommand

	dialErr   map[string]error
	uploadErr map[string]error
	scripts   map[string]fakeScript

	// started receives the command string each time a process starts.
	started chan string
}

type fakeUpload struct {
	Host        string
	Username    string
	Password    string
	Source      string
	Destination string
}

type fakeCommand struct {
	Host    string
	Command string
}

type fakeScript struct {
	Lines []string

	// Hold keeps the process running after Lines until it is closed.
	Hold bool
	Err  error
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		dialErr:   make(map[string]error),
		uploadErr: make(map[string]error),
		scripts:   make(map[string]fakeScript),
		started:   make(chan string, 64),
	}
}

func (d *fakeDialer) Dial(ctx context.Context, target scenario.Target) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, target)
	if err := d.dialErr[target.Host]; err != nil {
		return nil, err
	}
	return &fakeConn{dialer: d, target: target}, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *fakeDialer) snapshot() ([]scenario.Target, []fakeUpload, []fakeCommand) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]scenario.Target(nil), d.dials...),
		append([]fakeUpload(nil), d.uploads...),
		append([]fakeCommand(nil), d.commands...)
}

type fakeConn struct {
	dialer *fakeDialer
	target scenario.Target
}

func (c *fakeConn) Upload(ctx context.Context, source, destination string) (remote.UploadResult, error) {
	d := c.dialer
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploads = append(d.uploads, fakeUpload{
		Host:        c.target.Host,
		Username:    c.target.Username,
		Password:    c.target.Password,
		Source:      source,
		Destination: destination,
	})
	if err := d.uploadErr[c.target.Host]; err != nil {
		return remote.UploadResult{}, err
	}
	return remote.UploadResult{Path: destination, Bytes: 12}, nil
}

func (c *fakeConn) Start(ctx context.Context, command string) (Process, error) {
	d := c.dialer
	d.mu.Lock()
	d.commands = append(d.commands, fakeCommand{Host: c.target.Host, Command: command})
	script, ok := d.scripts[command]
	d.mu.Unlock()
	if !ok {
		script = fakeScript{Lines: []string{"1000"}}
	}
	d.started <- command
	return newFakeProcess(ctx, script), nil
}

func (c *fakeConn) Close() error { return nil }

// fakeProcess delivers scripted lines, then exits or holds until
// closed or its context ends.
type fakeProcess struct {
	lines     chan string
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

func newFakeProcess(ctx context.Context, script fakeScript) *fakeProcess {
	p := &fakeProcess{
		lines:  make(chan string),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		defer close(p.lines)
		for _, line := range script.Lines {
			select {
			case p.lines <- line:
			case <-p.closed:
				p.err = errors.New("closed")
				return
			case <-ctx.Done():
				p.err = ctx.Err()
				return
			}
		}
		if script.Hold {
			select {
			case <-p.closed:
				p.err = errors.New("closed")
			case <-ctx.Done():
				p.err = ctx.Err()
			}
			return
		}
		p.err = script.Err
	}()
	return p
}

func (p *fakeProcess) Lines() <-chan string { return p.lines }

func (p *fakeProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *fakeProcess) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}
