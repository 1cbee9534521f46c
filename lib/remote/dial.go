// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultConnectTimeout bounds TCP connect plus SSH handshake.
const DefaultConnectTimeout = 2 * time.Second

// DefaultPort is used for hosts given without a port.
const DefaultPort = 22

// Config configures a Dialer.
type Config struct {
	// ConnectTimeout bounds each connection attempt. Zero means
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// KnownHosts is an OpenSSH known_hosts file used to verify host
	// keys. Empty accepts any host key.
	KnownHosts string

	Logger *slog.Logger
}

// Dialer opens SSH connections to effect targets.
type Dialer struct {
	timeout         time.Duration
	hostKeyCallback ssh.HostKeyCallback
	logger          *slog.Logger
}

// NewDialer creates a Dialer. It fails only when a configured
// known_hosts file cannot be read.
func NewDialer(config Config) (*Dialer, error) {
	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	callback := ssh.InsecureIgnoreHostKey() //nolint:gosec // lab targets are provisioned per experiment
	if config.KnownHosts != "" {
		verified, err := knownhosts.New(config.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts: %w", err)
		}
		callback = verified
	}

	return &Dialer{timeout: timeout, hostKeyCallback: callback, logger: logger}, nil
}

// Address returns host with DefaultPort appended when it has no port.
func Address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(DefaultPort))
}

// Dial connects and authenticates to host as username. The attempt is
// bounded by the connect timeout and abandoned when ctx is done.
func (d *Dialer) Dial(ctx context.Context, host, username, password string) (*Conn, error) {
	address := Address(host)
	config := &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: d.hostKeyCallback,
		Timeout:         d.timeout,
	}

	dialCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var netDialer net.Dialer
	raw, err := netDialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, err
	}

	// The handshake has no context parameter: bound it with a deadline
	// and tear the socket down if ctx ends first.
	raw.SetDeadline(time.Now().Add(d.timeout))
	stop := context.AfterFunc(dialCtx, func() { raw.Close() })
	clientConn, channels, requests, err := ssh.NewClientConn(raw, address, config)
	stopped := stop()
	if err != nil {
		raw.Close()
		if !stopped {
			return nil, fmt.Errorf("ssh handshake with %s: %w", address, dialCtx.Err())
		}
		return nil, err
	}
	if !stopped {
		clientConn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", address, dialCtx.Err())
	}
	raw.SetDeadline(time.Time{})

	d.logger.Debug("ssh connected", "host", address, "user", username)
	return &Conn{
		client:  ssh.NewClient(clientConn, channels, requests),
		address: address,
		user:    username,
		logger:  d.logger,
	}, nil
}

// Conn is an authenticated SSH connection to one target.
type Conn struct {
	client  *ssh.Client
	address string
	user    string
	logger  *slog.Logger

	sftpOnce sync.Once
	sftp     *sftp.Client
	sftpErr  error
}

// Address returns the host:port the connection is to.
func (c *Conn) Address() string {
	return c.address
}

// sftpClient opens the SFTP subsystem on first use.
func (c *Conn) sftpClient() (*sftp.Client, error) {
	c.sftpOnce.Do(func() {
		c.sftp, c.sftpErr = sftp.NewClient(c.client)
	})
	return c.sftp, c.sftpErr
}

// Close closes the SFTP subsystem, if open, and the connection.
func (c *Conn) Close() error {
	if c.sftp != nil {
		c.sftp.Close()
	}
	return c.client.Close()
}
