// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

const (
	testUser     = "operator"
	testPassword = "hunter2"
)

// testServer is an in-process SSH server with an SFTP subsystem
// rooted at dir. Exec requests run through /bin/sh in dir.
type testServer struct {
	address string
	dir     string
	hostKey ssh.PublicKey

	listener net.Listener
	wg       sync.WaitGroup
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	_, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(private)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if meta.User() == testUser && string(password) == testPassword {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &testServer{
		address:  listener.Addr().String(),
		dir:      t.TempDir(),
		hostKey:  signer.PublicKey(),
		listener: listener,
	}
	server.wg.Add(1)
	go server.accept(config)
	t.Cleanup(func() {
		listener.Close()
		server.wg.Wait()
	})
	return server
}

func (s *testServer) accept(config *ssh.ServerConfig) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn, config)
		}()
	}
}

func (s *testServer) serveConn(conn net.Conn, config *ssh.ServerConfig) {
	serverConn, channels, requests, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	defer serverConn.Close()
	go ssh.DiscardRequests(requests)

	var sessions sync.WaitGroup
	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, channelRequests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		sessions.Add(1)
		go func() {
			defer sessions.Done()
			s.serveSession(channel, channelRequests)
		}()
	}
	sessions.Wait()
}

func (s *testServer) serveSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()
	for request := range requests {
		switch request.Type {
		case "subsystem":
			if payloadString(request.Payload) != "sftp" {
				request.Reply(false, nil)
				continue
			}
			request.Reply(true, nil)
			server, err := sftp.NewServer(channel, sftp.WithServerWorkingDirectory(s.dir))
			if err != nil {
				return
			}
			server.Serve()
			server.Close()
			return
		case "exec":
			request.Reply(true, nil)
			s.runExec(channel, requests, payloadString(request.Payload))
			return
		default:
			if request.WantReply {
				request.Reply(false, nil)
			}
		}
	}
}

// runExec runs command and reports its exit status. The process is
// killed once the client closes the channel.
func (s *testServer) runExec(channel ssh.Channel, requests <-chan *ssh.Request, command string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for request := range requests {
			if request.WantReply {
				request.Reply(false, nil)
			}
		}
		cancel()
	}()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = s.dir
	cmd.Stdout = channel
	cmd.Stderr = channel.Stderr()
	cmd.WaitDelay = 200 * time.Millisecond

	status := uint32(0)
	if err := cmd.Run(); err != nil {
		status = 255
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			status = uint32(exitErr.ExitCode())
		}
	}
	if ctx.Err() != nil {
		return
	}
	channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
}

// payloadString decodes the leading SSH string of a request payload.
func payloadString(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	length := binary.BigEndian.Uint32(payload)
	if int(length) > len(payload)-4 {
		return ""
	}
	return string(payload[4 : 4+length])
}

// silentListener accepts TCP connections and never speaks SSH.
func silentListener(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var held []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			held = append(held, conn)
			mu.Unlock()
			go io.Copy(io.Discard, conn)
		}
	}()
	t.Cleanup(func() {
		listener.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range held {
			conn.Close()
		}
	})
	return listener.Addr().String()
}

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}
