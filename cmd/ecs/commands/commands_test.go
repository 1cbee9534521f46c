// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/testutil"
)

// execute runs the command tree with args and returns what it wrote
// to stdout. The operator config is always the built-in default.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ECS_CONFIG", "")
	var output bytes.Buffer
	err := rootCommand(&output).Execute(t.Context(), args)
	return output.String(), err
}

// exitCode returns the code of an ExitError, or -1.
func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

type backendRequest struct {
	method string
	path   string
	body   string
}

// testBackend is an httptest server standing in for the analytics
// backend. It records every request in arrival order.
type testBackend struct {
	server *httptest.Server
	status int

	mu       sync.Mutex
	requests []backendRequest
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	backend := &testBackend{status: http.StatusOK}
	backend.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		backend.mu.Lock()
		backend.requests = append(backend.requests, backendRequest{method: r.Method, path: r.URL.Path, body: string(body)})
		status := backend.status
		backend.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, `{"acknowledged":true}`)
	}))
	t.Cleanup(backend.server.Close)
	return backend
}

func (b *testBackend) Requests() []backendRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backendRequest(nil), b.requests...)
}

func (b *testBackend) hostPort() (string, string) {
	parsed, _ := url.Parse(b.server.URL)
	host, port, _ := net.SplitHostPort(parsed.Host)
	return host, port
}

// profile writes an [ELK] profile named name into dir pointing at the
// backend.
func (b *testBackend) profile(t *testing.T, dir, name, index string) string {
	t.Helper()
	host, port := b.hostPort()
	return testutil.WriteFile(t, dir, name, fmt.Sprintf(
		"[ELK]\nip = %s\nport = %s\ntime = no_update\nusername = elastic\npassword = changeme\nindex = %s\nsecurity = False\ndelay = False\n",
		host, port, index))
}

const dumpContent = `{"message":"first","@timestamp":"2022-12-09T19:14:25.412Z"}
{"message":"second","@timestamp":"2022-12-09T19:14:26.412Z"}
`

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(output, "ecs ") || !strings.Contains(output, "Go:") {
		t.Errorf("output = %q", output)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	_, err := execute(t, "valdate")
	if err == nil || !strings.Contains(err.Error(), `did you mean "validate"`) {
		t.Errorf("error = %v, want a suggestion for validate", err)
	}
}
