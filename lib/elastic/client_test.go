// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func profileFor(t *testing.T, server *httptest.Server, secure bool) Profile {
	t.Helper()
	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, portText, err := net.SplitHostPort(parsed.Host)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portText)
	return Profile{IP: host, Port: port, Username: "elastic", Password: "changeme", Index: "test", Secure: secure}
}

func TestBulkBody(t *testing.T) {
	body, err := BulkBody(`we"ird`, []json.RawMessage{
		json.RawMessage(`{"a": 1}`),
		json.RawMessage("{\n  \"b\": \"two\"\n}"),
	})
	if err != nil {
		t.Fatalf("BulkBody: %v", err)
	}
	want := `{"index":{"_index":"we\"ird"}}` + "\n" +
		`{"a":1}` + "\n" +
		`{"index":{"_index":"we\"ird"}}` + "\n" +
		`{"b":"two"}` + "\n"
	if string(body) != want {
		t.Errorf("BulkBody =\n%s\nwant\n%s", body, want)
	}

	if _, err := BulkBody("i", []json.RawMessage{json.RawMessage(`{"broken"`)}); err == nil {
		t.Error("BulkBody should reject invalid JSON")
	}
}

func TestClientBulk(t *testing.T) {
	type captured struct {
		method, path, query, contentType, user, password, body string
	}
	requests := make(chan captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, _ := r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		requests <- captured{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Content-Type"), user, password, string(body)}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"errors": false}`)
	}))
	defer server.Close()

	client := NewClient(profileFor(t, server, false), ClientOptions{})
	response, err := client.Bulk(context.Background(), "test", []json.RawMessage{json.RawMessage(`{"x":1}`)})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if !response.OK() || string(response.Body) != `{"errors": false}` {
		t.Errorf("response = %d %q", response.StatusCode, response.Body)
	}

	got := <-requests
	want := captured{
		method:      http.MethodPost,
		path:        "/_bulk/",
		query:       "pretty",
		contentType: "application/json",
		user:        "elastic",
		password:    "changeme",
		body:        `{"index":{"_index":"test"}}` + "\n" + `{"x":1}` + "\n",
	}
	if got != want {
		t.Errorf("request = %+v, want %+v", got, want)
	}
}

func TestClientDeleteIndexOverTLS(t *testing.T) {
	var method, path, query string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, query = r.Method, r.URL.Path, r.URL.RawQuery
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"index_not_found_exception"}`)
	}))
	defer server.Close()

	client := NewClient(profileFor(t, server, true), ClientOptions{})
	response, err := client.DeleteIndex(context.Background(), "wineventlog")
	if err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
	if response.OK() || response.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", response.StatusCode)
	}
	if method != http.MethodDelete || path != "/wineventlog" || query != "pretty" {
		t.Errorf("request = %s %s?%s", method, path, query)
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(profileFor(t, server, false), ClientOptions{Timeout: 50 * time.Millisecond})
	if _, err := client.DeleteIndex(context.Background(), "slow"); err == nil {
		t.Fatal("DeleteIndex should time out")
	}
}

func TestClientBulkOutlivesRequestTimeout(t *testing.T) {
	var received atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received.Store(int64(len(body)))
		time.Sleep(200 * time.Millisecond) //nolint:realclock // backend indexing slower than the request timeout
		io.WriteString(w, `{"errors": false}`)
	}))
	defer server.Close()

	client := NewClient(profileFor(t, server, false), ClientOptions{Timeout: 50 * time.Millisecond})
	response, err := client.Bulk(context.Background(), "test", []json.RawMessage{json.RawMessage(`{"x":1}`)})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if !response.OK() || received.Load() == 0 {
		t.Errorf("status = %d, backend received %d bytes", response.StatusCode, received.Load())
	}
}

func TestClientBulkTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(profileFor(t, server, false), ClientOptions{BulkTimeout: 50 * time.Millisecond})
	if _, err := client.Bulk(context.Background(), "test", []json.RawMessage{json.RawMessage(`{}`)}); err == nil {
		t.Fatal("Bulk should time out")
	}
}

func TestClientCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient(profileFor(t, server, false), ClientOptions{})
	if _, err := client.Bulk(ctx, "test", []json.RawMessage{json.RawMessage(`{}`)}); err == nil {
		t.Fatal("Bulk with a cancelled context should fail")
	}
}

func TestParseBulkSummary(t *testing.T) {
	body := []byte(`{
		"took": 3,
		"errors": true,
		"items": [
			{"index": {"_index": "zeek", "status": 201}},
			{"index": {"_index": "zeek", "status": 400, "error": {"type": "mapper_parsing_exception"}}},
			{"index": {"_index": "zeek", "status": 429, "error": {"type": "es_rejected_execution_exception"}}}
		]
	}`)
	summary, err := ParseBulkSummary(body)
	if err != nil {
		t.Fatalf("ParseBulkSummary: %v", err)
	}
	if !summary.Errors {
		t.Error("Errors = false, want true")
	}
	if got := summary.Rejected(); got != 2 {
		t.Errorf("Rejected = %d, want 2", got)
	}

	if _, err := ParseBulkSummary([]byte("<html>")); err == nil {
		t.Error("ParseBulkSummary accepted a non-JSON body")
	}
}

func TestClientKeepsErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"type":"index_not_found_exception"},"status":404}`)
	}))
	defer server.Close()

	client := NewClient(profileFor(t, server, false), ClientOptions{})
	response, err := client.DeleteIndex(context.Background(), "missing")
	if err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
	if response.OK() || response.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", response.StatusCode)
	}
	if string(response.Body) != `{"error":{"type":"index_not_found_exception"},"status":404}` {
		t.Errorf("body = %q", response.Body)
	}
}
