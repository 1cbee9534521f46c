// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package elastic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ecs-project/ecs/lib/netutil"
)

// DefaultTimeout bounds each non-bulk request when ClientOptions does
// not set one.
const DefaultTimeout = 5 * time.Second

// ClientOptions configures a Client.
type ClientOptions struct {
	// Timeout bounds index deletions. Zero means DefaultTimeout.
	Timeout time.Duration

	// BulkTimeout bounds bulk writes. Zero leaves them bounded only by
	// the caller's context.
	BulkTimeout time.Duration

	// Transport overrides the HTTP transport. Nil means a transport
	// that skips certificate verification.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Client sends bulk writes and index deletions to one backend.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *slog.Logger

	timeout     time.Duration
	bulkTimeout time.Duration
}

// Response is a backend reply: the status and the (bounded) body,
// reported verbatim to the operator.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient creates a Client for profile.
func NewClient(profile Profile, options ClientOptions) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := options.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // lab backends use self-signed certificates
			},
		}
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:  profile.BaseURL(),
		username: profile.Username,
		password: profile.Password,
		http:     &http.Client{Transport: transport},
		logger:   logger,

		timeout:     timeout,
		bulkTimeout: max(options.BulkTimeout, 0),
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Bulk writes events into index with one bulk request.
func (c *Client) Bulk(ctx context.Context, index string, events []json.RawMessage) (Response, error) {
	body, err := BulkBody(index, events)
	if err != nil {
		return Response{}, err
	}
	c.logger.Debug("bulk request", "index", index, "events", len(events), "bytes", len(body))
	return c.do(ctx, c.bulkTimeout, http.MethodPost, c.baseURL+"/_bulk/?pretty", bytes.NewReader(body))
}

// DeleteIndex deletes index and everything in it.
func (c *Client) DeleteIndex(ctx context.Context, index string) (Response, error) {
	c.logger.Debug("delete index", "index", index)
	return c.do(ctx, c.timeout, http.MethodDelete, c.baseURL+"/"+url.PathEscape(index)+"?pretty", nil)
}

// do sends one request. A positive timeout bounds the whole exchange,
// including reading the body; zero leaves it to ctx.
func (c *Client) do(ctx context.Context, timeout time.Duration, method, target string, body io.Reader) (Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	request, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("building %s request: %w", method, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.SetBasicAuth(c.username, c.password)

	response, err := c.http.Do(request)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		// The status is what matters; a truncated error body is still
		// worth showing.
		return Response{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       []byte(netutil.ErrorBody(response.Body)),
		}, nil
	}

	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading %s response: %w", method, err)
	}
	return Response{
		StatusCode: response.StatusCode,
		Status:     response.Status,
		Body:       data,
	}, nil
}

// BulkSummary is the part of a bulk reply that reports per-item
// failures. A bulk request succeeds as a whole even when the backend
// rejects some of its documents.
type BulkSummary struct {
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkItemResponse `json:"items"`
}

type bulkItemResponse struct {
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// Rejected returns the number of items carrying an error.
func (s BulkSummary) Rejected() int {
	rejected := 0
	for _, item := range s.Items {
		for _, result := range item {
			if len(result.Error) > 0 || result.Status >= 300 {
				rejected++
			}
		}
	}
	return rejected
}

// ParseBulkSummary decodes the body of a bulk reply.
func ParseBulkSummary(body []byte) (BulkSummary, error) {
	var summary BulkSummary
	if err := netutil.DecodeResponse(bytes.NewReader(body), &summary); err != nil {
		return BulkSummary{}, fmt.Errorf("decoding bulk reply: %w", err)
	}
	return summary, nil
}

// bulkAction is the index-action header preceding each document.
type bulkAction struct {
	Index struct {
		Index string `json:"_index"`
	} `json:"index"`
}

// BulkBody builds the NDJSON body of a bulk write: an index-action
// header before every event, every line newline-terminated.
func BulkBody(index string, events []json.RawMessage) ([]byte, error) {
	var action bulkAction
	action.Index.Index = index
	header, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("encoding bulk header: %w", err)
	}

	var buffer bytes.Buffer
	for position, event := range events {
		compact := bytes.NewBuffer(make([]byte, 0, len(event)))
		if err := json.Compact(compact, event); err != nil {
			return nil, fmt.Errorf("event %d is not valid JSON: %w", position+1, err)
		}
		buffer.Write(header)
		buffer.WriteByte('\n')
		buffer.Write(compact.Bytes())
		buffer.WriteByte('\n')
	}
	return buffer.Bytes(), nil
}
