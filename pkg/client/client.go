// Copyright 2025 Arcbox Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package client is a minimal REST client for the Firecracker API
// served over a unix domain socket. It maps requests and responses
// one-to-one onto the API; all sequencing logic lives in pkg/vm.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

const userAgent = "firecracker-client"

// Client talks to one Firecracker instance via its API socket.
type Client struct {
	socketPath string
	httpClient *http.Client
}

// New creates a Client for the API socket at socketPath.
func New(socketPath string) *Client {
	dialer := &net.Dialer{}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socketPath)
		},
		// One VM, one socket; keep the pool tiny.
		MaxIdleConns:    2,
		IdleConnTimeout: 30 * time.Second,
	}
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: newLoggingTransport(transport),
			Timeout:   30 * time.Second,
		},
	}
}

// SocketPath returns the API socket path this client targets.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// fault is the error body Firecracker returns on 4xx/5xx.
type fault struct {
	FaultMessage string `json:"fault_message"`
}

// do issues one API request. body is JSON-encoded when non-nil; out is
// JSON-decoded from the response when non-nil. Non-2xx responses
// become APIError carrying the fault message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s request", method, path)
		}
		reqBody = bytes.NewReader(encoded)
	}

	// The host is ignored by the unix-socket dialer but required for a
	// well-formed URL.
	req, err := http.NewRequestWithContext(ctx, method, "http://localhost"+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "building %s %s request", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &errors.APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
		}
		var f fault
		if decodeErr := json.NewDecoder(resp.Body).Decode(&f); decodeErr == nil {
			apiErr.FaultMessage = f.FaultMessage
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

func pathWithID(format, id string) string {
	return fmt.Sprintf(format, id)
}
