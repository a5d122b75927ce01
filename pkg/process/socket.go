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

package process

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// Default readiness parameters, shared by both launch paths.
const (
	DefaultSocketTimeout = 5 * time.Second
	DefaultPollInterval  = 50 * time.Millisecond
)

// WaitForSocket polls path until it exists and accepts a unix stream
// connection, or timeout elapses. Existence alone is not readiness; the
// listener may not be bound yet, so every successful stat is followed
// by a connect attempt.
func WaitForSocket(ctx context.Context, path string, timeout, pollInterval time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultSocketTimeout
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	deadline := time.Now().Add(timeout)
	for {
		if socketReady(path, pollInterval) {
			return nil
		}
		if time.Now().After(deadline) {
			return &errors.SocketTimeoutError{Path: path, Timeout: timeout}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func socketReady(path string, dialTimeout time.Duration) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
