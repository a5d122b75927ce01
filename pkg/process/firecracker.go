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
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// FirecrackerConfig describes a direct firecracker launch. Construct
// with NewFirecrackerConfig, adjust fields, then call Spawn; the value
// is consumed per call and never mutated.
type FirecrackerConfig struct {
	// Binary is the path to the firecracker executable.
	Binary string

	// SocketPath is where firecracker creates its API socket.
	SocketPath string

	// ID is the optional microVM identifier passed as --id.
	ID string

	// SeccompFilter is a path to a custom BPF seccomp filter.
	// Mutually exclusive with NoSeccomp in firecracker itself.
	SeccompFilter string

	// NoSeccomp disables seccomp filtering entirely.
	NoSeccomp bool

	// BootTimer enables the guest boot timer device.
	BootTimer bool

	// LogPath, LogLevel, ShowLevel, and ShowLogOrigin configure
	// firecracker's own logger.
	LogPath       string
	LogLevel      string
	ShowLevel     bool
	ShowLogOrigin bool

	// MetricsPath is where firecracker writes its metrics FIFO/file.
	MetricsPath string

	// HTTPMaxPayloadSize caps API request bodies in bytes (0 = default).
	HTTPMaxPayloadSize int64

	// MMDSSizeLimit caps the MMDS data store in bytes (0 = default).
	MMDSSizeLimit int64

	// EnablePCI enables the PCIe root device.
	EnablePCI bool

	// RemoveStaleSocket removes a pre-existing file at SocketPath
	// before spawning. Absence is not an error.
	RemoveStaleSocket bool

	// SocketTimeout and PollInterval bound the readiness wait.
	SocketTimeout time.Duration
	PollInterval  time.Duration

	// Stdout and Stderr receive the child's output. Nil routes to
	// /dev/null.
	Stdout *os.File
	Stderr *os.File

	// Logger receives launch diagnostics. Nil disables them.
	Logger *slog.Logger
}

// NewFirecrackerConfig returns a FirecrackerConfig with defaults for a
// direct launch of binary against socketPath.
func NewFirecrackerConfig(binary, socketPath string) FirecrackerConfig {
	return FirecrackerConfig{
		Binary:            binary,
		SocketPath:        socketPath,
		RemoveStaleSocket: true,
		SocketTimeout:     DefaultSocketTimeout,
		PollInterval:      DefaultPollInterval,
	}
}

// Args builds the firecracker argument vector. The order is stable so
// launches are reproducible and testable.
func (c FirecrackerConfig) Args() []string {
	args := []string{"--api-sock", c.SocketPath}

	if c.ID != "" {
		args = append(args, "--id", c.ID)
	}
	if c.SeccompFilter != "" {
		args = append(args, "--seccomp-filter", c.SeccompFilter)
	}
	if c.NoSeccomp {
		args = append(args, "--no-seccomp")
	}
	if c.BootTimer {
		args = append(args, "--boot-timer")
	}
	if c.LogPath != "" {
		args = append(args, "--log-path", c.LogPath)
	}
	if c.LogLevel != "" {
		args = append(args, "--level", c.LogLevel)
	}
	if c.ShowLevel {
		args = append(args, "--show-level")
	}
	if c.ShowLogOrigin {
		args = append(args, "--show-log-origin")
	}
	if c.MetricsPath != "" {
		args = append(args, "--metrics-path", c.MetricsPath)
	}
	if c.HTTPMaxPayloadSize > 0 {
		args = append(args, "--http-api-max-payload-size", strconv.FormatInt(c.HTTPMaxPayloadSize, 10))
	}
	if c.MMDSSizeLimit > 0 {
		args = append(args, "--mmds-size-limit", strconv.FormatInt(c.MMDSSizeLimit, 10))
	}
	if c.EnablePCI {
		args = append(args, "--enable-pci")
	}

	return args
}

func (c FirecrackerConfig) validate() error {
	if c.Binary == "" {
		return &errors.MissingConfigError{Field: "Binary"}
	}
	if c.SocketPath == "" {
		return &errors.MissingConfigError{Field: "SocketPath"}
	}
	return nil
}

// Spawn starts firecracker and blocks until its API socket accepts
// connections. When the readiness wait times out but the child has
// already exited, the exit status is reported instead of the timeout:
// a crashed process will never produce a socket.
func (c FirecrackerConfig) Spawn(ctx context.Context) (*Process, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.RemoveStaleSocket {
		if _, err := os.Stat(c.SocketPath); err == nil {
			os.Remove(c.SocketPath) //nolint:errcheck
		}
	}

	cmd := exec.Command(c.Binary, c.Args()...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if c.Logger != nil {
		c.Logger.Info("starting firecracker",
			"binary", c.Binary,
			"socket", c.SocketPath,
			"vm_id", c.ID)
	}

	if err := cmd.Start(); err != nil {
		return nil, &errors.SpawnError{Binary: c.Binary, Cause: err}
	}

	proc := newManagedProcess(cmd, c.SocketPath, c.Logger)

	if err := WaitForSocket(ctx, c.SocketPath, c.SocketTimeout, c.PollInterval); err != nil {
		if state, exited := proc.tryWait(); exited {
			proc.Close()
			return nil, &errors.ProcessExitedError{Status: state}
		}
		proc.Close()
		return nil, err
	}

	if c.Logger != nil {
		c.Logger.Info("firecracker ready", "pid", proc.PID(), "socket", c.SocketPath)
	}
	return proc, nil
}
