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
	"syscall"
)

// waitOutcome carries the result of the single cmd.Wait call made by
// the reaper goroutine.
type waitOutcome struct {
	state *os.ProcessState
	err   error
}

// Process is a handle to a running firecracker process (or, for
// daemonized jailer launches, to its socket only).
//
// A Process is owned by one logical caller at a time; its methods are
// not safe for concurrent use. Ownership is released either by
// Shutdown/Kill/Wait observing exit, by Detach, or by Close.
type Process struct {
	cmd        *exec.Cmd
	pid        int
	socketPath string

	// cleanupSocket is true while this handle owns removal of the
	// socket file. Cleared by Detach and by daemonized launches.
	cleanupSocket bool

	// waitCh receives the single Wait outcome from the reaper
	// goroutine. Buffered so the goroutine never blocks.
	waitCh chan waitOutcome

	// reaped holds the outcome once it has been received.
	reaped *waitOutcome

	logger *slog.Logger
}

// Detached is the reduced handle returned by Process.Detach. It
// carries identity only; the caller owns the OS process from then on.
type Detached struct {
	// PID of the process, or 0 when it was never known (daemonized
	// jailer launches).
	PID int

	// SocketPath is the Firecracker API socket.
	SocketPath string
}

// newManagedProcess wraps a started command and begins reaping it.
func newManagedProcess(cmd *exec.Cmd, socketPath string, logger *slog.Logger) *Process {
	p := &Process{
		cmd:           cmd,
		pid:           cmd.Process.Pid,
		socketPath:    socketPath,
		cleanupSocket: true,
		waitCh:        make(chan waitOutcome, 1),
		logger:        logger,
	}
	go func() {
		state, err := cmd.Process.Wait()
		p.waitCh <- waitOutcome{state: state, err: err}
	}()
	return p
}

// newUnmanagedProcess wraps a socket path with no child reference.
// Used for daemonized jailer launches.
func newUnmanagedProcess(socketPath string, logger *slog.Logger) *Process {
	return &Process{
		socketPath: socketPath,
		logger:     logger,
	}
}

// PID returns the process id, or 0 when no process is managed.
func (p *Process) PID() int {
	return p.pid
}

// SocketPath returns the path to the Firecracker API socket.
func (p *Process) SocketPath() string {
	return p.socketPath
}

// Managed reports whether this handle holds a live child reference.
func (p *Process) Managed() bool {
	return p.cmd != nil
}

// tryWait reports the exit status without blocking. The second return
// is false while the process is still running or unmanaged.
func (p *Process) tryWait() (*os.ProcessState, bool) {
	if p.reaped != nil {
		return p.reaped.state, true
	}
	if p.cmd == nil {
		return nil, false
	}
	select {
	case outcome := <-p.waitCh:
		p.reaped = &outcome
		return outcome.state, true
	default:
		return nil, false
	}
}

// awaitExit blocks until the reaper goroutine observes exit, then
// clears the child reference and pid.
func (p *Process) awaitExit(ctx context.Context) (*os.ProcessState, error) {
	if p.reaped == nil {
		select {
		case outcome := <-p.waitCh:
			p.reaped = &outcome
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	state, err := p.reaped.state, p.reaped.err
	p.cmd = nil
	p.pid = 0
	return state, err
}

// Shutdown sends SIGTERM to the managed process and blocks until it
// exits. Returns (nil, nil) when no process is managed.
func (p *Process) Shutdown(ctx context.Context) (*os.ProcessState, error) {
	if p.cmd == nil {
		return nil, nil
	}
	if p.logger != nil {
		p.logger.Debug("sending SIGTERM", "pid", p.pid)
	}
	// Ignore the error: the process may have exited already, and the
	// pending wait below observes that either way.
	syscall.Kill(p.pid, syscall.SIGTERM) //nolint:errcheck
	return p.awaitExit(ctx)
}

// Kill sends SIGKILL to the managed process and blocks until it exits.
// Returns (nil, nil) when no process is managed.
func (p *Process) Kill(ctx context.Context) (*os.ProcessState, error) {
	if p.cmd == nil {
		return nil, nil
	}
	if p.logger != nil {
		p.logger.Debug("sending SIGKILL", "pid", p.pid)
	}
	p.cmd.Process.Kill() //nolint:errcheck
	return p.awaitExit(ctx)
}

// Wait blocks until the managed process exits on its own. Returns
// (nil, nil) when no process is managed. A context cancellation
// returns ctx.Err() without clearing the handle; callers racing a
// cancellation signal against Wait should follow up with Shutdown or
// Kill themselves.
func (p *Process) Wait(ctx context.Context) (*os.ProcessState, error) {
	if p.cmd == nil {
		return nil, nil
	}
	return p.awaitExit(ctx)
}

// Detach transfers ownership of the process to the caller. The
// returned handle exposes the pid and socket path; the original
// Process clears its child reference and will neither terminate the
// process nor remove the socket on Close.
func (p *Process) Detach() Detached {
	detached := Detached{
		PID:        p.pid,
		SocketPath: p.socketPath,
	}
	p.cmd = nil
	p.pid = 0
	p.cleanupSocket = false
	return detached
}

// Close releases the handle: best-effort SIGKILL of any still-tracked
// process and best-effort removal of the socket file when this handle
// still owns it. Failures are swallowed; Close never blocks on the
// process actually dying.
func (p *Process) Close() {
	if p.pid != 0 {
		syscall.Kill(p.pid, syscall.SIGKILL) //nolint:errcheck
	}
	if p.cleanupSocket {
		os.Remove(p.socketPath) //nolint:errcheck
	}
}
