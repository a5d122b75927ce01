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
	"path/filepath"
	"strconv"
	"time"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// DefaultChrootBase is the jailer's built-in chroot base directory.
const DefaultChrootBase = "/srv/jailer"

// SocketFilename is the API socket filename inside the jailer chroot.
const SocketFilename = "firecracker.socket"

// JailerConfig describes a launch through the jailer. Construct with
// NewJailerConfig, adjust fields, then call Spawn.
type JailerConfig struct {
	// Binary is the path to the jailer executable.
	Binary string

	// ExecFile is the path to the firecracker executable the jailer
	// will hard-link into the chroot and exec.
	ExecFile string

	// ID is the microVM identifier; it becomes a chroot path segment.
	ID string

	// UID and GID are the identity the jailed process drops to.
	UID int
	GID int

	// ChrootBase is the chroot base directory. The flag is only passed
	// when this differs from the jailer default.
	ChrootBase string

	// NetNS is an optional network namespace path or name.
	NetNS string

	// Daemonize makes the jailer fork and exit. See the package doc:
	// the resulting Process retains no child reference and no PID, so
	// lifecycle methods on it are permanent no-ops.
	Daemonize bool

	// NewPIDNS runs the jailed process in a new PID namespace.
	NewPIDNS bool

	// Cgroups are repeated --cgroup file=value settings.
	Cgroups []string

	// ResourceLimits are repeated --resource-limit resource=value settings.
	ResourceLimits []string

	// CgroupVersion selects cgroup v1 or v2 ("1" or "2").
	CgroupVersion string

	// ParentCgroup is the parent cgroup the jailer creates under.
	ParentCgroup string

	// FirecrackerArgs are passed verbatim to the inner firecracker
	// process after the "--" separator.
	FirecrackerArgs []string

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

// NewJailerConfig returns a JailerConfig with defaults for launching
// execFile as instance id through the jailer at binary, dropping to
// uid/gid.
func NewJailerConfig(binary, execFile, id string, uid, gid int) JailerConfig {
	return JailerConfig{
		Binary:        binary,
		ExecFile:      execFile,
		ID:            id,
		UID:           uid,
		GID:           gid,
		ChrootBase:    DefaultChrootBase,
		SocketTimeout: DefaultSocketTimeout,
		PollInterval:  DefaultPollInterval,
	}
}

// SocketPath derives the API socket path inside the chroot:
//
//	{chroot_base}/{exec_name}/{id}/root/run/firecracker.socket
//
// The derivation is computable before spawning; it feeds both the
// readiness wait and chroot-root discovery for staging.
func (c JailerConfig) SocketPath() string {
	base := c.ChrootBase
	if base == "" {
		base = DefaultChrootBase
	}
	return filepath.Join(base, filepath.Base(c.ExecFile), c.ID, "root", "run", SocketFilename)
}

// ChrootRoot returns the chroot root directory for this launch, the
// directory that becomes "/" for the jailed firecracker.
func (c JailerConfig) ChrootRoot() string {
	return ChrootRoot(c.SocketPath())
}

// Args builds the jailer argument vector. Jailer-owned flags come
// first; firecracker passthrough flags follow a literal "--" and are
// forwarded unmodified.
func (c JailerConfig) Args() []string {
	args := []string{
		"--exec-file", c.ExecFile,
		"--id", c.ID,
		"--uid", strconv.Itoa(c.UID),
		"--gid", strconv.Itoa(c.GID),
	}

	if c.ChrootBase != "" && c.ChrootBase != DefaultChrootBase {
		args = append(args, "--chroot-base-dir", c.ChrootBase)
	}
	if c.NetNS != "" {
		args = append(args, "--netns", c.NetNS)
	}
	if c.Daemonize {
		args = append(args, "--daemonize")
	}
	if c.NewPIDNS {
		args = append(args, "--new-pid-ns")
	}
	for _, cg := range c.Cgroups {
		args = append(args, "--cgroup", cg)
	}
	for _, limit := range c.ResourceLimits {
		args = append(args, "--resource-limit", limit)
	}
	if c.CgroupVersion != "" {
		args = append(args, "--cgroup-version", c.CgroupVersion)
	}
	if c.ParentCgroup != "" {
		args = append(args, "--parent-cgroup", c.ParentCgroup)
	}

	if len(c.FirecrackerArgs) > 0 {
		args = append(args, "--")
		args = append(args, c.FirecrackerArgs...)
	}

	return args
}

func (c JailerConfig) validate() error {
	if c.Binary == "" {
		return &errors.MissingConfigError{Field: "Binary"}
	}
	if c.ExecFile == "" {
		return &errors.MissingConfigError{Field: "ExecFile"}
	}
	if c.ID == "" {
		return &errors.MissingConfigError{Field: "ID"}
	}
	return nil
}

// Spawn starts the jailer and blocks until the derived API socket
// accepts connections.
//
// In daemonize mode the jailer process forks and exits quickly; it is
// reaped immediately and the returned Process is unmanaged. The
// premature-exit short-circuit on readiness timeout only applies when
// a child reference is actually held.
func (c JailerConfig) Spawn(ctx context.Context) (*Process, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	socketPath := c.SocketPath()

	cmd := exec.Command(c.Binary, c.Args()...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if c.Logger != nil {
		c.Logger.Info("starting jailer",
			"binary", c.Binary,
			"exec_file", c.ExecFile,
			"vm_id", c.ID,
			"socket", socketPath,
			"daemonize", c.Daemonize)
	}

	if err := cmd.Start(); err != nil {
		return nil, &errors.SpawnError{Binary: c.Binary, Cause: err}
	}

	var proc *Process
	if c.Daemonize {
		// The child is the short-lived jailer parent, not firecracker.
		// Reap it and keep only the socket path.
		cmd.Wait() //nolint:errcheck
		proc = newUnmanagedProcess(socketPath, c.Logger)
	} else {
		proc = newManagedProcess(cmd, socketPath, c.Logger)
	}

	if err := WaitForSocket(ctx, socketPath, c.SocketTimeout, c.PollInterval); err != nil {
		if proc.Managed() {
			if state, exited := proc.tryWait(); exited {
				proc.Close()
				return nil, &errors.ProcessExitedError{Status: state}
			}
		}
		proc.Close()
		return nil, err
	}

	if c.Logger != nil {
		c.Logger.Info("jailed firecracker ready", "pid", proc.PID(), "socket", socketPath)
	}
	return proc, nil
}
