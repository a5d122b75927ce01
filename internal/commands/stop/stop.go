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

package stop

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcbox-labs/firecracker-client/internal/commands/shared"
	"github.com/arcbox-labs/firecracker-client/internal/state"
)

type stopOptions struct {
	force       bool
	timeoutSecs int
}

// NewStopCommand creates the stop command
func NewStopCommand() *cobra.Command {
	opts := &stopOptions{}

	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a detached microVM",
		Long: `Stop terminates a microVM previously started with 'fcc start --detach'
and removes it from the instance registry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Send SIGKILL instead of SIGTERM")
	cmd.Flags().IntVar(&opts.timeoutSecs, "timeout-secs", 10, "Seconds to wait for the process to exit")

	return cmd
}

func runStop(cmd *cobra.Command, id string, opts *stopOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := state.DefaultPath()
	if err != nil {
		return shared.NewLaunchError("locating instance registry", err)
	}
	store, err := state.Open(path)
	if err != nil {
		return shared.NewLaunchError("opening instance registry", err)
	}
	defer store.Close()

	inst, err := store.Get(ctx, id)
	if err != nil {
		return shared.NewLaunchError("loading instance", err)
	}
	if inst == nil {
		return shared.NewInvalidFlagsError(fmt.Sprintf("no registered instance %q", id))
	}
	if inst.PID == 0 {
		// Daemonized jailer launches never report the firecracker PID.
		return shared.NewLaunchError(
			fmt.Sprintf("instance %q was daemonized and has no recorded PID; stop it via its cgroup or pidfile", id), nil)
	}

	sig := syscall.SIGTERM
	if opts.force {
		sig = syscall.SIGKILL
	}
	if err := syscall.Kill(inst.PID, sig); err != nil {
		if err == syscall.ESRCH {
			// Already gone; just clean up the record.
			return forget(ctx, cmd, store, inst)
		}
		return shared.NewLaunchError(fmt.Sprintf("signaling pid %d", inst.PID), err)
	}

	if err := waitForExit(ctx, inst.PID, time.Duration(opts.timeoutSecs)*time.Second); err != nil {
		return shared.NewLaunchError(fmt.Sprintf("instance %q did not exit", id), err)
	}
	return forget(ctx, cmd, store, inst)
}

func forget(ctx context.Context, cmd *cobra.Command, store *state.Store, inst *state.Instance) error {
	if inst.SocketPath != "" {
		os.Remove(inst.SocketPath)
	}
	if err := store.Delete(ctx, inst.ID); err != nil {
		return shared.NewLaunchError("removing instance record", err)
	}
	cmd.Printf("stopped=%s\n", inst.ID)
	return nil
}

// waitForExit polls until the process disappears. The process is not
// our child, so Wait is unavailable and signal 0 probing is the only
// portable check.
func waitForExit(ctx context.Context, pid int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := syscall.Kill(pid, 0); err == syscall.ESRCH {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pid %d still running after %s", pid, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
