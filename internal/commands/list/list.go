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

package list

import (
	"context"
	"fmt"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcbox-labs/firecracker-client/internal/commands/shared"
	"github.com/arcbox-labs/firecracker-client/internal/state"
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered microVM instances",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
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

	instances, err := store.List(ctx)
	if err != nil {
		return shared.NewLaunchError("listing instances", err)
	}
	if len(instances) == 0 {
		cmd.Println("No registered instances.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPID\tBACKEND\tRUNNING\tSTARTED\tSOCKET")
	for _, inst := range instances {
		pid := "-"
		running := "unknown"
		if inst.PID > 0 {
			pid = strconv.Itoa(inst.PID)
			if alive(inst.PID) {
				running = "yes"
			} else {
				running = "no"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inst.ID, pid, inst.Backend, running,
			inst.StartedAt.Format(time.RFC3339), inst.SocketPath)
	}
	return w.Flush()
}

// alive reports whether pid exists, via signal 0.
func alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
