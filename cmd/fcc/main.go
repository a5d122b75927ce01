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

package main

import (
	"github.com/arcbox-labs/firecracker-client/internal/cli"
	"github.com/arcbox-labs/firecracker-client/internal/commands/list"
	"github.com/arcbox-labs/firecracker-client/internal/commands/platform"
	"github.com/arcbox-labs/firecracker-client/internal/commands/resolve"
	"github.com/arcbox-labs/firecracker-client/internal/commands/start"
	"github.com/arcbox-labs/firecracker-client/internal/commands/stop"
	versioncmd "github.com/arcbox-labs/firecracker-client/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()
	rootCmd.AddCommand(
		start.NewStartCommand(),
		stop.NewStopCommand(),
		list.NewListCommand(),
		resolve.NewResolveCommand(),
		platform.NewPlatformCommand(),
		versioncmd.NewVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
