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

package resolve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcbox-labs/firecracker-client/internal/commands/shared"
)

type resolveOptions struct {
	resolver shared.ResolverFlags
}

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [firecracker|jailer|all]",
		Short: "Resolve the firecracker and jailer binaries",
		Long: `Resolve reports which firecracker and jailer binaries a launch would
use, applying the same bundled/system search order as 'fcc start'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}
			return runResolve(cmd, target, opts)
		},
	}

	opts.resolver.Register(cmd)
	return cmd
}

func runResolve(cmd *cobra.Command, target string, opts *resolveOptions) error {
	resolverOpts, err := opts.resolver.Options()
	if err != nil {
		return err
	}

	switch target {
	case "firecracker":
		return printResolved(cmd, "firecracker", resolverOpts.ResolveFirecracker)
	case "jailer":
		return printResolved(cmd, "jailer", resolverOpts.ResolveJailer)
	case "all":
		if err := printResolved(cmd, "firecracker", resolverOpts.ResolveFirecracker); err != nil {
			return err
		}
		return printResolved(cmd, "jailer", resolverOpts.ResolveJailer)
	default:
		return shared.NewInvalidFlagsError(fmt.Sprintf("unknown resolve target %q (want firecracker, jailer, or all)", target))
	}
}

func printResolved(cmd *cobra.Command, name string, resolve func() (string, error)) error {
	path, err := resolve()
	if err != nil {
		return shared.NewResolveError(fmt.Sprintf("resolving %s", name), err)
	}
	cmd.Printf("%s=%s\n", name, path)
	return nil
}
