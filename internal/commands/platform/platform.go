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

package platform

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/arcbox-labs/firecracker-client/pkg/bundled"
)

// NewPlatformCommand creates the platform command
func NewPlatformCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Show host platform support for bundled releases",
		RunE:  runPlatform,
	}
}

func runPlatform(cmd *cobra.Command, args []string) error {
	cmd.Printf("os=%s\n", runtime.GOOS)
	cmd.Printf("arch=%s\n", runtime.GOARCH)
	cmd.Printf("bundled_release_supported=%t\n", bundled.ReleaseSupported())
	return nil
}
