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

package shared

import (
	"github.com/spf13/cobra"

	"github.com/arcbox-labs/firecracker-client/pkg/bundled"
)

// ResolverFlags carries the binary resolution flags shared by the
// resolve and start commands.
type ResolverFlags struct {
	Mode              string
	BundleRoot        string
	Release           string
	FirecrackerSHA256 string
	JailerSHA256      string
}

// Register binds the resolver flags to cmd.
func (f *ResolverFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Mode, "resolution-mode", "bundled-then-system",
		"Binary resolution mode (bundled-only, system-only, bundled-then-system, system-then-bundled)")
	cmd.Flags().StringVar(&f.BundleRoot, "bundle-root", "", "Directory holding bundled release binaries")
	cmd.Flags().StringVar(&f.Release, "release", "", "Firecracker release tag for bundled lookup (e.g. v1.7.0)")
	cmd.Flags().StringVar(&f.FirecrackerSHA256, "firecracker-sha256", "", "Expected SHA-256 of the firecracker binary")
	cmd.Flags().StringVar(&f.JailerSHA256, "jailer-sha256", "", "Expected SHA-256 of the jailer binary")
}

// Options converts the flag values into resolver options.
func (f *ResolverFlags) Options() (bundled.Options, error) {
	mode, err := bundled.ParseMode(f.Mode)
	if err != nil {
		return bundled.Options{}, NewInvalidFlagsError(err.Error())
	}

	opts := bundled.DefaultOptions()
	opts.Mode = mode
	opts.BundleRoot = f.BundleRoot
	opts.ReleaseTag = f.Release
	opts.FirecrackerSHA256 = f.FirecrackerSHA256
	opts.JailerSHA256 = f.JailerSHA256
	return opts, nil
}
