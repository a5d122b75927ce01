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

/*
Package bundled resolves firecracker and jailer binaries across the
deployment layouts the SDK supports: upstream release archives unpacked
next to the application, generic per-platform bundle directories, and
the system PATH.

# Resolution modes

Four modes control the search order:

  - BundledThenSystem (default): bundled layouts first, PATH fallback
  - SystemThenBundled: PATH first, bundled fallback
  - BundledOnly: bundled layouts only
  - SystemOnly: PATH only

# Bundle layouts

For each bundle root, candidates are generated in priority order:

	{root}/release-{tag}-{arch}/{name}-{tag}-{arch}
	{root}/release-{tag}-{arch}/bin/{name}-{tag}-{arch}
	{root}/{name}-{tag}-{arch}
	{root}/{os}-{arch}/{name}
	{root}/{os}-{arch}/bin/{name}
	{root}/{arch}-{os}/{name}
	{root}/{arch}-{os}/bin/{name}
	{root}/{name}

The release-tagged layouts match Firecracker's upstream release
archives, which exist for Linux x86_64 and aarch64 only; resolving with
bundled layouts enabled on any other platform fails fast rather than
silently skipping candidates.

# Environment overrides

FC_SDK_FIRECRACKER_BIN and FC_SDK_JAILER_BIN override the search for
their binary, either as a literal path or as a bare name re-resolved
through the normal rules. FC_SDK_FIRECRACKER_RELEASE supplies a default
release tag and FC_SDK_BUNDLED_DIR an additional bundle root.

# Integrity verification

When an expected SHA-256 is configured the resolved file is streamed
through the hash before the path is returned; a mismatch is a hard
failure carrying the binary role, path, and both digests.

Usage:

	opts := bundled.DefaultOptions()
	opts.Mode = bundled.BundledOnly
	opts.BundleRoot = "/opt/firecracker"
	path, err := opts.ResolveFirecracker()
*/
package bundled
