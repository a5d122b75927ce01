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

package bundled

import (
	"regexp"
	"runtime"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// releaseTagPattern matches exactly vMAJOR.MINOR.PATCH. Tags are
// validated before any filesystem probing so a typo fails loudly.
var releaseTagPattern = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

func validReleaseTag(tag string) bool {
	return releaseTagPattern.MatchString(tag)
}

func runtimeOS() string {
	return runtime.GOOS
}

// archName maps the Go architecture to the name Firecracker releases
// use in their artifact paths.
func archName(goarch string) (string, bool) {
	switch goarch {
	case "amd64":
		return "x86_64", true
	case "arm64":
		return "aarch64", true
	default:
		return "", false
	}
}

// currentReleaseArch returns the release-archive architecture name for
// the running platform. Firecracker publishes Linux x86_64 and aarch64
// archives only, so any other platform cannot satisfy bundled layouts.
func currentReleaseArch() (string, error) {
	if runtime.GOOS != "linux" {
		return "", &errors.UnsupportedPlatformError{OS: runtime.GOOS, Arch: runtime.GOARCH}
	}
	arch, ok := archName(runtime.GOARCH)
	if !ok {
		return "", &errors.UnsupportedPlatformError{OS: runtime.GOOS, Arch: runtime.GOARCH}
	}
	return arch, nil
}

// ReleaseSupported reports whether upstream release archives exist for
// the running platform.
func ReleaseSupported() bool {
	_, err := currentReleaseArch()
	return err == nil
}

// PlatformKey returns the {os}-{arch} key for the running platform in
// release naming, e.g. "linux-x86_64". Unsupported platforms fall back
// to Go's own naming so diagnostics stay truthful.
func PlatformKey() string {
	arch, ok := archName(runtime.GOARCH)
	if !ok {
		arch = runtime.GOARCH
	}
	return runtime.GOOS + "-" + arch
}
