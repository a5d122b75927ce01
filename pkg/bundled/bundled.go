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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// Environment variables honored during resolution.
const (
	// EnvFirecrackerBin overrides the firecracker binary (path or bare name).
	EnvFirecrackerBin = "FC_SDK_FIRECRACKER_BIN"

	// EnvJailerBin overrides the jailer binary (path or bare name).
	EnvJailerBin = "FC_SDK_JAILER_BIN"

	// EnvRelease supplies a default release tag when Options.ReleaseTag is empty.
	EnvRelease = "FC_SDK_FIRECRACKER_RELEASE"

	// EnvBundleDir supplies an additional bundle root directory.
	EnvBundleDir = "FC_SDK_BUNDLED_DIR"
)

// Mode selects which binary sources are searched, and in which order.
type Mode int

const (
	// BundledThenSystem tries bundled layouts first, then the system PATH.
	// This is the zero value and the default.
	BundledThenSystem Mode = iota

	// BundledOnly searches bundled layouts only.
	BundledOnly

	// SystemOnly searches the system PATH only.
	SystemOnly

	// SystemThenBundled tries the system PATH first, then bundled layouts.
	SystemThenBundled
)

// String returns the kebab-case name of the mode, matching the CLI flag values.
func (m Mode) String() string {
	switch m {
	case BundledOnly:
		return "bundled-only"
	case SystemOnly:
		return "system-only"
	case SystemThenBundled:
		return "system-then-bundled"
	default:
		return "bundled-then-system"
	}
}

// ParseMode parses a kebab-case mode name as used on the CLI.
func ParseMode(value string) (Mode, error) {
	switch value {
	case "bundled-only":
		return BundledOnly, nil
	case "system-only":
		return SystemOnly, nil
	case "bundled-then-system":
		return BundledThenSystem, nil
	case "system-then-bundled":
		return SystemThenBundled, nil
	default:
		return BundledThenSystem, fmt.Errorf("unknown resolution mode %q", value)
	}
}

// bundledEnabled reports whether the mode generates bundled candidates.
func (m Mode) bundledEnabled() bool {
	return m != SystemOnly
}

// Options configures binary resolution. The zero value is not useful;
// construct with DefaultOptions and adjust fields before calling a
// Resolve method. Options is a plain value consumed per call: resolution
// never mutates it.
type Options struct {
	// Mode selects the search order (default BundledThenSystem).
	Mode Mode

	// BundleRoot is the primary directory containing bundled artifacts.
	// FC_SDK_BUNDLED_DIR, directories named "bundled" next to the running
	// executable, and a relative "bundled" directory are searched as well.
	BundleRoot string

	// ReleaseTag is the Firecracker release tag (e.g. "v1.12.0"). When set
	// (or supplied via FC_SDK_FIRECRACKER_RELEASE), bundled lookup
	// prioritizes upstream release archive naming. Must match
	// vMAJOR.MINOR.PATCH exactly.
	ReleaseTag string

	// FirecrackerName overrides the firecracker binary filename prefix
	// (default "firecracker").
	FirecrackerName string

	// JailerName overrides the jailer binary filename prefix
	// (default "jailer").
	JailerName string

	// EnsureExecutable sets missing executable mode bits on discovered
	// binaries. Release archives are sometimes unpacked without them.
	EnsureExecutable bool

	// FirecrackerSHA256 is the expected digest for the firecracker binary.
	// Empty disables verification. An optional "sha256:" prefix and
	// mixed-case hex are accepted.
	FirecrackerSHA256 string

	// JailerSHA256 is the expected digest for the jailer binary.
	JailerSHA256 string
}

// DefaultOptions returns Options with default behavior: BundledThenSystem
// mode, default binary names, and executable-bit fixing enabled.
func DefaultOptions() Options {
	return Options{
		Mode:             BundledThenSystem,
		FirecrackerName:  "firecracker",
		JailerName:       "jailer",
		EnsureExecutable: true,
	}
}

// ResolveFirecracker resolves the path to the firecracker binary.
func (o Options) ResolveFirecracker() (string, error) {
	name := o.FirecrackerName
	if name == "" {
		name = "firecracker"
	}
	return o.resolve("firecracker", name, EnvFirecrackerBin, o.FirecrackerSHA256)
}

// ResolveJailer resolves the path to the jailer binary.
func (o Options) ResolveJailer() (string, error) {
	name := o.JailerName
	if name == "" {
		name = "jailer"
	}
	return o.resolve("jailer", name, EnvJailerBin, o.JailerSHA256)
}

// resolve walks the candidate lists for one binary role and returns the
// first path that is a regular, executable file with a matching digest.
func (o Options) resolve(role, defaultName, envOverride, expectedSHA string) (string, error) {
	var searched []string

	releaseTag := ""
	releaseArch := ""
	if o.Mode.bundledEnabled() {
		tag, err := o.resolveReleaseTag()
		if err != nil {
			return "", err
		}
		releaseTag = tag

		arch, err := currentReleaseArch()
		if err != nil {
			return "", err
		}
		releaseArch = arch
	}

	// Environment override is tried first, independent of mode. A
	// path-like value is taken literally; a bare name is re-resolved
	// through the normal candidate rules.
	if override := os.Getenv(envOverride); override != "" {
		var candidates []string
		if looksLikePath(override) {
			candidates = []string{override}
		} else {
			candidates = systemCandidates(override)
			if o.Mode.bundledEnabled() {
				candidates = append(candidates, bundledCandidates(override, o.bundleRoots(), releaseTag, releaseArch)...)
			}
		}

		path, err := o.firstValid(role, candidates, expectedSHA, &searched)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
	}

	roots := o.bundleRoots()
	var candidates []string
	switch o.Mode {
	case BundledOnly:
		candidates = bundledCandidates(defaultName, roots, releaseTag, releaseArch)
	case SystemOnly:
		candidates = systemCandidates(defaultName)
	case SystemThenBundled:
		candidates = append(systemCandidates(defaultName),
			bundledCandidates(defaultName, roots, releaseTag, releaseArch)...)
	default: // BundledThenSystem
		candidates = append(bundledCandidates(defaultName, roots, releaseTag, releaseArch),
			systemCandidates(defaultName)...)
	}

	path, err := o.firstValid(role, candidates, expectedSHA, &searched)
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}

	return "", &errors.BinaryNotFoundError{Binary: role, Searched: searched}
}

// firstValid probes candidates in order, recording each probe in
// searched. Returns "" (with nil error) when no candidate qualifies.
func (o Options) firstValid(role string, candidates []string, expectedSHA string, searched *[]string) (string, error) {
	for _, candidate := range dedupePaths(candidates) {
		*searched = append(*searched, candidate)

		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		if o.EnsureExecutable {
			if err := ensureExecutable(candidate); err != nil {
				return "", &errors.NotExecutableError{Path: candidate}
			}
		}
		executable, err := isExecutable(candidate)
		if err != nil || !executable {
			return "", &errors.NotExecutableError{Path: candidate}
		}

		if expectedSHA != "" {
			if err := verifyChecksum(role, candidate, expectedSHA); err != nil {
				return "", err
			}
		}

		return candidate, nil
	}
	return "", nil
}

// resolveReleaseTag returns the configured release tag, falling back to
// FC_SDK_FIRECRACKER_RELEASE. An invalid tag is rejected regardless of
// where it came from; empty means no release-tagged candidates.
func (o Options) resolveReleaseTag() (string, error) {
	tag := o.ReleaseTag
	if tag == "" {
		tag = os.Getenv(EnvRelease)
	}
	if tag != "" && !validReleaseTag(tag) {
		return "", &errors.InvalidReleaseTagError{Tag: tag}
	}
	return tag, nil
}

// bundleRoots returns the ordered, deduplicated bundle root directories.
func (o Options) bundleRoots() []string {
	var roots []string

	if o.BundleRoot != "" {
		roots = append(roots, o.BundleRoot)
	}
	if dir := os.Getenv(EnvBundleDir); dir != "" {
		roots = append(roots, dir)
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		roots = append(roots, filepath.Join(exeDir, "bundled"))
		roots = append(roots, filepath.Join(exeDir, "..", "bundled"))
	}
	roots = append(roots, "bundled")

	return dedupePaths(roots)
}

// dedupePaths removes duplicate entries preserving first occurrence.
// Candidate order encodes the fallback policy, so it must be stable.
func dedupePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		unique = append(unique, path)
	}
	return unique
}

// looksLikePath reports whether value names a filesystem location rather
// than a bare binary name to search for.
func looksLikePath(value string) bool {
	return strings.ContainsRune(value, os.PathSeparator) || strings.Contains(value, "/")
}
