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

package errors

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// BinaryNotFoundError is returned when no candidate path yields a usable
// firecracker or jailer binary. Searched holds every candidate that was
// probed, in probe order, so callers can print a complete diagnostic
// without re-running the resolution.
type BinaryNotFoundError struct {
	// Binary is the binary role ("firecracker" or "jailer")
	Binary string

	// Searched is the full ordered list of candidate paths that were probed
	Searched []string
}

// Error implements the error interface.
func (e *BinaryNotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("%s binary not found (no candidate paths)", e.Binary)
	}
	return fmt.Sprintf("%s binary not found; searched: %s", e.Binary, strings.Join(e.Searched, ", "))
}

// NotExecutableError is returned when a resolved binary exists but cannot
// be made executable.
type NotExecutableError struct {
	// Path is the candidate that failed the executable check
	Path string
}

// Error implements the error interface.
func (e *NotExecutableError) Error() string {
	return fmt.Sprintf("binary is not executable: %s", e.Path)
}

// InvalidChecksumError is returned when an expected SHA-256 string is not
// 64 hex characters (an optional "sha256:" prefix is tolerated).
type InvalidChecksumError struct {
	// Binary is the binary role the checksum was supplied for
	Binary string

	// Checksum is the malformed value as supplied by the caller
	Checksum string
}

// Error implements the error interface.
func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("invalid SHA-256 for %s binary: %q (want 64 hex characters)", e.Binary, e.Checksum)
}

// ChecksumMismatchError is returned when a resolved binary's SHA-256
// digest does not match the expected value. Resolution never returns a
// path whose digest failed verification.
type ChecksumMismatchError struct {
	// Binary is the binary role ("firecracker" or "jailer")
	Binary string

	// Path is the file whose digest was computed
	Path string

	// Expected is the normalized (lowercase, unprefixed) expected digest
	Expected string

	// Actual is the digest computed from the file contents
	Actual string
}

// Error implements the error interface.
func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("SHA-256 mismatch for %s binary at %s: expected %s, got %s",
		e.Binary, e.Path, e.Expected, e.Actual)
}

// UnsupportedPlatformError is returned when release-layout resolution is
// attempted on a platform Firecracker does not publish release archives
// for. Upstream releases cover Linux x86_64 and aarch64 only.
type UnsupportedPlatformError struct {
	// OS is the runtime operating system (GOOS)
	OS string

	// Arch is the runtime architecture (GOARCH)
	Arch string
}

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("platform %s/%s is not supported by Firecracker release archives", e.OS, e.Arch)
}

// InvalidReleaseTagError is returned when a release tag does not match
// the vMAJOR.MINOR.PATCH form. The tag is rejected before any filesystem
// probing happens.
type InvalidReleaseTagError struct {
	// Tag is the malformed value as supplied
	Tag string
}

// Error implements the error interface.
func (e *InvalidReleaseTagError) Error() string {
	return fmt.Sprintf("invalid release tag %q (want vMAJOR.MINOR.PATCH, e.g. v1.12.0)", e.Tag)
}

// SpawnError is returned when the operating system fails to start the
// firecracker or jailer process.
type SpawnError struct {
	// Binary is the executable that failed to start
	Binary string

	// Cause is the underlying I/O error from the OS
	Cause error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Binary, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// SocketTimeoutError is returned when the API socket did not become
// connectable within the configured readiness timeout.
type SocketTimeoutError struct {
	// Path is the socket that never became connectable
	Path string

	// Timeout is the configured readiness timeout
	Timeout time.Duration
}

// Error implements the error interface.
func (e *SocketTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v waiting for API socket %s", e.Timeout, e.Path)
}

// ProcessExitedError is returned when the launched process exited before
// its API socket ever appeared. This is distinct from SocketTimeoutError
// so callers can tell "still starting, too slow" apart from "crashed
// immediately".
type ProcessExitedError struct {
	// Status is the exit status of the process, if one was observed
	Status *os.ProcessState
}

// Error implements the error interface.
func (e *ProcessExitedError) Error() string {
	if e.Status == nil {
		return "process exited before the API socket appeared"
	}
	return fmt.Sprintf("process exited before the API socket appeared: %v", e.Status)
}

// StagingError is returned when copying a resource file into the jailer
// chroot fails. Staging is all-or-nothing: the first failure aborts the
// launch attempt.
type StagingError struct {
	// Source is the host path being staged
	Source string

	// Dest is the chroot destination path
	Dest string

	// Cause is the underlying copy or chown error
	Cause error
}

// Error implements the error interface.
func (e *StagingError) Error() string {
	return fmt.Sprintf("failed to stage %s into %s: %v", e.Source, e.Dest, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StagingError) Unwrap() error {
	return e.Cause
}

// MissingConfigError is returned when a launch or VM configuration is
// missing a required field.
type MissingConfigError struct {
	// Field is the missing field name (e.g. "BootSource", "ExecFile")
	Field string
}

// Error implements the error interface.
func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Field)
}

// APIError represents a non-2xx response from the Firecracker API.
type APIError struct {
	// Method is the HTTP method of the failed request
	Method string

	// Path is the API path of the failed request
	Path string

	// StatusCode is the HTTP status code
	StatusCode int

	// FaultMessage is the fault_message field from Firecracker's error
	// body, when one was present
	FaultMessage string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.FaultMessage != "" {
		return fmt.Sprintf("firecracker API %s %s failed (HTTP %d): %s",
			e.Method, e.Path, e.StatusCode, e.FaultMessage)
	}
	return fmt.Sprintf("firecracker API %s %s failed (HTTP %d)", e.Method, e.Path, e.StatusCode)
}
