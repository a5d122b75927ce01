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
	"errors"
	"fmt"
	"os"
)

// Exit codes for fcc commands
const (
	ExitSuccess       = 0
	ExitLaunchFailed  = 1
	ExitInvalidFlags  = 2
	ExitResolveFailed = 3
	ExitAPIError      = 4
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewLaunchError creates an error for spawn and lifecycle failures
func NewLaunchError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitLaunchFailed,
		Message: msg,
		Cause:   cause,
	}
}

// NewInvalidFlagsError creates an error for bad flag combinations
func NewInvalidFlagsError(msg string) *ExitError {
	return &ExitError{
		Code:    ExitInvalidFlags,
		Message: msg,
	}
}

// NewResolveError creates an error for binary resolution failures
func NewResolveError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitResolveFailed,
		Message: msg,
		Cause:   cause,
	}
}

// NewAPIError creates an error for Firecracker API failures
func NewAPIError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitAPIError,
		Message: msg,
		Cause:   cause,
	}
}

// HandleExitError checks if an error is an ExitError and exits with the
// appropriate code
func HandleExitError(err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err.Error())

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	os.Exit(ExitLaunchFailed)
}
