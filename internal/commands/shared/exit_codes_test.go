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
	"testing"
)

func TestExitErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		code int
	}{
		{"launch", NewLaunchError("spawn failed", nil), ExitLaunchFailed},
		{"invalid flags", NewInvalidFlagsError("bad combination"), ExitInvalidFlags},
		{"resolve", NewResolveError("not found", nil), ExitResolveFailed},
		{"api", NewAPIError("fault", nil), ExitAPIError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.code)
			}
		})
	}
}

func TestExitErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := NewLaunchError("spawning microVM", cause)

	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through errors.Is")
	}
	if got := err.Error(); got != "spawning microVM: underlying" {
		t.Errorf("Error() = %q", got)
	}

	bare := NewInvalidFlagsError("bad flags")
	if got := bare.Error(); got != "bad flags" {
		t.Errorf("Error() = %q", got)
	}
}
