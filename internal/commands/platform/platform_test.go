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
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestPlatformOutput(t *testing.T) {
	cmd := NewPlatformCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "os="+runtime.GOOS+"\n") {
		t.Errorf("output missing os line: %q", got)
	}
	if !strings.Contains(got, "arch="+runtime.GOARCH+"\n") {
		t.Errorf("output missing arch line: %q", got)
	}
	if !strings.Contains(got, "bundled_release_supported=") {
		t.Errorf("output missing support line: %q", got)
	}
}
