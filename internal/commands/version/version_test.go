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

package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arcbox-labs/firecracker-client/internal/commands/shared"
)

func TestVersionOutput(t *testing.T) {
	shared.SetVersion("0.9.0", "deadbeef", "2026-02-03")

	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "fcc version 0.9.0") {
		t.Errorf("output missing version: %q", got)
	}
	if !strings.Contains(got, "deadbeef") {
		t.Errorf("output missing commit: %q", got)
	}
}
