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
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// writeFakeBinary creates a small executable file at path, creating
// parent directories as needed.
func writeFakeBinary(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// releaseArchOrSkip returns the release architecture name, skipping the
// test on platforms without upstream release archives.
func releaseArchOrSkip(t *testing.T) string {
	t.Helper()
	arch, err := currentReleaseArch()
	if err != nil {
		t.Skipf("no release archives for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	return arch
}

// chdir changes the working directory for the test and restores it on
// cleanup, matching testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("chdir back to %s: %v", prev, err)
		}
	})
}

// clearResolverEnv isolates a test from ambient overrides.
func clearResolverEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvFirecrackerBin, EnvJailerBin, EnvRelease, EnvBundleDir} {
		t.Setenv(key, "")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "bundled-only", want: BundledOnly},
		{input: "system-only", want: SystemOnly},
		{input: "bundled-then-system", want: BundledThenSystem},
		{input: "system-then-bundled", want: SystemThenBundled},
		{input: "bundled", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want round trip to %q", got.String(), tt.input)
			}
		})
	}
}

func TestDedupePaths(t *testing.T) {
	got := dedupePaths([]string{"/a", "/b", "/a", "/c", "/b"})
	want := []string{"/a", "/b", "/c"}
	if len(got) != len(want) {
		t.Fatalf("dedupePaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupePaths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLooksLikePath(t *testing.T) {
	if !looksLikePath("/usr/bin/firecracker") {
		t.Error("absolute path should look like a path")
	}
	if !looksLikePath("./firecracker") {
		t.Error("relative path should look like a path")
	}
	if looksLikePath("firecracker") {
		t.Error("bare name should not look like a path")
	}
}

func TestValidReleaseTag(t *testing.T) {
	valid := []string{"v1.12.0", "v0.0.1", "v10.2.33"}
	invalid := []string{"1.12.0", "v1.12", "v1.12.0-rc1", "v1.12.0 ", "latest", ""}

	for _, tag := range valid {
		if !validReleaseTag(tag) {
			t.Errorf("validReleaseTag(%q) = false, want true", tag)
		}
	}
	for _, tag := range invalid {
		if validReleaseTag(tag) {
			t.Errorf("validReleaseTag(%q) = true, want false", tag)
		}
	}
}

func TestResolveInvalidReleaseTag(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = t.TempDir()
	opts.ReleaseTag = "1.12.0"

	_, err := opts.ResolveFirecracker()
	var tagErr *errors.InvalidReleaseTagError
	if !errors.As(err, &tagErr) {
		t.Fatalf("ResolveFirecracker() = %v, want InvalidReleaseTagError", err)
	}
	if tagErr.Tag != "1.12.0" {
		t.Errorf("Tag = %q, want the rejected value", tagErr.Tag)
	}
}

func TestResolveReleaseLayout(t *testing.T) {
	clearResolverEnv(t)
	arch := releaseArchOrSkip(t)

	root := t.TempDir()
	tag := "v1.12.0"
	binary := filepath.Join(root,
		"release-"+tag+"-"+arch,
		"firecracker-"+tag+"-"+arch)
	writeFakeBinary(t, binary, "#!/bin/sh\n")

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root
	opts.ReleaseTag = tag

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want %q", got, binary)
	}
}

func TestResolveReleaseBinSubdir(t *testing.T) {
	clearResolverEnv(t)
	arch := releaseArchOrSkip(t)

	root := t.TempDir()
	tag := "v1.10.1"
	binary := filepath.Join(root,
		"release-"+tag+"-"+arch, "bin",
		"jailer-"+tag+"-"+arch)
	writeFakeBinary(t, binary, "#!/bin/sh\n")

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root
	opts.ReleaseTag = tag

	got, err := opts.ResolveJailer()
	if err != nil {
		t.Fatalf("ResolveJailer(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want %q", got, binary)
	}
}

func TestResolvePlatformKeyLayout(t *testing.T) {
	clearResolverEnv(t)
	arch := releaseArchOrSkip(t)

	root := t.TempDir()
	binary := filepath.Join(root, runtime.GOOS+"-"+arch, "firecracker")
	writeFakeBinary(t, binary, "#!/bin/sh\n")

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want %q", got, binary)
	}
}

func TestResolveFlattenedLayout(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	root := t.TempDir()
	binary := filepath.Join(root, "firecracker")
	writeFakeBinary(t, binary, "#!/bin/sh\n")

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want %q", got, binary)
	}
}

func TestResolvePriorityReleaseOverFlattened(t *testing.T) {
	clearResolverEnv(t)
	arch := releaseArchOrSkip(t)

	root := t.TempDir()
	tag := "v1.12.0"
	tagged := filepath.Join(root,
		"release-"+tag+"-"+arch,
		"firecracker-"+tag+"-"+arch)
	flattened := filepath.Join(root, "firecracker")
	writeFakeBinary(t, tagged, "tagged")
	writeFakeBinary(t, flattened, "flattened")

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root
	opts.ReleaseTag = tag

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != tagged {
		t.Errorf("resolved %q, want release-tagged layout to win", got)
	}
}

func TestResolveNotFoundListsSearched(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = t.TempDir()

	_, err := opts.ResolveFirecracker()
	var notFound *errors.BinaryNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("ResolveFirecracker() = %v, want BinaryNotFoundError", err)
	}
	if len(notFound.Searched) == 0 {
		t.Fatal("Searched should list every probed candidate")
	}
	for _, path := range notFound.Searched {
		if strings.Contains(path, opts.BundleRoot) {
			return
		}
	}
	t.Errorf("Searched = %v, want an entry under %s", notFound.Searched, opts.BundleRoot)
}

func TestResolveSystemOnly(t *testing.T) {
	clearResolverEnv(t)

	dir := t.TempDir()
	binary := filepath.Join(dir, "firecracker")
	writeFakeBinary(t, binary, "#!/bin/sh\n")
	t.Setenv("PATH", dir)

	opts := DefaultOptions()
	opts.Mode = SystemOnly

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want %q", got, binary)
	}
}

func TestResolvePathLikeNameIsSoleCandidate(t *testing.T) {
	clearResolverEnv(t)

	workDir := t.TempDir()
	intended := filepath.Join(workDir, "bin", "fc")
	writeFakeBinary(t, intended, "intended")
	chdir(t, workDir)

	// A shadow at {PATH dir}/bin/fc must never be considered: a
	// path-like name short-circuits PATH joining entirely.
	pathDir := t.TempDir()
	writeFakeBinary(t, filepath.Join(pathDir, "bin", "fc"), "shadow")
	t.Setenv("PATH", pathDir)

	opts := DefaultOptions()
	opts.Mode = SystemOnly
	opts.FirecrackerName = filepath.Join("bin", "fc")

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != opts.FirecrackerName {
		t.Errorf("resolved %q, want the relative path %q", got, opts.FirecrackerName)
	}
}

func TestResolvePathLikeNameSearchesNothingElse(t *testing.T) {
	clearResolverEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("PATH", "/usr/local")

	opts := DefaultOptions()
	opts.Mode = SystemOnly
	opts.FirecrackerName = filepath.Join("bin", "fc")

	_, err := opts.ResolveFirecracker()
	var notFound *errors.BinaryNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("ResolveFirecracker() = %v, want BinaryNotFoundError", err)
	}
	want := []string{opts.FirecrackerName}
	if len(notFound.Searched) != 1 || notFound.Searched[0] != want[0] {
		t.Errorf("Searched = %v, want exactly %v", notFound.Searched, want)
	}
}

func TestSystemCandidatesBareName(t *testing.T) {
	t.Setenv("PATH", "/usr/local/bin"+string(os.PathListSeparator)+"/opt/fc")

	got := systemCandidates("firecracker")
	want := []string{
		filepath.Join("/usr/local/bin", "firecracker"),
		filepath.Join("/opt/fc", "firecracker"),
	}
	if len(got) != len(want) {
		t.Fatalf("systemCandidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("systemCandidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolveSystemThenBundledPrefersPath(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	pathDir := t.TempDir()
	onPath := filepath.Join(pathDir, "firecracker")
	writeFakeBinary(t, onPath, "system")
	t.Setenv("PATH", pathDir)

	root := t.TempDir()
	writeFakeBinary(t, filepath.Join(root, "firecracker"), "bundled")

	opts := DefaultOptions()
	opts.Mode = SystemThenBundled
	opts.BundleRoot = root

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != onPath {
		t.Errorf("resolved %q, want PATH entry to win in system-then-bundled", got)
	}
}

func TestResolveEnvOverridePath(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	override := filepath.Join(t.TempDir(), "custom-fc")
	writeFakeBinary(t, override, "#!/bin/sh\n")
	t.Setenv(EnvFirecrackerBin, override)

	// A bundled copy exists too; the override must win.
	root := t.TempDir()
	writeFakeBinary(t, filepath.Join(root, "firecracker"), "bundled")

	opts := DefaultOptions()
	opts.BundleRoot = root

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != override {
		t.Errorf("resolved %q, want env override %q", got, override)
	}
}

func TestResolveEnvOverrideBareName(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	root := t.TempDir()
	binary := filepath.Join(root, "firecracker-custom")
	writeFakeBinary(t, binary, "#!/bin/sh\n")
	t.Setenv(EnvFirecrackerBin, "firecracker-custom")
	t.Setenv("PATH", "")

	opts := DefaultOptions()
	opts.BundleRoot = root

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want bare-name override re-resolved to %q", got, binary)
	}
}

func TestResolveReleaseTagFromEnv(t *testing.T) {
	clearResolverEnv(t)
	arch := releaseArchOrSkip(t)

	root := t.TempDir()
	tag := "v1.11.0"
	binary := filepath.Join(root,
		"release-"+tag+"-"+arch,
		"firecracker-"+tag+"-"+arch)
	writeFakeBinary(t, binary, "#!/bin/sh\n")
	t.Setenv(EnvRelease, tag)

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want %q", got, binary)
	}
}

func TestResolveBundleDirFromEnv(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	root := t.TempDir()
	binary := filepath.Join(root, "firecracker")
	writeFakeBinary(t, binary, "#!/bin/sh\n")
	t.Setenv(EnvBundleDir, root)

	opts := DefaultOptions()
	opts.Mode = BundledOnly

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	if got != binary {
		t.Errorf("resolved %q, want %q", got, binary)
	}
}

func TestResolveEnsuresExecutableBit(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	root := t.TempDir()
	binary := filepath.Join(root, "firecracker")
	writeFakeBinary(t, binary, "#!/bin/sh\n")
	if err := os.Chmod(binary, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root

	got, err := opts.ResolveFirecracker()
	if err != nil {
		t.Fatalf("ResolveFirecracker(): %v", err)
	}
	info, err := os.Stat(got)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Error("owner execute bit should have been set")
	}
}

func TestResolveRejectsNonExecutable(t *testing.T) {
	clearResolverEnv(t)
	releaseArchOrSkip(t)

	root := t.TempDir()
	binary := filepath.Join(root, "firecracker")
	writeFakeBinary(t, binary, "#!/bin/sh\n")
	if err := os.Chmod(binary, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	opts := DefaultOptions()
	opts.Mode = BundledOnly
	opts.BundleRoot = root
	opts.EnsureExecutable = false

	_, err := opts.ResolveFirecracker()
	var notExec *errors.NotExecutableError
	if !errors.As(err, &notExec) {
		t.Fatalf("ResolveFirecracker() = %v, want NotExecutableError", err)
	}
	if notExec.Path != binary {
		t.Errorf("Path = %q, want %q", notExec.Path, binary)
	}
}
