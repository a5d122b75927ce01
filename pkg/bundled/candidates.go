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
)

// systemCandidates enumerates PATH locations for name. A name that is
// itself a path is taken as the sole candidate; joining it onto PATH
// directories would let an unrelated installation shadow it.
func systemCandidates(name string) []string {
	if looksLikePath(name) {
		return []string{name}
	}
	var candidates []string
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, name))
	}
	return candidates
}

// bundledCandidates enumerates every bundled layout under every root, in
// priority order. Release-tagged layouts come first when a tag is set;
// within a root, more specific layouts beat the flattened fallback.
func bundledCandidates(name string, roots []string, releaseTag, releaseArch string) []string {
	var candidates []string
	for _, root := range roots {
		if releaseTag != "" {
			release := fmt.Sprintf("release-%s-%s", releaseTag, releaseArch)
			versioned := fmt.Sprintf("%s-%s-%s", name, releaseTag, releaseArch)
			candidates = append(candidates,
				filepath.Join(root, release, versioned),
				filepath.Join(root, release, "bin", versioned),
				filepath.Join(root, versioned),
			)
		}
		for _, key := range targetKeys(releaseArch) {
			candidates = append(candidates,
				filepath.Join(root, key, name),
				filepath.Join(root, key, "bin", name),
			)
		}
		candidates = append(candidates, filepath.Join(root, name))
	}
	return candidates
}

// targetKeys returns the per-platform directory names a bundle may use,
// both os-arch and arch-os spellings.
func targetKeys(arch string) []string {
	osName := runtimeOS()
	return []string{
		osName + "-" + arch,
		arch + "-" + osName,
	}
}

// ensureExecutable adds owner read and execute bits when missing.
// Release archives unpacked by some tools drop the mode bits.
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode()
	if mode.Perm()&0o100 != 0 {
		return nil
	}
	return os.Chmod(path, mode|0o500)
}

// isExecutable reports whether any execute bit is set on the file.
func isExecutable(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.Mode().Perm()&0o111 != 0, nil
}
