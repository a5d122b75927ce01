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
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// normalizeChecksum strips an optional "sha256:" prefix and lowercases
// the digest so comparisons are case-insensitive.
func normalizeChecksum(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimPrefix(strings.ToLower(value), "sha256:")
}

// isHexDigest reports whether value is a well-formed SHA-256 hex digest.
func isHexDigest(value string) bool {
	if len(value) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}

// verifyChecksum streams the file through SHA-256 and compares against
// the expected digest. Binaries can be large; the file is never read
// into memory whole.
func verifyChecksum(binary, path, expected string) error {
	want := normalizeChecksum(expected)
	if !isHexDigest(want) {
		return &errors.InvalidChecksumError{Binary: binary, Checksum: expected}
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s for verification", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrapf(err, "hashing %s", path)
	}
	got := hex.EncodeToString(h.Sum(nil))

	if got != want {
		return &errors.ChecksumMismatchError{
			Binary:   binary,
			Path:     path,
			Expected: want,
			Actual:   got,
		}
	}
	return nil
}
