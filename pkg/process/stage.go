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

package process

import (
	"io"
	"os"
	"path/filepath"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// ChrootRoot derives the chroot root directory from a jailer socket
// path by stripping the trailing run/{socket} segments. The result is
// the directory the jailed firecracker sees as "/".
func ChrootRoot(socketPath string) string {
	return filepath.Dir(filepath.Dir(socketPath))
}

// Artifact is one file to stage into the chroot before configuring
// the microVM.
type Artifact struct {
	// Role identifies the artifact in the returned path map
	// (e.g. "kernel", "rootfs", "initrd").
	Role string

	// Source is the path to copy from. Only the filename survives the
	// copy; the source directory is discarded.
	Source string
}

// CopyIntoChroot copies source into chrootRoot by filename, sets its
// ownership to uid/gid, and returns the chroot-relative path
// ("/" + filename) for use in configuration calls.
func CopyIntoChroot(chrootRoot, source string, uid, gid int) (string, error) {
	name := filepath.Base(source)
	if name == "." || name == string(filepath.Separator) {
		return "", &errors.StagingError{
			Source: source,
			Dest:   chrootRoot,
			Cause:  errors.New("source path has no filename"),
		}
	}
	dest := filepath.Join(chrootRoot, name)

	if err := copyFile(source, dest); err != nil {
		return "", &errors.StagingError{Source: source, Dest: dest, Cause: err}
	}
	if err := os.Chown(dest, uid, gid); err != nil {
		return "", &errors.StagingError{Source: source, Dest: dest, Cause: err}
	}

	// Firecracker sees the chroot root as /.
	return "/" + name, nil
}

// Stage copies each artifact into chrootRoot and chowns it to the
// sandbox identity. Returns role to chroot-relative path. The first
// failure aborts the whole operation; partial staging is fatal to the
// launch attempt.
func Stage(chrootRoot string, artifacts []Artifact, uid, gid int) (map[string]string, error) {
	staged := make(map[string]string, len(artifacts))
	for _, artifact := range artifacts {
		path, err := CopyIntoChroot(chrootRoot, artifact.Source, uid, gid)
		if err != nil {
			return nil, err
		}
		staged[artifact.Role] = path
	}
	return staged, nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
