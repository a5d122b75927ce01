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
	"os"
	"path/filepath"
	"testing"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

func TestCopyIntoChroot(t *testing.T) {
	srcDir := t.TempDir()
	chroot := t.TempDir()
	source := filepath.Join(srcDir, "vmlinux")
	if err := os.WriteFile(source, []byte("kernel image"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	// Chown to our own identity so the test runs unprivileged.
	rel, err := CopyIntoChroot(chroot, source, os.Getuid(), os.Getgid())
	if err != nil {
		t.Fatalf("CopyIntoChroot(): %v", err)
	}
	if rel != "/vmlinux" {
		t.Errorf("relative path = %q, want /vmlinux", rel)
	}

	copied, err := os.ReadFile(filepath.Join(chroot, "vmlinux"))
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(copied) != "kernel image" {
		t.Errorf("copied content = %q", copied)
	}
}

func TestCopyIntoChrootMissingSource(t *testing.T) {
	chroot := t.TempDir()

	_, err := CopyIntoChroot(chroot, filepath.Join(t.TempDir(), "nope"), os.Getuid(), os.Getgid())
	var staging *errors.StagingError
	if !errors.As(err, &staging) {
		t.Fatalf("CopyIntoChroot() = %v, want StagingError", err)
	}
	if staging.Source == "" || staging.Dest == "" {
		t.Errorf("StagingError should name source and dest: %v", staging)
	}
}

func TestStage(t *testing.T) {
	srcDir := t.TempDir()
	chroot := t.TempDir()
	for _, name := range []string{"vmlinux", "rootfs.ext4", "initrd.img"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	staged, err := Stage(chroot, []Artifact{
		{Role: "kernel", Source: filepath.Join(srcDir, "vmlinux")},
		{Role: "rootfs", Source: filepath.Join(srcDir, "rootfs.ext4")},
		{Role: "initrd", Source: filepath.Join(srcDir, "initrd.img")},
	}, os.Getuid(), os.Getgid())
	if err != nil {
		t.Fatalf("Stage(): %v", err)
	}

	want := map[string]string{
		"kernel": "/vmlinux",
		"rootfs": "/rootfs.ext4",
		"initrd": "/initrd.img",
	}
	for role, path := range want {
		if staged[role] != path {
			t.Errorf("staged[%q] = %q, want %q", role, staged[role], path)
		}
	}
}

func TestStageAbortsOnFirstFailure(t *testing.T) {
	srcDir := t.TempDir()
	chroot := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "vmlinux"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Stage(chroot, []Artifact{
		{Role: "rootfs", Source: filepath.Join(srcDir, "missing.ext4")},
		{Role: "kernel", Source: filepath.Join(srcDir, "vmlinux")},
	}, os.Getuid(), os.Getgid())

	var staging *errors.StagingError
	if !errors.As(err, &staging) {
		t.Fatalf("Stage() = %v, want StagingError", err)
	}
	// No partial result is reported.
	if _, statErr := os.Stat(filepath.Join(chroot, "vmlinux")); statErr == nil {
		t.Error("later artifacts should not be staged after a failure")
	}
}
