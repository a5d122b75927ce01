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

// Package config loads microVM launch files. A launch file captures
// the guest configuration of `fcc start` in YAML so complex VMs do not
// need long flag lists.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LaunchFile is the YAML schema for `fcc start --config`.
//
// Flags given on the command line override the corresponding file
// values.
type LaunchFile struct {
	// Kernel is the guest kernel image path (required unless given
	// via --kernel).
	Kernel string `yaml:"kernel"`

	// Initrd is an optional init ramdisk path.
	Initrd string `yaml:"initrd"`

	// Rootfs is the root filesystem image path.
	Rootfs string `yaml:"rootfs"`

	// RootfsID names the root block device (default "rootfs").
	RootfsID string `yaml:"rootfs_id"`

	// RootfsReadOnly mounts the root drive read-only.
	RootfsReadOnly bool `yaml:"rootfs_read_only"`

	// BootArgs are the kernel boot arguments.
	BootArgs string `yaml:"boot_args"`

	// VcpuCount is the number of vCPUs (default 1).
	VcpuCount int64 `yaml:"vcpu_count"`

	// MemSizeMib is the guest memory size in MiB (default 256).
	MemSizeMib int64 `yaml:"mem_size_mib"`

	// SMT enables simultaneous multithreading.
	SMT bool `yaml:"smt"`

	// TrackDirtyPages enables dirty page tracking (needed for diff
	// snapshots).
	TrackDirtyPages bool `yaml:"track_dirty_pages"`

	// Drives are additional non-root block devices.
	Drives []DriveFile `yaml:"drives"`

	// NetworkInterfaces are tap-backed guest network devices.
	NetworkInterfaces []NetworkInterfaceFile `yaml:"network_interfaces"`

	// MMDS is an optional metadata document served to the guest.
	MMDS map[string]any `yaml:"mmds"`
}

// DriveFile is one additional block device in a launch file.
type DriveFile struct {
	ID       string `yaml:"id"`
	Path     string `yaml:"path"`
	ReadOnly bool   `yaml:"read_only"`
}

// NetworkInterfaceFile is one guest network device in a launch file.
type NetworkInterfaceFile struct {
	ID          string `yaml:"id"`
	HostDevName string `yaml:"host_dev_name"`
	GuestMAC    string `yaml:"guest_mac"`
}

// LoadLaunchFile reads and validates a launch file.
func LoadLaunchFile(path string) (*LaunchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading launch file: %w", err)
	}

	var lf LaunchFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&lf); err != nil {
		return nil, fmt.Errorf("parsing launch file %s: %w", path, err)
	}

	if err := lf.validate(); err != nil {
		return nil, fmt.Errorf("invalid launch file %s: %w", path, err)
	}
	return &lf, nil
}

func (lf *LaunchFile) validate() error {
	for i, drive := range lf.Drives {
		if drive.ID == "" {
			return fmt.Errorf("drives[%d]: id is required", i)
		}
		if drive.Path == "" {
			return fmt.Errorf("drives[%d]: path is required", i)
		}
	}
	for i, iface := range lf.NetworkInterfaces {
		if iface.ID == "" {
			return fmt.Errorf("network_interfaces[%d]: id is required", i)
		}
		if iface.HostDevName == "" {
			return fmt.Errorf("network_interfaces[%d]: host_dev_name is required", i)
		}
	}
	if lf.VcpuCount < 0 {
		return fmt.Errorf("vcpu_count must not be negative")
	}
	if lf.MemSizeMib < 0 {
		return fmt.Errorf("mem_size_mib must not be negative")
	}
	return nil
}
