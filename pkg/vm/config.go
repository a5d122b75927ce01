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

// Package vm configures and boots microVMs through a running
// Firecracker instance's API, and exposes a handle for post-boot
// operations (pause/resume, snapshots, balloon, metadata).
package vm

import (
	"context"

	"github.com/arcbox-labs/firecracker-client/pkg/client"
	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// Config is the full pre-boot microVM configuration. It is a plain
// value: populate the fields, then call Start exactly once. BootSource
// and MachineConfig are required; everything else is optional.
type Config struct {
	BootSource    *client.BootSource
	MachineConfig *client.MachineConfiguration

	// Logger and Metrics are applied before all other configuration
	// when set, so firecracker's own diagnostics cover the boot.
	Logger  *client.LoggerConfig
	Metrics *client.MetricsConfig

	CPUConfig         client.CPUConfig
	Drives            []client.Drive
	PmemDevices       []client.Pmem
	NetworkInterfaces []client.NetworkInterface
	Balloon           *client.Balloon
	Vsock             *client.Vsock
	Entropy           *client.EntropyDevice
	Serial            *client.SerialDevice
	MemoryHotplug     *client.MemoryHotplug
	MMDSConfig        *client.MMDSConfig
	MMDSData          client.MMDSData
}

func (c Config) validate() error {
	if c.BootSource == nil {
		return &errors.MissingConfigError{Field: "BootSource"}
	}
	if c.MachineConfig == nil {
		return &errors.MissingConfigError{Field: "MachineConfig"}
	}
	return nil
}

// Start applies the configuration in dependency order and boots the
// microVM, returning a VM handle for post-boot operations.
//
// Apply order is load-bearing: logger and metrics first, then boot
// source and machine config, then devices, then MMDS, then the
// InstanceStart action.
func (c Config) Start(ctx context.Context, api *client.Client) (*VM, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.Logger != nil {
		if err := api.PutLogger(ctx, *c.Logger); err != nil {
			return nil, err
		}
	}
	if c.Metrics != nil {
		if err := api.PutMetrics(ctx, *c.Metrics); err != nil {
			return nil, err
		}
	}

	if err := api.PutBootSource(ctx, *c.BootSource); err != nil {
		return nil, err
	}
	if err := api.PutMachineConfiguration(ctx, *c.MachineConfig); err != nil {
		return nil, err
	}
	if c.CPUConfig != nil {
		if err := api.PutCPUConfig(ctx, c.CPUConfig); err != nil {
			return nil, err
		}
	}

	for _, drive := range c.Drives {
		if err := api.PutDrive(ctx, drive); err != nil {
			return nil, err
		}
	}
	for _, pmem := range c.PmemDevices {
		if err := api.PutPmem(ctx, pmem); err != nil {
			return nil, err
		}
	}
	for _, iface := range c.NetworkInterfaces {
		if err := api.PutNetworkInterface(ctx, iface); err != nil {
			return nil, err
		}
	}

	if c.Balloon != nil {
		if err := api.PutBalloon(ctx, *c.Balloon); err != nil {
			return nil, err
		}
	}
	if c.Vsock != nil {
		if err := api.PutVsock(ctx, *c.Vsock); err != nil {
			return nil, err
		}
	}
	if c.Entropy != nil {
		if err := api.PutEntropy(ctx, *c.Entropy); err != nil {
			return nil, err
		}
	}
	if c.Serial != nil {
		if err := api.PutSerial(ctx, *c.Serial); err != nil {
			return nil, err
		}
	}
	if c.MemoryHotplug != nil {
		if err := api.PutMemoryHotplug(ctx, *c.MemoryHotplug); err != nil {
			return nil, err
		}
	}
	if c.MMDSConfig != nil {
		if err := api.PutMMDSConfig(ctx, *c.MMDSConfig); err != nil {
			return nil, err
		}
	}
	if c.MMDSData != nil {
		if err := api.PutMMDS(ctx, c.MMDSData); err != nil {
			return nil, err
		}
	}

	if err := api.CreateSyncAction(ctx, client.ActionInstanceStart); err != nil {
		return nil, err
	}

	return &VM{api: api}, nil
}

// Restore loads a snapshot instead of booting from a kernel. The
// Firecracker instance must be fresh (nothing configured, not booted).
func Restore(ctx context.Context, api *client.Client, params client.SnapshotLoadParams) (*VM, error) {
	if err := api.LoadSnapshot(ctx, params); err != nil {
		return nil, err
	}
	return &VM{api: api}, nil
}
