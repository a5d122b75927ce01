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

package client

import "context"

// DescribeInstance returns the instance metadata and state.
func (c *Client) DescribeInstance(ctx context.Context) (*InstanceInfo, error) {
	var info InstanceInfo
	if err := c.get(ctx, "/", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Version returns the firecracker version.
func (c *Client) Version(ctx context.Context) (*FirecrackerVersion, error) {
	var version FirecrackerVersion
	if err := c.get(ctx, "/version", &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// VMConfig returns the full exported VM configuration.
func (c *Client) VMConfig(ctx context.Context) (*FullVMConfiguration, error) {
	var config FullVMConfiguration
	if err := c.get(ctx, "/vm/config", &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// PutLogger configures firecracker's logger. Must precede other
// configuration when used.
func (c *Client) PutLogger(ctx context.Context, logger LoggerConfig) error {
	return c.put(ctx, "/logger", logger)
}

// PutMetrics configures the metrics output.
func (c *Client) PutMetrics(ctx context.Context, metrics MetricsConfig) error {
	return c.put(ctx, "/metrics", metrics)
}

// PutBootSource sets the guest kernel and boot arguments.
func (c *Client) PutBootSource(ctx context.Context, source BootSource) error {
	return c.put(ctx, "/boot-source", source)
}

// PutMachineConfiguration sets vCPU and memory topology.
func (c *Client) PutMachineConfiguration(ctx context.Context, config MachineConfiguration) error {
	return c.put(ctx, "/machine-config", config)
}

// GetMachineConfiguration reads the current machine configuration.
func (c *Client) GetMachineConfiguration(ctx context.Context) (*MachineConfiguration, error) {
	var config MachineConfiguration
	if err := c.get(ctx, "/machine-config", &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// PatchMachineConfiguration updates the machine configuration pre-boot.
func (c *Client) PatchMachineConfiguration(ctx context.Context, config MachineConfiguration) error {
	return c.patch(ctx, "/machine-config", config)
}

// PutCPUConfig applies a custom CPU template.
func (c *Client) PutCPUConfig(ctx context.Context, config CPUConfig) error {
	return c.put(ctx, "/cpu-config", config)
}

// PutDrive attaches a block device.
func (c *Client) PutDrive(ctx context.Context, drive Drive) error {
	return c.put(ctx, pathWithID("/drives/%s", drive.DriveID), drive)
}

// PatchDrive updates a live drive's backing file.
func (c *Client) PatchDrive(ctx context.Context, update PartialDrive) error {
	return c.patch(ctx, pathWithID("/drives/%s", update.DriveID), update)
}

// PutPmem attaches a persistent memory device.
func (c *Client) PutPmem(ctx context.Context, pmem Pmem) error {
	return c.put(ctx, pathWithID("/pmem/%s", pmem.ID), pmem)
}

// PutNetworkInterface attaches a network device.
func (c *Client) PutNetworkInterface(ctx context.Context, iface NetworkInterface) error {
	return c.put(ctx, pathWithID("/network-interfaces/%s", iface.IfaceID), iface)
}

// PatchNetworkInterface updates a live network interface.
func (c *Client) PatchNetworkInterface(ctx context.Context, update PartialNetworkInterface) error {
	return c.patch(ctx, pathWithID("/network-interfaces/%s", update.IfaceID), update)
}

// PutBalloon configures the balloon device pre-boot.
func (c *Client) PutBalloon(ctx context.Context, balloon Balloon) error {
	return c.put(ctx, "/balloon", balloon)
}

// GetBalloon reads the balloon configuration.
func (c *Client) GetBalloon(ctx context.Context) (*Balloon, error) {
	var balloon Balloon
	if err := c.get(ctx, "/balloon", &balloon); err != nil {
		return nil, err
	}
	return &balloon, nil
}

// GetBalloonStats reads balloon statistics.
func (c *Client) GetBalloonStats(ctx context.Context) (*BalloonStats, error) {
	var stats BalloonStats
	if err := c.get(ctx, "/balloon/statistics", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PatchBalloon retargets the balloon size on a running VM.
func (c *Client) PatchBalloon(ctx context.Context, update BalloonUpdate) error {
	return c.patch(ctx, "/balloon", update)
}

// PatchBalloonStats changes the statistics polling interval.
func (c *Client) PatchBalloonStats(ctx context.Context, update BalloonStatsUpdate) error {
	return c.patch(ctx, "/balloon/statistics", update)
}

// PutVsock configures the vsock device.
func (c *Client) PutVsock(ctx context.Context, vsock Vsock) error {
	return c.put(ctx, "/vsock", vsock)
}

// PutEntropy configures the entropy device.
func (c *Client) PutEntropy(ctx context.Context, entropy EntropyDevice) error {
	return c.put(ctx, "/entropy", entropy)
}

// PutSerial redirects the serial console.
func (c *Client) PutSerial(ctx context.Context, serial SerialDevice) error {
	return c.put(ctx, "/serial", serial)
}

// PutMemoryHotplug configures the memory hotplug region pre-boot.
func (c *Client) PutMemoryHotplug(ctx context.Context, hotplug MemoryHotplug) error {
	return c.put(ctx, "/memory-hotplug", hotplug)
}

// PatchMemoryHotplug requests a new plugged memory size.
func (c *Client) PatchMemoryHotplug(ctx context.Context, update MemoryHotplugUpdate) error {
	return c.patch(ctx, "/memory-hotplug", update)
}

// PutMMDSConfig configures the metadata service.
func (c *Client) PutMMDSConfig(ctx context.Context, config MMDSConfig) error {
	return c.put(ctx, "/mmds/config", config)
}

// PutMMDS replaces the metadata document.
func (c *Client) PutMMDS(ctx context.Context, data MMDSData) error {
	return c.put(ctx, "/mmds", data)
}

// PatchMMDS merges into the metadata document.
func (c *Client) PatchMMDS(ctx context.Context, data MMDSData) error {
	return c.patch(ctx, "/mmds", data)
}

// GetMMDS reads the metadata document.
func (c *Client) GetMMDS(ctx context.Context) (MMDSData, error) {
	var data MMDSData
	if err := c.get(ctx, "/mmds", &data); err != nil {
		return nil, err
	}
	return data, nil
}

// CreateSnapshot writes a snapshot of a paused VM.
func (c *Client) CreateSnapshot(ctx context.Context, params SnapshotCreateParams) error {
	return c.put(ctx, "/snapshot/create", params)
}

// LoadSnapshot restores a VM from a snapshot. Only valid before boot.
func (c *Client) LoadSnapshot(ctx context.Context, params SnapshotLoadParams) error {
	return c.put(ctx, "/snapshot/load", params)
}

// PatchVMState pauses or resumes the VM.
func (c *Client) PatchVMState(ctx context.Context, state string) error {
	return c.patch(ctx, "/vm", VMState{State: state})
}

// CreateSyncAction triggers an instance action (start, ctrl-alt-del,
// metrics flush).
func (c *Client) CreateSyncAction(ctx context.Context, actionType string) error {
	return c.put(ctx, "/actions", InstanceAction{ActionType: actionType})
}
