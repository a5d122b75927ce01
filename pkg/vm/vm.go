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

package vm

import (
	"context"

	"github.com/arcbox-labs/firecracker-client/pkg/client"
)

// VM is a handle to a booted (or restored) microVM. All operations go
// through the instance's API socket; the handle holds no local state.
type VM struct {
	api *client.Client
}

// NewVM wraps an existing client for a VM that is already booted, for
// example after reattaching to a detached process.
func NewVM(api *client.Client) *VM {
	return &VM{api: api}
}

// Client returns the underlying API client.
func (v *VM) Client() *client.Client {
	return v.api
}

// Describe returns instance metadata and state.
func (v *VM) Describe(ctx context.Context) (*client.InstanceInfo, error) {
	return v.api.DescribeInstance(ctx)
}

// Version returns the firecracker version.
func (v *VM) Version(ctx context.Context) (*client.FirecrackerVersion, error) {
	return v.api.Version(ctx)
}

// Config returns the full exported VM configuration.
func (v *VM) Config(ctx context.Context) (*client.FullVMConfiguration, error) {
	return v.api.VMConfig(ctx)
}

// Pause suspends vCPU execution.
func (v *VM) Pause(ctx context.Context) error {
	return v.api.PatchVMState(ctx, client.VMStatePaused)
}

// Resume continues vCPU execution after a pause.
func (v *VM) Resume(ctx context.Context) error {
	return v.api.PatchVMState(ctx, client.VMStateResumed)
}

// SendCtrlAltDel injects ctrl-alt-del, asking the guest to shut down.
func (v *VM) SendCtrlAltDel(ctx context.Context) error {
	return v.api.CreateSyncAction(ctx, client.ActionSendCtrlAltDel)
}

// FlushMetrics forces a metrics write.
func (v *VM) FlushMetrics(ctx context.Context) error {
	return v.api.CreateSyncAction(ctx, client.ActionFlushMetrics)
}

// CreateSnapshot writes a full snapshot. The VM must be paused.
func (v *VM) CreateSnapshot(ctx context.Context, snapshotPath, memFilePath string) error {
	return v.api.CreateSnapshot(ctx, client.SnapshotCreateParams{
		SnapshotType: client.SnapshotTypeFull,
		SnapshotPath: snapshotPath,
		MemFilePath:  memFilePath,
	})
}

// CreateDiffSnapshot writes a diff snapshot. The VM must be paused and
// have been started with dirty page tracking.
func (v *VM) CreateDiffSnapshot(ctx context.Context, snapshotPath, memFilePath string) error {
	return v.api.CreateSnapshot(ctx, client.SnapshotCreateParams{
		SnapshotType: client.SnapshotTypeDiff,
		SnapshotPath: snapshotPath,
		MemFilePath:  memFilePath,
	})
}

// UpdateDrive swaps a live drive's backing file.
func (v *VM) UpdateDrive(ctx context.Context, update client.PartialDrive) error {
	return v.api.PatchDrive(ctx, update)
}

// UpdateNetworkInterface updates a live network interface.
func (v *VM) UpdateNetworkInterface(ctx context.Context, update client.PartialNetworkInterface) error {
	return v.api.PatchNetworkInterface(ctx, update)
}

// BalloonConfig reads the balloon configuration.
func (v *VM) BalloonConfig(ctx context.Context) (*client.Balloon, error) {
	return v.api.GetBalloon(ctx)
}

// BalloonStats reads balloon statistics.
func (v *VM) BalloonStats(ctx context.Context) (*client.BalloonStats, error) {
	return v.api.GetBalloonStats(ctx)
}

// UpdateBalloon retargets the balloon size.
func (v *VM) UpdateBalloon(ctx context.Context, amountMib int64) error {
	return v.api.PatchBalloon(ctx, client.BalloonUpdate{AmountMib: amountMib})
}

// UpdateBalloonStatsInterval changes the statistics polling interval.
func (v *VM) UpdateBalloonStatsInterval(ctx context.Context, seconds int64) error {
	return v.api.PatchBalloonStats(ctx, client.BalloonStatsUpdate{StatsPollingIntervalS: seconds})
}

// MachineConfiguration reads the current machine configuration.
func (v *VM) MachineConfiguration(ctx context.Context) (*client.MachineConfiguration, error) {
	return v.api.GetMachineConfiguration(ctx)
}

// UpdateMemoryHotplug requests a new plugged memory size.
func (v *VM) UpdateMemoryHotplug(ctx context.Context, requestedSizeMib int64) error {
	return v.api.PatchMemoryHotplug(ctx, client.MemoryHotplugUpdate{RequestedSizeMib: requestedSizeMib})
}

// MMDS reads the metadata document.
func (v *VM) MMDS(ctx context.Context) (client.MMDSData, error) {
	return v.api.GetMMDS(ctx)
}

// SetMMDS replaces the metadata document.
func (v *VM) SetMMDS(ctx context.Context, data client.MMDSData) error {
	return v.api.PutMMDS(ctx, data)
}

// PatchMMDS merges into the metadata document.
func (v *VM) PatchMMDS(ctx context.Context, data client.MMDSData) error {
	return v.api.PatchMMDS(ctx, data)
}
