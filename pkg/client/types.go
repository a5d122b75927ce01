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

// BootSource configures the guest kernel and boot arguments.
type BootSource struct {
	KernelImagePath string `json:"kernel_image_path"`
	BootArgs        string `json:"boot_args,omitempty"`
	InitrdPath      string `json:"initrd_path,omitempty"`
}

// MachineConfiguration sets vCPU and memory topology.
type MachineConfiguration struct {
	VcpuCount       int64  `json:"vcpu_count"`
	MemSizeMib      int64  `json:"mem_size_mib"`
	SMT             *bool  `json:"smt,omitempty"`
	TrackDirtyPages *bool  `json:"track_dirty_pages,omitempty"`
	HugePages       string `json:"huge_pages,omitempty"`
}

// CPUConfig is a custom CPU template, passed through opaquely.
type CPUConfig map[string]any

// Drive attaches a block device backed by a host file.
type Drive struct {
	DriveID      string `json:"drive_id"`
	PathOnHost   string `json:"path_on_host,omitempty"`
	IsRootDevice bool   `json:"is_root_device"`
	IsReadOnly   *bool  `json:"is_read_only,omitempty"`
	CacheType    string `json:"cache_type,omitempty"`
	IOEngine     string `json:"io_engine,omitempty"`
	Partuuid     string `json:"partuuid,omitempty"`
}

// PartialDrive updates a live drive's backing file.
type PartialDrive struct {
	DriveID    string `json:"drive_id"`
	PathOnHost string `json:"path_on_host,omitempty"`
}

// Pmem attaches a persistent memory device backed by a host file.
type Pmem struct {
	ID         string `json:"id"`
	PathOnHost string `json:"path_on_host"`
	RootDevice bool   `json:"root_device,omitempty"`
	ReadOnly   bool   `json:"read_only,omitempty"`
}

// NetworkInterface attaches a tap-backed virtio network device.
type NetworkInterface struct {
	IfaceID     string `json:"iface_id"`
	HostDevName string `json:"host_dev_name"`
	GuestMAC    string `json:"guest_mac,omitempty"`
}

// PartialNetworkInterface updates rate limiting on a live interface.
type PartialNetworkInterface struct {
	IfaceID string `json:"iface_id"`
}

// Balloon configures the memory balloon device.
type Balloon struct {
	AmountMib             int64 `json:"amount_mib"`
	DeflateOnOom          bool  `json:"deflate_on_oom"`
	StatsPollingIntervalS int64 `json:"stats_polling_interval_s,omitempty"`
}

// BalloonUpdate retargets the balloon size on a running VM.
type BalloonUpdate struct {
	AmountMib int64 `json:"amount_mib"`
}

// BalloonStatsUpdate changes the statistics polling interval.
type BalloonStatsUpdate struct {
	StatsPollingIntervalS int64 `json:"stats_polling_interval_s"`
}

// BalloonStats is the statistics snapshot reported by the balloon.
type BalloonStats struct {
	TargetPages     int64  `json:"target_pages"`
	ActualPages     int64  `json:"actual_pages"`
	TargetMib       int64  `json:"target_mib"`
	ActualMib       int64  `json:"actual_mib"`
	SwapIn          *int64 `json:"swap_in,omitempty"`
	SwapOut         *int64 `json:"swap_out,omitempty"`
	MajorFaults     *int64 `json:"major_faults,omitempty"`
	MinorFaults     *int64 `json:"minor_faults,omitempty"`
	FreeMemory      *int64 `json:"free_memory,omitempty"`
	TotalMemory     *int64 `json:"total_memory,omitempty"`
	AvailableMemory *int64 `json:"available_memory,omitempty"`
}

// Vsock configures the virtio vsock device.
type Vsock struct {
	GuestCID int64  `json:"guest_cid"`
	UDSPath  string `json:"uds_path"`
	VsockID  string `json:"vsock_id,omitempty"`
}

// EntropyDevice configures the virtio entropy device.
type EntropyDevice struct{}

// SerialDevice redirects the serial console to a host path.
type SerialDevice struct {
	SerialOutPath string `json:"serial_out_path"`
}

// MemoryHotplug configures the virtio-mem hotplug region.
type MemoryHotplug struct {
	TotalSizeMib int64 `json:"total_size_mib"`
}

// MemoryHotplugUpdate requests a new plugged size.
type MemoryHotplugUpdate struct {
	RequestedSizeMib int64 `json:"requested_size_mib"`
}

// LoggerConfig configures firecracker's own log output.
type LoggerConfig struct {
	LogPath       string `json:"log_path,omitempty"`
	Level         string `json:"level,omitempty"`
	ShowLevel     *bool  `json:"show_level,omitempty"`
	ShowLogOrigin *bool  `json:"show_log_origin,omitempty"`
}

// MetricsConfig configures firecracker's metrics output.
type MetricsConfig struct {
	MetricsPath string `json:"metrics_path"`
}

// MMDSConfig configures the microVM metadata service.
type MMDSConfig struct {
	Version           string   `json:"version,omitempty"`
	NetworkInterfaces []string `json:"network_interfaces,omitempty"`
	IPv4Address       string   `json:"ipv4_address,omitempty"`
}

// MMDSData is the metadata document served to the guest.
type MMDSData map[string]any

// SnapshotCreateParams requests a full or diff snapshot.
type SnapshotCreateParams struct {
	SnapshotType string `json:"snapshot_type,omitempty"`
	SnapshotPath string `json:"snapshot_path"`
	MemFilePath  string `json:"mem_file_path"`
}

// SnapshotLoadParams restores a VM from a snapshot.
type SnapshotLoadParams struct {
	SnapshotPath        string      `json:"snapshot_path"`
	MemBackend          *MemBackend `json:"mem_backend,omitempty"`
	EnableDiffSnapshots bool        `json:"enable_diff_snapshots,omitempty"`
	ResumeVM            bool        `json:"resume_vm,omitempty"`
}

// MemBackend locates snapshot guest memory.
type MemBackend struct {
	BackendType string `json:"backend_type"`
	BackendPath string `json:"backend_path"`
}

// Snapshot type values.
const (
	SnapshotTypeFull = "Full"
	SnapshotTypeDiff = "Diff"
)

// InstanceInfo describes the instance, returned by GET /.
type InstanceInfo struct {
	AppName    string `json:"app_name"`
	ID         string `json:"id"`
	State      string `json:"state"`
	VmmVersion string `json:"vmm_version"`
}

// Instance states reported in InstanceInfo.
const (
	StateNotStarted = "Not started"
	StateRunning    = "Running"
	StatePaused     = "Paused"
)

// FirecrackerVersion is returned by GET /version.
type FirecrackerVersion struct {
	FirecrackerVersion string `json:"firecracker_version"`
}

// VMState requests a pause or resume via PATCH /vm.
type VMState struct {
	State string `json:"state"`
}

// VMState values.
const (
	VMStatePaused  = "Paused"
	VMStateResumed = "Resumed"
)

// InstanceAction triggers a synchronous action via PUT /actions.
type InstanceAction struct {
	ActionType string `json:"action_type"`
}

// Instance action types.
const (
	ActionInstanceStart  = "InstanceStart"
	ActionSendCtrlAltDel = "SendCtrlAltDel"
	ActionFlushMetrics   = "FlushMetrics"
)

// FullVMConfiguration is the aggregate returned by GET /vm/config.
type FullVMConfiguration struct {
	BootSource        *BootSource           `json:"boot-source,omitempty"`
	MachineConfig     *MachineConfiguration `json:"machine-config,omitempty"`
	Drives            []Drive               `json:"drives,omitempty"`
	NetworkInterfaces []NetworkInterface    `json:"network-interfaces,omitempty"`
	Balloon           *Balloon              `json:"balloon,omitempty"`
	Vsock             *Vsock                `json:"vsock,omitempty"`
	Logger            *LoggerConfig         `json:"logger,omitempty"`
	Metrics           *MetricsConfig        `json:"metrics,omitempty"`
	MMDSConfig        *MMDSConfig           `json:"mmds-config,omitempty"`
}
