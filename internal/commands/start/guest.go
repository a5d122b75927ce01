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

package start

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcbox-labs/firecracker-client/internal/commands/shared"
	"github.com/arcbox-labs/firecracker-client/internal/config"
	"github.com/arcbox-labs/firecracker-client/pkg/client"
	"github.com/arcbox-labs/firecracker-client/pkg/process"
	"github.com/arcbox-labs/firecracker-client/pkg/vm"
)

// Chroot-relative firecracker log and metrics destinations for jailer
// launches; host paths make no sense inside the chroot.
const (
	chrootLogFile     = "firecracker.log"
	chrootMetricsFile = "firecracker-metrics"
)

// applyLaunchFile merges --config into opts. Command-line flags win
// over file values, so only fields the user did not set are filled in.
func applyLaunchFile(cmd *cobra.Command, opts *startOptions) error {
	if opts.configPath == "" {
		return nil
	}

	lf, err := config.LoadLaunchFile(opts.configPath)
	if err != nil {
		return shared.NewInvalidFlagsError(err.Error())
	}

	flags := cmd.Flags()
	if !flags.Changed("kernel") && lf.Kernel != "" {
		opts.kernel = lf.Kernel
	}
	if !flags.Changed("initrd") && lf.Initrd != "" {
		opts.initrd = lf.Initrd
	}
	if !flags.Changed("rootfs") && lf.Rootfs != "" {
		opts.rootfs = lf.Rootfs
	}
	if !flags.Changed("rootfs-id") && lf.RootfsID != "" {
		opts.rootfsID = lf.RootfsID
	}
	if !flags.Changed("rootfs-read-only") {
		opts.rootfsReadOnly = lf.RootfsReadOnly
	}
	if !flags.Changed("boot-args") && lf.BootArgs != "" {
		opts.bootArgs = lf.BootArgs
	}
	if !flags.Changed("vcpu-count") && lf.VcpuCount > 0 {
		opts.vcpuCount = lf.VcpuCount
	}
	if !flags.Changed("mem-size-mib") && lf.MemSizeMib > 0 {
		opts.memSizeMib = lf.MemSizeMib
	}
	if !flags.Changed("smt") {
		opts.smt = lf.SMT
	}
	if !flags.Changed("track-dirty-pages") {
		opts.trackDirtyPages = lf.TrackDirtyPages
	}

	opts.extraDrives = lf.Drives
	opts.netIfaces = lf.NetworkInterfaces
	opts.mmds = lf.MMDS
	return nil
}

// guestPlan is the API-side half of a launch: the configuration that
// gets applied once the socket is up.
type guestPlan struct {
	cfg vm.Config
}

func (g guestPlan) boot(ctx context.Context, api *client.Client) (*vm.VM, error) {
	return g.cfg.Start(ctx, api)
}

// launchPlan is a ready-to-spawn process configuration. Exactly one of
// fcCfg/jailCfg is set.
type launchPlan struct {
	fcCfg   *process.FirecrackerConfig
	jailCfg *process.JailerConfig
}

func (l *launchPlan) spawn(ctx context.Context) (*process.Process, error) {
	if l.jailCfg != nil {
		return l.jailCfg.Spawn(ctx)
	}
	return l.fcCfg.Spawn(ctx)
}

// prepareLaunch resolves binaries and builds the process
// configuration. Guest staging happens after spawn: the jailer owns
// the chroot directory and creates it itself.
func prepareLaunch(opts *startOptions, id string, logger *slog.Logger) (*launchPlan, error) {
	resolverOpts, err := opts.resolver.Options()
	if err != nil {
		return nil, err
	}

	fcBin := opts.firecrackerBin
	if fcBin == "" {
		fcBin, err = resolverOpts.ResolveFirecracker()
		if err != nil {
			return nil, shared.NewResolveError("resolving firecracker", err)
		}
	}

	timeout := time.Duration(opts.socketTimeoutSecs) * time.Second
	pollInterval := time.Duration(opts.socketPollIntervalMs) * time.Millisecond

	if opts.backend == backendFirecracker {
		cfg := process.NewFirecrackerConfig(fcBin, opts.socketPath)
		cfg.ID = id
		cfg.NoSeccomp = opts.noSeccomp
		cfg.LogPath = opts.logPath
		cfg.LogLevel = opts.logLevel
		cfg.MetricsPath = opts.metricsPath
		cfg.SocketTimeout = timeout
		cfg.PollInterval = pollInterval
		cfg.Logger = logger
		return &launchPlan{fcCfg: &cfg}, nil
	}

	jailerBin := opts.jailerBin
	if jailerBin == "" {
		jailerBin, err = resolverOpts.ResolveJailer()
		if err != nil {
			return nil, shared.NewResolveError("resolving jailer", err)
		}
	}

	cfg := process.NewJailerConfig(jailerBin, fcBin, id, opts.uid, opts.gid)
	cfg.ChrootBase = opts.chrootBase
	cfg.NetNS = opts.netns
	cfg.Daemonize = opts.daemonize
	cfg.NewPIDNS = opts.newPIDNS
	cfg.Cgroups = opts.cgroups
	cfg.ResourceLimits = opts.resourceLimit
	cfg.CgroupVersion = opts.cgroupVersion
	cfg.ParentCgroup = opts.parentCgroup
	cfg.SocketTimeout = timeout
	cfg.PollInterval = pollInterval
	cfg.Logger = logger
	if opts.noSeccomp {
		cfg.FirecrackerArgs = append(cfg.FirecrackerArgs, "--no-seccomp")
	}
	return &launchPlan{jailCfg: &cfg}, nil
}

// stageGuest copies the kernel, initrd, rootfs, and extra drive images
// into the chroot and returns host path -> chroot path mappings. It
// runs after spawn; the chroot root must already exist because the
// jailer creates it.
func stageGuest(opts *startOptions, chrootRoot string) (map[string]string, error) {
	artifacts := []process.Artifact{{Role: "kernel", Source: opts.kernel}}
	if opts.initrd != "" {
		artifacts = append(artifacts, process.Artifact{Role: "initrd", Source: opts.initrd})
	}
	if opts.rootfs != "" {
		artifacts = append(artifacts, process.Artifact{Role: opts.rootfsID, Source: opts.rootfs})
	}
	for _, drive := range opts.extraDrives {
		artifacts = append(artifacts, process.Artifact{Role: drive.ID, Source: drive.Path})
	}

	placed, err := process.Stage(chrootRoot, artifacts, opts.uid, opts.gid)
	if err != nil {
		return nil, shared.NewLaunchError("staging guest artifacts", err)
	}

	// Firecracker drops to uid/gid inside the chroot and cannot create
	// its own log or metrics files there; pre-create them writable.
	if opts.logPath != "" {
		if err := createChrootFile(chrootRoot, chrootLogFile, opts.uid, opts.gid); err != nil {
			return nil, shared.NewLaunchError("preparing chroot log file", err)
		}
	}
	if opts.metricsPath != "" {
		if err := createChrootFile(chrootRoot, chrootMetricsFile, opts.uid, opts.gid); err != nil {
			return nil, shared.NewLaunchError("preparing chroot metrics file", err)
		}
	}

	staged := map[string]string{opts.kernel: placed["kernel"]}
	if opts.initrd != "" {
		staged[opts.initrd] = placed["initrd"]
	}
	if opts.rootfs != "" {
		staged[opts.rootfs] = placed[opts.rootfsID]
	}
	for _, drive := range opts.extraDrives {
		staged[drive.Path] = placed[drive.ID]
	}
	return staged, nil
}

func createChrootFile(chrootRoot, name string, uid, gid int) error {
	path := filepath.Join(chrootRoot, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	f.Close()
	return os.Chown(path, uid, gid)
}

// buildGuest assembles the API-side configuration. When staged is
// non-nil (jailer launch), guest paths are remapped into the chroot
// and firecracker's own log/metrics land on chroot-relative files.
func buildGuest(opts *startOptions, staged map[string]string) (guestPlan, error) {
	remap := func(path string) string {
		if staged == nil {
			return path
		}
		if inChroot, ok := staged[path]; ok {
			return inChroot
		}
		return path
	}

	cfg := vm.Config{
		BootSource: &client.BootSource{
			KernelImagePath: remap(opts.kernel),
			BootArgs:        opts.bootArgs,
		},
		MachineConfig: &client.MachineConfiguration{
			VcpuCount:  opts.vcpuCount,
			MemSizeMib: opts.memSizeMib,
		},
	}
	if opts.initrd != "" {
		cfg.BootSource.InitrdPath = remap(opts.initrd)
	}
	if opts.smt {
		cfg.MachineConfig.SMT = boolPtr(true)
	}
	if opts.trackDirtyPages {
		cfg.MachineConfig.TrackDirtyPages = boolPtr(true)
	}

	if opts.rootfs != "" {
		cfg.Drives = append(cfg.Drives, client.Drive{
			DriveID:      opts.rootfsID,
			PathOnHost:   remap(opts.rootfs),
			IsRootDevice: true,
			IsReadOnly:   boolPtr(opts.rootfsReadOnly),
		})
	}
	for _, drive := range opts.extraDrives {
		cfg.Drives = append(cfg.Drives, client.Drive{
			DriveID:    drive.ID,
			PathOnHost: remap(drive.Path),
			IsReadOnly: boolPtr(drive.ReadOnly),
		})
	}

	var ifaceIDs []string
	for _, iface := range opts.netIfaces {
		cfg.NetworkInterfaces = append(cfg.NetworkInterfaces, client.NetworkInterface{
			IfaceID:     iface.ID,
			HostDevName: iface.HostDevName,
			GuestMAC:    iface.GuestMAC,
		})
		ifaceIDs = append(ifaceIDs, iface.ID)
	}

	if len(opts.mmds) > 0 {
		if len(ifaceIDs) == 0 {
			return guestPlan{}, shared.NewInvalidFlagsError("mmds requires at least one network interface")
		}
		cfg.MMDSConfig = &client.MMDSConfig{Version: "V2", NetworkInterfaces: ifaceIDs}
		cfg.MMDSData = client.MMDSData(opts.mmds)
	}

	// Jailer launches cannot log to host paths; point firecracker at
	// files inside the chroot instead.
	if staged != nil {
		if opts.logPath != "" {
			cfg.Logger = &client.LoggerConfig{LogPath: chrootLogFile, Level: opts.logLevel}
		}
		if opts.metricsPath != "" {
			cfg.Metrics = &client.MetricsConfig{MetricsPath: chrootMetricsFile}
		}
	}

	return guestPlan{cfg: cfg}, nil
}

func boolPtr(v bool) *bool {
	return &v
}
