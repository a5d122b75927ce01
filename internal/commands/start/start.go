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

// Package start implements `fcc start`: resolve binaries, spawn
// firecracker directly or through the jailer, configure the guest over
// the API, and either supervise in the foreground or detach.
package start

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arcbox-labs/firecracker-client/internal/commands/shared"
	"github.com/arcbox-labs/firecracker-client/internal/config"
	"github.com/arcbox-labs/firecracker-client/internal/log"
	"github.com/arcbox-labs/firecracker-client/internal/state"
	"github.com/arcbox-labs/firecracker-client/pkg/client"
	"github.com/arcbox-labs/firecracker-client/pkg/process"
)

const (
	backendFirecracker = "firecracker"
	backendJailer      = "jailer"
)

type startOptions struct {
	resolver shared.ResolverFlags

	// Launch
	backend        string
	firecrackerBin string
	jailerBin      string
	socketPath     string
	id             string
	detach         bool
	configPath     string

	// Jailer
	uid           int
	gid           int
	chrootBase    string
	netns         string
	daemonize     bool
	newPIDNS      bool
	cgroups       []string
	resourceLimit []string
	cgroupVersion string
	parentCgroup  string

	// Guest
	kernel          string
	initrd          string
	rootfs          string
	rootfsID        string
	rootfsReadOnly  bool
	bootArgs        string
	vcpuCount       int64
	memSizeMib      int64
	smt             bool
	trackDirtyPages bool
	noSeccomp       bool
	logPath         string
	metricsPath     string
	logLevel        string

	// Readiness
	socketTimeoutSecs    int
	socketPollIntervalMs int

	// Launch-file-only guest extras
	extraDrives []config.DriveFile
	netIfaces   []config.NetworkInterfaceFile
	mmds        map[string]any
}

// NewStartCommand creates the start command
func NewStartCommand() *cobra.Command {
	cmd, _ := newStartCommand()
	return cmd
}

func newStartCommand() (*cobra.Command, *startOptions) {
	opts := &startOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Boot a Firecracker microVM",
		Long: `Start resolves the firecracker (and optionally jailer) binary, spawns
it, waits for the API socket, applies the guest configuration, and
boots the VM. Without --detach it supervises the VM in the foreground
and shuts it down on interrupt; with --detach it records the instance
in the registry and exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}

	opts.resolver.Register(cmd)

	cmd.Flags().StringVar(&opts.backend, "backend", backendFirecracker, "Launch backend (firecracker or jailer)")
	cmd.Flags().StringVar(&opts.firecrackerBin, "firecracker-bin", "", "Explicit firecracker binary (skips resolution)")
	cmd.Flags().StringVar(&opts.jailerBin, "jailer-bin", "", "Explicit jailer binary (skips resolution)")
	cmd.Flags().StringVar(&opts.socketPath, "socket-path", "/tmp/firecracker.socket", "API socket path (firecracker backend only)")
	cmd.Flags().StringVar(&opts.id, "id", "", "MicroVM identifier")
	cmd.Flags().BoolVar(&opts.detach, "detach", false, "Leave the VM running and exit")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Launch file with guest configuration (YAML)")

	cmd.Flags().IntVar(&opts.uid, "uid", 0, "UID the jailed process drops to")
	cmd.Flags().IntVar(&opts.gid, "gid", 0, "GID the jailed process drops to")
	cmd.Flags().StringVar(&opts.chrootBase, "chroot-base-dir", process.DefaultChrootBase, "Jailer chroot base directory")
	cmd.Flags().StringVar(&opts.netns, "netns", "", "Network namespace for the jailed process")
	cmd.Flags().BoolVar(&opts.daemonize, "daemonize", false, "Let the jailer daemonize firecracker (requires --detach)")
	cmd.Flags().BoolVar(&opts.newPIDNS, "new-pid-ns", false, "Run the jailed process in a new PID namespace")
	cmd.Flags().StringArrayVar(&opts.cgroups, "cgroup", nil, "Cgroup setting file=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.resourceLimit, "resource-limit", nil, "Resource limit resource=value (repeatable)")
	cmd.Flags().StringVar(&opts.cgroupVersion, "cgroup-version", "", "Cgroup version for the jailer (1 or 2)")
	cmd.Flags().StringVar(&opts.parentCgroup, "parent-cgroup", "", "Parent cgroup the jailer creates under")

	cmd.Flags().StringVar(&opts.kernel, "kernel", "", "Guest kernel image path")
	cmd.Flags().StringVar(&opts.initrd, "initrd", "", "Init ramdisk path")
	cmd.Flags().StringVar(&opts.rootfs, "rootfs", "", "Root filesystem image path")
	cmd.Flags().StringVar(&opts.rootfsID, "rootfs-id", "rootfs", "Root block device id")
	cmd.Flags().BoolVar(&opts.rootfsReadOnly, "rootfs-read-only", false, "Mount the root drive read-only")
	cmd.Flags().StringVar(&opts.bootArgs, "boot-args", "", "Kernel boot arguments")
	cmd.Flags().Int64Var(&opts.vcpuCount, "vcpu-count", 1, "Number of vCPUs")
	cmd.Flags().Int64Var(&opts.memSizeMib, "mem-size-mib", 256, "Guest memory size in MiB")
	cmd.Flags().BoolVar(&opts.smt, "smt", false, "Enable simultaneous multithreading")
	cmd.Flags().BoolVar(&opts.trackDirtyPages, "track-dirty-pages", false, "Track dirty pages (needed for diff snapshots)")
	cmd.Flags().BoolVar(&opts.noSeccomp, "no-seccomp", false, "Disable firecracker's seccomp filtering")
	cmd.Flags().StringVar(&opts.logPath, "log-path", "", "Firecracker log file path")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics-path", "", "Firecracker metrics file path")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Firecracker log level (Error, Warning, Info, Debug)")

	cmd.Flags().IntVar(&opts.socketTimeoutSecs, "socket-timeout-secs", 5, "Seconds to wait for the API socket")
	cmd.Flags().IntVar(&opts.socketPollIntervalMs, "socket-poll-interval-ms", 50, "Socket poll interval in milliseconds")

	return cmd, opts
}

func (o *startOptions) validate(cmd *cobra.Command) error {
	switch o.backend {
	case backendFirecracker, backendJailer:
	default:
		return shared.NewInvalidFlagsError(fmt.Sprintf("unknown backend %q (want firecracker or jailer)", o.backend))
	}
	if o.vcpuCount <= 0 {
		return shared.NewInvalidFlagsError("--vcpu-count must be greater than zero")
	}
	if o.memSizeMib <= 0 {
		return shared.NewInvalidFlagsError("--mem-size-mib must be greater than zero")
	}
	if o.kernel == "" {
		return shared.NewInvalidFlagsError("--kernel (or a launch file kernel) is required")
	}
	if o.daemonize && !o.detach {
		return shared.NewInvalidFlagsError("--daemonize requires --detach")
	}
	if o.backend == backendJailer {
		if cmd.Flags().Changed("socket-path") {
			return shared.NewInvalidFlagsError("--socket-path only applies to the firecracker backend (the jailer derives it)")
		}
		if !cmd.Flags().Changed("uid") || !cmd.Flags().Changed("gid") {
			return shared.NewInvalidFlagsError("--uid and --gid are required for the jailer backend")
		}
	}
	return nil
}

// instanceID picks the microVM id: the flag value, a generated uuid
// when detaching, or a fixed default for the jailer (which needs one
// for the chroot path).
func (o *startOptions) instanceID() string {
	if o.id != "" {
		return o.id
	}
	if o.detach {
		return uuid.NewString()
	}
	if o.backend == backendJailer {
		return "fcc-vm"
	}
	return ""
}

func runStart(cmd *cobra.Command, opts *startOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := applyLaunchFile(cmd, opts); err != nil {
		return err
	}
	if err := opts.validate(cmd); err != nil {
		return err
	}

	logCfg := log.FromEnv()
	if shared.GetVerbose() {
		logCfg.Level = "debug"
	}
	if shared.GetQuiet() {
		logCfg.Level = "error"
	}
	logger := log.WithComponent(log.New(logCfg), "start")

	id := opts.instanceID()
	launch, err := prepareLaunch(opts, id, logger)
	if err != nil {
		return err
	}

	proc, err := launch.spawn(ctx)
	if err != nil {
		return shared.NewLaunchError("spawning microVM", err)
	}

	// Staging runs strictly after spawn: the jailer creates the chroot
	// directory tree, and its root is derived from the socket the
	// process actually came up on.
	var staged map[string]string
	var chrootRoot string
	if opts.backend == backendJailer {
		chrootRoot = process.ChrootRoot(proc.SocketPath())
		staged, err = stageGuest(opts, chrootRoot)
		if err != nil {
			proc.Close()
			return err
		}
	}

	guest, err := buildGuest(opts, staged)
	if err != nil {
		proc.Close()
		return err
	}

	api := client.New(proc.SocketPath())
	if _, err := guest.boot(ctx, api); err != nil {
		// The process is useless without a booted guest.
		proc.Close()
		return shared.NewAPIError("configuring microVM", err)
	}

	logger.Info("microVM started",
		slog.String(log.VMIDKey, id),
		slog.String(log.BackendKey, opts.backend),
		slog.String(log.SocketKey, proc.SocketPath()),
		slog.Int(log.PIDKey, proc.PID()))

	cmd.Printf("vm_started=true\n")
	cmd.Printf("backend=%s\n", opts.backend)
	cmd.Printf("detached=%t\n", opts.detach)
	cmd.Printf("socket=%s\n", proc.SocketPath())

	if opts.detach {
		return detachInstance(ctx, cmd, opts, id, chrootRoot, proc)
	}
	return superviseForeground(ctx, cmd, logger, proc)
}

// detachInstance transfers ownership to the caller: record the
// instance in the registry and drop the handle without killing the VM.
func detachInstance(ctx context.Context, cmd *cobra.Command, opts *startOptions, id, chrootRoot string, proc *process.Process) error {
	detached := proc.Detach()

	path, err := state.DefaultPath()
	if err != nil {
		return shared.NewLaunchError("locating instance registry", err)
	}
	store, err := state.Open(path)
	if err != nil {
		return shared.NewLaunchError("opening instance registry", err)
	}
	defer store.Close()

	if err := store.Save(ctx, state.Instance{
		ID:         id,
		PID:        detached.PID,
		SocketPath: detached.SocketPath,
		Backend:    opts.backend,
		ChrootRoot: chrootRoot,
	}); err != nil {
		return shared.NewLaunchError("registering instance", err)
	}

	cmd.Printf("pid=%d\n", detached.PID)
	return nil
}

// superviseForeground blocks until the VM exits or the user
// interrupts, in which case the VM gets a graceful shutdown.
func superviseForeground(ctx context.Context, cmd *cobra.Command, logger *slog.Logger, proc *process.Process) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := proc.Wait(sigCtx)
	if err == nil {
		cmd.Printf("exit_status=%s\n", exitStatus(st))
		return nil
	}
	if sigCtx.Err() == nil {
		return shared.NewLaunchError("waiting for microVM", err)
	}

	// Interrupted: Wait leaves the handle intact on cancellation, so a
	// graceful shutdown can still run.
	logger.Info("shutting down on interrupt")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err = proc.Shutdown(shutdownCtx)
	if err != nil {
		st, err = proc.Kill(shutdownCtx)
	}
	if err != nil {
		return shared.NewLaunchError("stopping microVM", err)
	}
	cmd.Printf("exit_status=%s\n", exitStatus(st))
	return nil
}

func exitStatus(st *os.ProcessState) string {
	if st == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", st.ExitCode())
}
