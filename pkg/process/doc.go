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

/*
Package process spawns and supervises Firecracker microVM monitor
processes, either directly or through the jailer, and hands back a
Process that owns the child and its API socket.

# Launch paths

FirecrackerConfig launches the firecracker binary directly against a
caller-chosen socket path. JailerConfig launches through the jailer,
which drops privileges and chroots firecracker into
{chroot_base}/{exec_name}/{id}/root; the API socket path inside that
chroot is derived, not chosen, and is available from
JailerConfig.SocketPath before spawning.

Both paths block until the API socket both exists and accepts a
connection, or the readiness timeout elapses. A timeout is reported as
ProcessExitedError instead of SocketTimeoutError when the child is
observed to have already exited, so callers can tell a crash from a
slow boot.

# Ownership

A Process owns its child and, unless detached, removes the socket file
on Close. Detach transfers ownership to the caller: the returned
Detached handle carries only the PID and socket path, and the original
Process no longer terminates anything or cleans anything up.

# Daemonize caveat

When JailerConfig.Daemonize is set the jailer forks and exits; the
child this package spawned is not the monitor process. The resulting
Process holds no child reference and no PID, so Shutdown, Kill, and
Wait are permanent no-ops on it, and socket cleanup is disabled. The
real firecracker process must be managed externally (by PID file, by
cgroup, or by the init system supervising it).
*/
package process
