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

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arcbox-labs/firecracker-client/pkg/errors"
)

// recordedRequest captures one request seen by the fake API server.
type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeAPI serves the Firecracker API over a unix socket for tests.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
	if r.Body != nil {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			rec.Body = body
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	if f.handler != nil {
		f.handler(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

// startFakeAPI serves api on a unix socket and returns a client for it.
func startFakeAPI(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "fc.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := &http.Server{Handler: api}
	go server.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { server.Close() })
	return New(sock)
}

func TestDescribeInstance(t *testing.T) {
	api := &fakeAPI{handler: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(InstanceInfo{ //nolint:errcheck
			AppName:    "Firecracker",
			ID:         "my-vm",
			State:      StateRunning,
			VmmVersion: "1.12.0",
		})
	}}
	c := startFakeAPI(t, api)

	info, err := c.DescribeInstance(context.Background())
	if err != nil {
		t.Fatalf("DescribeInstance(): %v", err)
	}
	if info.ID != "my-vm" || info.State != StateRunning {
		t.Errorf("info = %+v", info)
	}
}

func TestAPIErrorCarriesFaultMessage(t *testing.T) {
	api := &fakeAPI{handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"fault_message": "The vCPU number is invalid!",
		})
	}}
	c := startFakeAPI(t, api)

	err := c.PutMachineConfiguration(context.Background(), MachineConfiguration{VcpuCount: 99})
	var apiErr *errors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("PutMachineConfiguration() = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.FaultMessage != "The vCPU number is invalid!" {
		t.Errorf("FaultMessage = %q", apiErr.FaultMessage)
	}
	if apiErr.Method != http.MethodPut || apiErr.Path != "/machine-config" {
		t.Errorf("Method/Path = %s %s", apiErr.Method, apiErr.Path)
	}
}

func TestPutDriveTargetsDriveID(t *testing.T) {
	api := &fakeAPI{}
	c := startFakeAPI(t, api)

	readOnly := false
	err := c.PutDrive(context.Background(), Drive{
		DriveID:      "rootfs",
		PathOnHost:   "/images/rootfs.ext4",
		IsRootDevice: true,
		IsReadOnly:   &readOnly,
	})
	if err != nil {
		t.Fatalf("PutDrive(): %v", err)
	}

	reqs := api.recorded()
	if len(reqs) != 1 {
		t.Fatalf("recorded %d requests, want 1", len(reqs))
	}
	if reqs[0].Method != http.MethodPut || reqs[0].Path != "/drives/rootfs" {
		t.Errorf("request = %s %s, want PUT /drives/rootfs", reqs[0].Method, reqs[0].Path)
	}
	if reqs[0].Body["drive_id"] != "rootfs" || reqs[0].Body["is_root_device"] != true {
		t.Errorf("body = %v", reqs[0].Body)
	}
}

func TestCreateSyncAction(t *testing.T) {
	api := &fakeAPI{}
	c := startFakeAPI(t, api)

	if err := c.CreateSyncAction(context.Background(), ActionInstanceStart); err != nil {
		t.Fatalf("CreateSyncAction(): %v", err)
	}

	reqs := api.recorded()
	if reqs[0].Path != "/actions" || reqs[0].Body["action_type"] != ActionInstanceStart {
		t.Errorf("request = %+v", reqs[0])
	}
}

func TestPatchVMState(t *testing.T) {
	api := &fakeAPI{}
	c := startFakeAPI(t, api)

	if err := c.PatchVMState(context.Background(), VMStatePaused); err != nil {
		t.Fatalf("PatchVMState(): %v", err)
	}

	reqs := api.recorded()
	if reqs[0].Method != http.MethodPatch || reqs[0].Path != "/vm" {
		t.Errorf("request = %s %s, want PATCH /vm", reqs[0].Method, reqs[0].Path)
	}
	if reqs[0].Body["state"] != VMStatePaused {
		t.Errorf("body = %v", reqs[0].Body)
	}
}

func TestGetMMDS(t *testing.T) {
	api := &fakeAPI{handler: func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/mmds" {
			json.NewEncoder(w).Encode(map[string]any{"hostname": "guest-1"}) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}}
	c := startFakeAPI(t, api)

	data, err := c.GetMMDS(context.Background())
	if err != nil {
		t.Fatalf("GetMMDS(): %v", err)
	}
	if data["hostname"] != "guest-1" {
		t.Errorf("data = %v", data)
	}
}
