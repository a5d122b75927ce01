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

// Package state persists the registry of detached microVM instances so
// later invocations can list and stop them.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Instance is one registered microVM.
type Instance struct {
	// ID is the caller-supplied or generated instance identifier.
	ID string

	// PID of the firecracker process, or 0 when unknown (daemonized
	// jailer launches never expose one).
	PID int

	// SocketPath is the API socket for reattaching a client.
	SocketPath string

	// Backend is "firecracker" or "jailer".
	Backend string

	// ChrootRoot is set for jailer launches.
	ChrootRoot string

	// StartedAt records when the instance was registered.
	StartedAt time.Time
}

// Store is a SQLite-backed instance registry.
//
// Database location defaults to ~/.fcc/instances.db. WAL mode keeps
// concurrent fcc invocations from tripping over each other.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default registry database path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".fcc", "instances.db"), nil
}

// Open opens (creating if needed) the registry at path and runs
// migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	connStr := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to registry: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating registry: %w", err)
	}
	return store, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS instances (
		id TEXT PRIMARY KEY,
		pid INTEGER NOT NULL DEFAULT 0,
		socket_path TEXT NOT NULL,
		backend TEXT NOT NULL,
		chroot_root TEXT,
		started_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	return err
}

// Save registers an instance, replacing any previous record with the
// same id.
func (s *Store) Save(ctx context.Context, inst Instance) error {
	if inst.StartedAt.IsZero() {
		inst.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO instances (id, pid, socket_path, backend, chroot_root, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.PID, inst.SocketPath, inst.Backend, inst.ChrootRoot,
		inst.StartedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving instance %s: %w", inst.ID, err)
	}
	return nil
}

// Get returns the instance with the given id, or (nil, nil) when it is
// not registered.
func (s *Store) Get(ctx context.Context, id string) (*Instance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pid, socket_path, backend, COALESCE(chroot_root, ''), started_at
		 FROM instances WHERE id = ?`, id)

	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading instance %s: %w", id, err)
	}
	return inst, nil
}

// List returns all registered instances ordered by start time.
func (s *Store) List(ctx context.Context) ([]Instance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pid, socket_path, backend, COALESCE(chroot_root, ''), started_at
		 FROM instances ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	defer rows.Close()

	var instances []Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning instance: %w", err)
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

// Delete removes an instance record. Deleting an unknown id is not an
// error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting instance %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (*Instance, error) {
	var inst Instance
	var startedAt string
	if err := row.Scan(&inst.ID, &inst.PID, &inst.SocketPath, &inst.Backend, &inst.ChrootRoot, &startedAt); err != nil {
		return nil, err
	}
	if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
		inst.StartedAt = ts
	}
	return &inst, nil
}
