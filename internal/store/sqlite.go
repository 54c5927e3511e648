// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/zclconf/go-cty/cty"
	_ "modernc.org/sqlite"

	"nickandperla.net/quasi/internal/errwrap"
)

const driverName = "sqlite"

// SchemaVersion is the current schema version.
const SchemaVersion = "1"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "open %s", path)
	}
	fail := func(err error) (*SQLite, error) {
		return nil, errwrap.Append(err, db.Close())
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS bindings (
			name TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fail(errwrap.Wrapf(err, "create tables in %s", path))
	}

	s := &SQLite{db: db}

	// unlocked variants: nobody else can see s yet
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		return fail(err)
	}
	switch version {
	case "":
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			return fail(err)
		}
	case SchemaVersion:
	default:
		return fail(fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion))
	}

	return s, nil
}

// Get retrieves a value by name.
func (s *SQLite) Get(name string) (cty.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var typ, val string
	err := s.db.QueryRow("SELECT type, value FROM bindings WHERE name = ?", name).Scan(&typ, &val)
	if errors.Is(err, sql.ErrNoRows) {
		return cty.NilVal, nil
	}
	if err != nil {
		return cty.NilVal, err
	}

	v, err := decode(typ, val)
	if err != nil {
		return cty.NilVal, errwrap.Wrapf(err, "decode binding %q", name)
	}
	return v, nil
}

// Put stores a value by name.
func (s *SQLite) Put(name string, v cty.Value) error {
	typ, val, err := encode(v)
	if err != nil {
		return errwrap.Wrapf(err, "encode binding %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO bindings (name, type, value) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET type = excluded.type, value = excluded.value
	`, name, typ, val)
	return err
}

// Delete removes a value by name.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM bindings WHERE name = ?", name)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
