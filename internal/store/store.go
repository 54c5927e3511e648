// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package store persists named compile-time values between runs.
package store

import "github.com/zclconf/go-cty/cty"

// Store is the interface for binding persistence.
type Store interface {
	// Get retrieves a value by name. Returns cty.NilVal if not found.
	Get(name string) (cty.Value, error)
	// Put stores a value by name, overwriting if it exists.
	Put(name string, v cty.Value) error
	// Delete removes a value by name.
	Delete(name string) error
	// Close releases resources.
	Close() error
}

// MetadataStore extends Store with free-form key/value metadata.
type MetadataStore interface {
	Store
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}
