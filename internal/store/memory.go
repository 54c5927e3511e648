// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Memory is an in-memory store for testing and one-shot runs.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]cty.Value
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string]cty.Value),
		metadata: make(map[string]string),
	}
}

// Get retrieves a value by name.
func (m *Memory) Get(name string) (cty.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[name]; ok {
		return v, nil
	}
	return cty.NilVal, nil
}

// Put stores a value by name. Values that could not be written to disk are
// rejected here too, so switching stores does not change behaviour.
func (m *Memory) Put(name string, v cty.Value) error {
	if _, _, err := encode(v); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = v
	return nil
}

// Delete removes a value by name.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
