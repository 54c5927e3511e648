// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Namespace is a thread-safe global namespace for compile-time bindings.
type Namespace struct {
	mu    sync.RWMutex
	store map[string]cty.Value
}

// NewNamespace creates a new empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		store: make(map[string]cty.Value),
	}
}

// Get retrieves a value by name.
func (n *Namespace) Get(name string) (cty.Value, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.store[name]
	return v, ok
}

// Set binds a value to name.
func (n *Namespace) Set(name string, v cty.Value) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.store[name] = v
}

// Has returns true if the name is bound.
func (n *Namespace) Has(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.store[name]
	return ok
}

// Delete removes a binding.
func (n *Namespace) Delete(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.store, name)
}

// Names returns the bound names in sorted order.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.store))
	for k := range n.store {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Variables returns a snapshot of the bindings for an evaluation context.
func (n *Namespace) Variables() map[string]cty.Value {
	n.mu.RLock()
	defer n.mu.RUnlock()
	vars := make(map[string]cty.Value, len(n.store))
	for k, v := range n.store {
		vars[k] = v
	}
	return vars
}
