// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr owns the expressions that unquote markers stand for. The
// scanner registers each placeholder's source here and gets back an id; the
// evaluator resolves the id to a parsed expression when the marker is
// substituted.
package expr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"nickandperla.net/quasi/internal/token"
)

// Entry is the registered source of one expression.
type Entry struct {
	Source string
	Range  hcl.Range // range of Source within its file
}

// Table is a thread-safe, append-only expression table.
type Table struct {
	mu      sync.RWMutex
	entries []Entry
	parsed  map[token.ExprID]hclsyntax.Expression
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		parsed: make(map[token.ExprID]hclsyntax.Expression),
	}
}

// Register adds an expression and returns its id. Ids are dense and start
// at zero.
func (t *Table) Register(src string, rng hcl.Range) token.ExprID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Source: src, Range: rng})
	return token.ExprID(len(t.entries) - 1)
}

// Lookup returns the entry for id.
func (t *Table) Lookup(id token.ExprID) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[id], true
}

// Len returns the number of registered expressions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Parse returns the syntax tree for id. Trees are parsed once and cached;
// positions in the tree refer to the original file.
func (t *Table) Parse(id token.ExprID) (hclsyntax.Expression, hcl.Diagnostics) {
	t.mu.RLock()
	if e, ok := t.parsed[id]; ok {
		t.mu.RUnlock()
		return e, nil
	}
	t.mu.RUnlock()

	entry, ok := t.Lookup(id)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown expression",
			Detail:   fmt.Sprintf("No expression is registered with id %d.", id),
		}}
	}

	e, diags := hclsyntax.ParseExpression([]byte(entry.Source), entry.Range.Filename, entry.Range.Start)
	if diags.HasErrors() {
		return nil, diags
	}

	t.mu.Lock()
	t.parsed[id] = e
	t.mu.Unlock()
	return e, diags
}

// RootNames returns the sorted, unique root names of every variable the
// expression refers to.
func RootNames(e hcl.Expression) []string {
	if e == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, traversal := range e.Variables() {
		seen[traversal.RootName()] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
