// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package quasi

import (
	"io"
	"log/slog"

	"github.com/zclconf/go-cty/cty"

	"nickandperla.net/quasi/internal/eval"
	"nickandperla.net/quasi/internal/store"
	"nickandperla.net/quasi/internal/unquote"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore configures SQLite persistence at the given path. The
// database is opened by New.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		r.store = nil
		r.sqlitePath = path
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
		r.sqlitePath = ""
	}
}

// WithStore configures a custom store. The runtime closes it on Close.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
		r.sqlitePath = ""
	}
}

// WithOutputWriter sets the output writer for the print builtin.
func WithOutputWriter(writer func(text string) error) Option {
	return func(r *Runtime) {
		r.outputWriter = writer
	}
}

// WithOutput sets the io.Writer for output.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.outputWriter = func(text string) error {
			_, err := io.WriteString(w, text)
			return err
		}
	}
}

// WithLogger sets the logger for the runtime and everything it drives.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithMaxDepth limits how deeply quotes may nest. Zero or less means no
// limit.
func WithMaxDepth(n int) Option {
	return func(r *Runtime) {
		r.maxDepth = n
		r.maxDepthSet = true
	}
}

// WithVariables binds values before the prelude runs.
func WithVariables(vars map[string]cty.Value) Option {
	return func(r *Runtime) {
		for name, v := range vars {
			r.variables[name] = v
		}
	}
}

// WithPrelude sets a custom prelude source to be loaded on startup.
// If not set, DefaultPrelude is used.
func WithPrelude(source string) Option {
	return func(r *Runtime) {
		r.prelude = source
	}
}

// WithNoPrelude disables loading the prelude.
func WithNoPrelude() Option {
	return func(r *Runtime) {
		r.noPrelude = true
	}
}

// Store interface for custom stores.
type Store = eval.Store

// DefaultMaxDepth is the quote nesting limit used unless WithMaxDepth is
// given.
const DefaultMaxDepth = unquote.DefaultMaxDepth

// PersistMode controls when bindings are persisted.
type PersistMode = eval.PersistMode

// Persist mode constants.
const (
	PersistOnDemand = eval.PersistOnDemand
	PersistAlways   = eval.PersistAlways
	PersistNever    = eval.PersistNever
)

// ParsePersistMode parses a string into a PersistMode.
func ParsePersistMode(s string) (PersistMode, bool) {
	return eval.ParsePersistMode(s)
}

// WithPersistMode sets the persistence mode.
func WithPersistMode(mode PersistMode) Option {
	return func(r *Runtime) {
		r.persistMode = mode
	}
}
