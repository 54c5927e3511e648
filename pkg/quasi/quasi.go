// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package quasi provides the public API for the quasi compile-time
// quasiquotation runtime.
package quasi

import (
	"io"
	"log/slog"
	"os"

	"github.com/zclconf/go-cty/cty"

	"nickandperla.net/quasi/internal/errwrap"
	"nickandperla.net/quasi/internal/eval"
	"nickandperla.net/quasi/internal/store"
)

// Runtime is the quasi runtime.
type Runtime struct {
	evaluator    *eval.Evaluator
	store        eval.Store
	sqlitePath   string
	outputWriter func(text string) error
	logger       *slog.Logger
	maxDepth     int
	maxDepthSet  bool
	variables    map[string]cty.Value
	prelude      string // Custom prelude source (if empty, uses DefaultPrelude)
	noPrelude    bool   // If true, skip loading prelude
	persistMode  eval.PersistMode
}

// New creates a new runtime with the given options. The prelude is
// evaluated before New returns.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		variables: make(map[string]cty.Value),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.sqlitePath != "" {
		s, err := store.NewSQLite(r.sqlitePath)
		if err != nil {
			return nil, err
		}
		r.store = s
	}

	// Build evaluator options
	evalOpts := []eval.Option{
		eval.WithPersistMode(r.persistMode),
		eval.WithVariables(r.variables),
	}
	if r.store != nil {
		evalOpts = append(evalOpts, eval.WithStore(r.store))
	}
	if r.outputWriter != nil {
		evalOpts = append(evalOpts, eval.WithOutputWriter(r.outputWriter))
	}
	if r.logger != nil {
		evalOpts = append(evalOpts, eval.WithLogger(r.logger))
	}
	if r.maxDepthSet {
		evalOpts = append(evalOpts, eval.WithMaxDepth(r.maxDepth))
	}

	r.evaluator = eval.New(evalOpts...)

	if err := r.loadPrelude(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runtime) loadPrelude() error {
	if r.noPrelude {
		return nil
	}
	prelude := r.prelude
	if prelude == "" {
		prelude = DefaultPrelude
	}

	// Check for database override
	if r.store != nil {
		v, err := r.store.Get(PreludeOverride)
		if err != nil {
			return errwrap.Wrapf(err, "read %s", PreludeOverride)
		}
		if v != cty.NilVal && v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
			prelude = v.AsString()
		}
	}

	if _, err := r.evaluator.EvalNamed(PreludeFile, prelude); err != nil {
		return &PreludeError{Source: prelude, Err: errwrap.Wrapf(err, "prelude")}
	}
	return nil
}

// PreludeError is returned by New when the prelude fails to evaluate. Source
// is the prelude text that was evaluated, which differs from DefaultPrelude
// when a custom or stored prelude is in use.
type PreludeError struct {
	Source string
	Err    error
}

func (e *PreludeError) Error() string {
	return e.Err.Error()
}

func (e *PreludeError) Unwrap() error {
	return e.Err
}

// Eval evaluates a string and returns the output.
func (r *Runtime) Eval(input string) (string, error) {
	return r.evaluator.Eval(input)
}

// EvalReader evaluates source read from a reader.
func (r *Runtime) EvalReader(reader io.Reader) (string, error) {
	return r.evaluator.EvalReader(reader)
}

// EvalFile evaluates a file. Diagnostics refer to path.
func (r *Runtime) EvalFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return r.evaluator.EvalNamed(path, string(src))
}

// EvalNamed evaluates src, reporting positions against filename.
func (r *Runtime) EvalNamed(filename, src string) (string, error) {
	return r.evaluator.EvalNamed(filename, src)
}

// Expression evaluates a single expression and returns its value.
func (r *Runtime) Expression(src, filename string) (cty.Value, error) {
	return r.evaluator.EvalExpression(src, filename)
}

// Define binds a value to name.
func (r *Runtime) Define(name string, v cty.Value) {
	r.evaluator.Define(name, v)
}

// Bindings returns the bound names in sorted order.
func (r *Runtime) Bindings() []string {
	return r.evaluator.Namespace().Names()
}

// PersistMode returns the current persistence mode.
func (r *Runtime) PersistMode() PersistMode {
	return r.evaluator.PersistMode()
}

// SetPersistMode changes the persistence mode for subsequent statements.
func (r *Runtime) SetPersistMode(mode PersistMode) {
	r.evaluator.SetPersistMode(mode)
}

// Close releases resources.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
