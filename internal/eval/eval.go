// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the quasi compile-time evaluator and the small
// statement language that drives it.
package eval

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"nickandperla.net/quasi/internal/errwrap"
	"nickandperla.net/quasi/internal/expr"
	"nickandperla.net/quasi/internal/token"
	"nickandperla.net/quasi/internal/unquote"
	"nickandperla.net/quasi/internal/value"
)

// Store is the interface for binding persistence.
type Store interface {
	Get(name string) (cty.Value, error)
	Put(name string, v cty.Value) error
	Delete(name string) error
	Close() error
}

// PersistMode controls when bindings are persisted.
type PersistMode int

const (
	// PersistOnDemand is the default - explicit persist/load statements only.
	PersistOnDemand PersistMode = iota
	// PersistAlways persists on every let and loads unknown names on use.
	PersistAlways
	// PersistNever makes persist a no-op (memory-only mode).
	PersistNever
)

// String returns the string representation of a PersistMode.
func (m PersistMode) String() string {
	switch m {
	case PersistOnDemand:
		return "ON_DEMAND"
	case PersistAlways:
		return "ALWAYS"
	case PersistNever:
		return "NEVER"
	default:
		return "UNKNOWN"
	}
}

// ParsePersistMode parses a string into a PersistMode.
func ParsePersistMode(s string) (PersistMode, bool) {
	switch strings.ToUpper(s) {
	case "ON_DEMAND":
		return PersistOnDemand, true
	case "ALWAYS":
		return PersistAlways, true
	case "NEVER":
		return PersistNever, true
	default:
		return PersistOnDemand, false
	}
}

// OutputWriter writes compile-time output (for the print builtin).
type OutputWriter func(text string) error

// Evaluator evaluates unquoted expressions and runs statements.
type Evaluator struct {
	namespace    *Namespace
	table        *expr.Table
	engine       *unquote.Engine
	store        Store
	outputWriter OutputWriter
	persistMode  PersistMode
	maxDepth     int
	logger       *slog.Logger
	funcs        map[string]function.Function
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStore sets the persistence store.
func WithStore(s Store) Option {
	return func(e *Evaluator) { e.store = s }
}

// WithOutputWriter sets the output writer for the print builtin.
func WithOutputWriter(w OutputWriter) Option {
	return func(e *Evaluator) { e.outputWriter = w }
}

// WithPersistMode sets the persistence mode.
func WithPersistMode(mode PersistMode) Option {
	return func(e *Evaluator) { e.persistMode = mode }
}

// WithMaxDepth limits quote nesting. Zero or less means no limit.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.maxDepth = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithVariables binds the given values before anything is evaluated.
func WithVariables(vars map[string]cty.Value) Option {
	return func(e *Evaluator) {
		for name, v := range vars {
			e.namespace.Set(name, v)
		}
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		namespace: NewNamespace(),
		table:     expr.NewTable(),
		maxDepth:  unquote.DefaultMaxDepth,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		outputWriter: func(text string) error {
			fmt.Print(text)
			return nil
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.funcs = builtins(e)
	e.engine = unquote.New(e,
		unquote.WithMaxDepth(e.maxDepth),
		unquote.WithLogger(e.logger),
	)
	return e
}

// Eval runs statements from a string and returns their output.
func (e *Evaluator) Eval(input string) (string, error) {
	return e.EvalNamed("<input>", input)
}

// EvalReader runs statements read from r.
func (e *Evaluator) EvalReader(r io.Reader) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return e.EvalNamed("<input>", string(src))
}

// Evaluate evaluates a registered expression. It is called by the
// substitution engine for every marker it meets.
func (e *Evaluator) Evaluate(id token.ExprID) (unquote.Value, error) {
	v, err := e.evaluate(id)
	if err != nil {
		return nil, err
	}
	return value.Of(v), nil
}

// EvalExpression evaluates a single expression outside of any statement.
func (e *Evaluator) EvalExpression(src, filename string) (cty.Value, error) {
	rng := hcl.Range{Filename: filename, Start: hcl.InitialPos, End: hcl.InitialPos}
	return e.evaluate(e.table.Register(src, rng))
}

// Define binds a value to name as a let statement would.
func (e *Evaluator) Define(name string, v cty.Value) {
	e.bind(name, v)
}

func (e *Evaluator) evaluate(id token.ExprID) (cty.Value, error) {
	x, diags := e.table.Parse(id)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if e.persistMode == PersistAlways {
		if err := e.autoLoad(x); err != nil {
			return cty.NilVal, err
		}
	}

	ctx := &hcl.EvalContext{
		Variables: e.namespace.Variables(),
		Functions: e.funcs,
	}
	v, diags := x.Value(ctx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

func (e *Evaluator) bind(name string, v cty.Value) {
	e.namespace.Set(name, v)
	e.logger.Debug("bound", "name", name, "type", v.Type().FriendlyName())

	if e.persistMode == PersistAlways && e.store != nil {
		e.autoPersist(name, v)
	}
}

// autoLoad pulls names referenced by x from the store (used in ALWAYS mode).
func (e *Evaluator) autoLoad(x hcl.Expression) error {
	if e.store == nil {
		return nil
	}
	for _, name := range expr.RootNames(x) {
		if e.namespace.Has(name) {
			continue
		}
		v, err := e.store.Get(name)
		if err != nil {
			return errwrap.Wrapf(err, "load %s", name)
		}
		if v == cty.NilVal {
			continue
		}
		e.namespace.Set(name, v)
		e.logger.Debug("auto-loaded", "name", name)
	}
	return nil
}

// autoPersist persists a value to the store (used in ALWAYS mode).
func (e *Evaluator) autoPersist(name string, v cty.Value) {
	if err := e.store.Put(name, v); err != nil {
		e.logger.Warn("auto-persist failed", "name", name, "err", errwrap.String(err))
	}
}

// Namespace returns the evaluator's namespace.
func (e *Evaluator) Namespace() *Namespace {
	return e.namespace
}

// PersistMode returns the current persistence mode.
func (e *Evaluator) PersistMode() PersistMode {
	return e.persistMode
}

// SetPersistMode sets the persistence mode.
func (e *Evaluator) SetPersistMode(mode PersistMode) {
	e.persistMode = mode
}
