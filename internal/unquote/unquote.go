// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package unquote substitutes evaluated placeholders into quoted token
// sequences.
//
// A quote body is walked once, front to back. Each UNQUOTE marker is
// evaluated and replaced by the tokens of its value, nested QUOTE tokens are
// substituted recursively, and the escape sigil turns a following $ into a
// literal. The first error aborts the whole pass.
package unquote

import (
	"io"
	"log/slog"

	"github.com/hashicorp/hcl/v2"

	"nickandperla.net/quasi/internal/token"
)

// DefaultMaxDepth is the default limit on nested quote depth.
const DefaultMaxDepth = 256

// Value is an evaluated placeholder.
type Value interface {
	// IntoTokens returns the tokens spelling the value, located at rng.
	IntoTokens(rng hcl.Range) (token.Tokens, error)
}

// Evaluator evaluates the expression a marker stands for.
type Evaluator interface {
	Evaluate(id token.ExprID) (Value, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(id token.ExprID) (Value, error)

// Evaluate calls f(id).
func (f EvaluatorFunc) Evaluate(id token.ExprID) (Value, error) {
	return f(id)
}

// Engine performs substitution passes.
type Engine struct {
	eval     Evaluator
	maxDepth int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth limits how deeply quotes may nest. Zero or less means no
// limit.
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine that evaluates markers with ev.
func New(ev Evaluator, opts ...Option) *Engine {
	e := &Engine{
		eval:     ev,
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Substitute returns a new sequence in which every marker, at any nesting
// depth, has been replaced by the tokens of its value. Tokens that come out
// of a value are not substituted again. On error no tokens are returned.
func (e *Engine) Substitute(tokens token.Tokens) (token.Tokens, error) {
	return e.substitute(tokens, 0)
}

func (e *Engine) substitute(tokens token.Tokens, depth int) (token.Tokens, error) {
	out := make(token.Tokens, 0, len(tokens))
	next := &cursor{tokens: tokens}

	for {
		tok, ok := next.Next()
		if !ok {
			return out, nil
		}
		rng := tok.Range

		switch tok.Token.Kind {
		case token.UNQUOTE:
			v, err := e.eval.Evaluate(tok.Token.Expr)
			if err != nil {
				return nil, err
			}
			spliced, err := v.IntoTokens(rng)
			if err != nil {
				return nil, err
			}
			e.logger.Debug("marker expanded", "expr", tok.Token.Expr, "range", rng.String(), "tokens", len(spliced))
			out = append(out, spliced...)

		case token.QUOTE:
			if e.maxDepth > 0 && depth+1 > e.maxDepth {
				return nil, &DepthError{Depth: depth + 1, Max: e.maxDepth, Range: rng}
			}
			e.logger.Debug("nested quote", "depth", depth+1, "range", rng.String())
			nested, err := e.substitute(tok.Token.Quoted, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, token.At(token.Quote(nested), rng))

		case token.BACKSLASH:
			var err error
			if out, err = escape(next, out, rng); err != nil {
				return nil, err
			}

		default:
			out = append(out, tok)
		}
	}
}

// cursor walks a token sequence front to back. The escape handler shares it
// with the main loop so that the token it consumes is skipped there.
type cursor struct {
	tokens token.Tokens
	pos    int
}

// Next returns the next token, or false once the sequence is exhausted.
func (c *cursor) Next() (token.Located, bool) {
	if c.pos >= len(c.tokens) {
		return token.Located{}, false
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, true
}
