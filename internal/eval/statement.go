// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"nickandperla.net/quasi/internal/errwrap"
	"nickandperla.net/quasi/internal/scanner"
	"nickandperla.net/quasi/internal/token"
	"nickandperla.net/quasi/internal/value"
)

// Statement keywords.
const (
	keywordLet     = "let"
	keywordPersist = "persist"
	keywordLoad    = "load"
	keywordForget  = "forget"
)

// EvalNamed runs the statements in src, reporting positions against
// filename, and returns the output lines joined with newlines.
func (e *Evaluator) EvalNamed(filename, src string) (string, error) {
	scan := scanner.NewFromString(src, filename, e.table)

	var out []string
	for {
		text, done, err := e.statement(scan, src)
		if err != nil {
			return "", err
		}
		if done {
			return strings.Join(out, "\n"), nil
		}
		if text != "" {
			out = append(out, text)
		}
	}
}

// statement runs the next statement and returns what it emits. done is set
// once the input is exhausted.
func (e *Evaluator) statement(scan *scanner.Scanner, src string) (string, bool, error) {
	tok, err := scan.Next()
	if err != nil {
		return "", false, err
	}

	switch {
	case tok.Token.Kind == token.EOF:
		return "", true, nil

	case tok.Token.Is(";"):
		return "", false, nil

	case tok.Token.Kind == token.QUOTE:
		body, err := e.engine.Substitute(tok.Token.Quoted)
		if err != nil {
			return "", false, err
		}
		if err := optionalSemicolon(scan); err != nil {
			return "", false, err
		}
		return body.String(), false, nil

	case tok.Token.Kind == token.IDENT && tok.Token.Value == keywordLet:
		return "", false, e.let(scan, src)

	case tok.Token.Kind == token.IDENT && isStoreKeyword(tok.Token.Value):
		return "", false, e.storeStatement(scan, tok)
	}

	return e.exprStatement(scan, src, tok)
}

// let handles "let NAME = quote { ... };" and "let NAME = EXPR;".
func (e *Evaluator) let(scan *scanner.Scanner, src string) error {
	name, err := expectName(scan, keywordLet)
	if err != nil {
		return err
	}
	eq, err := scan.Next()
	if err != nil {
		return err
	}
	if !eq.Token.Is("=") {
		return &SyntaxError{Range: eq.Range, Msg: fmt.Sprintf("expected \"=\" after let %s", name.Token.Value)}
	}

	next, err := scan.Peek()
	if err != nil {
		return err
	}

	var v cty.Value
	if next.Token.Kind == token.QUOTE {
		scan.Next()
		body, err := e.engine.Substitute(next.Token.Quoted)
		if err != nil {
			return errwrap.Wrapf(err, "let %s", name.Token.Value)
		}
		if err := optionalSemicolon(scan); err != nil {
			return err
		}
		v = value.Quoted(body)
	} else {
		first, _ := scan.Next()
		toks, err := collectExpr(scan, first)
		if err != nil {
			return err
		}
		if len(toks) == 0 {
			return &SyntaxError{Range: first.Range, Msg: fmt.Sprintf("expected an expression after let %s =", name.Token.Value)}
		}
		if v, err = e.evalTokens(src, toks); err != nil {
			return errwrap.Wrapf(err, "let %s", name.Token.Value)
		}
	}

	e.bind(name.Token.Value, v)
	return nil
}

// storeStatement handles persist, load and forget.
func (e *Evaluator) storeStatement(scan *scanner.Scanner, kw token.Located) error {
	name, err := expectName(scan, kw.Token.Value)
	if err != nil {
		return err
	}
	if err := endStatement(scan); err != nil {
		return err
	}
	n := name.Token.Value

	switch kw.Token.Value {
	case keywordPersist:
		// In NEVER or ALWAYS mode, persist is a no-op
		if e.persistMode != PersistOnDemand || e.store == nil {
			e.logger.Debug("persist skipped", "name", n, "mode", e.persistMode.String())
			return nil
		}
		v, ok := e.namespace.Get(n)
		if !ok {
			return &NameError{Name: n, Range: name.Range}
		}
		if err := e.store.Put(n, v); err != nil {
			return errwrap.Wrapf(err, "persist %s", n)
		}
		e.logger.Debug("persisted", "name", n)

	case keywordLoad:
		if e.store == nil {
			return nil
		}
		v, err := e.store.Get(n)
		if err != nil {
			return errwrap.Wrapf(err, "load %s", n)
		}
		if v == cty.NilVal {
			e.logger.Debug("not in store", "name", n)
			return nil
		}
		e.namespace.Set(n, v)
		e.logger.Debug("loaded", "name", n)

	case keywordForget:
		e.namespace.Delete(n)
		if e.store != nil && e.persistMode != PersistNever {
			if err := e.store.Delete(n); err != nil {
				return errwrap.Wrapf(err, "forget %s", n)
			}
		}
		e.logger.Debug("forgotten", "name", n)
	}
	return nil
}

// exprStatement evaluates "EXPR;" and emits the tokens of its value. A bare
// print call emits nothing beyond what print itself writes.
func (e *Evaluator) exprStatement(scan *scanner.Scanner, src string, first token.Located) (string, bool, error) {
	toks, err := collectExpr(scan, first)
	if err != nil {
		return "", false, err
	}
	rng := toks.Range()
	id := e.table.Register(src[rng.Start.Byte:rng.End.Byte], rng)

	v, err := e.evaluate(id)
	if err != nil {
		return "", false, err
	}
	if x, _ := e.table.Parse(id); isPrintCall(x) {
		return "", false, nil
	}

	out, err := value.IntoTokens(v, rng)
	if err != nil {
		return "", false, err
	}
	return out.String(), false, nil
}

func (e *Evaluator) evalTokens(src string, toks token.Tokens) (cty.Value, error) {
	rng := toks.Range()
	return e.evaluate(e.table.Register(src[rng.Start.Byte:rng.End.Byte], rng))
}

// collectExpr gathers the tokens of an expression starting with first, up
// to a semicolon outside any brackets or the end of input. The terminator
// is consumed but not returned.
func collectExpr(scan *scanner.Scanner, first token.Located) (token.Tokens, error) {
	var toks token.Tokens
	depth := 0
	tok := first
	for {
		switch {
		case tok.Token.Kind == token.EOF:
			return toks, nil
		case tok.Token.Kind == token.QUOTE:
			return nil, &SyntaxError{Range: tok.Range, Msg: "a quote block must stand alone or be bound with let"}
		case depth == 0 && tok.Token.Is(";"):
			return toks, nil
		case tok.Token.Is("(") || tok.Token.Is("[") || tok.Token.Is("{"):
			depth++
		case tok.Token.Is(")") || tok.Token.Is("]") || tok.Token.Is("}"):
			depth--
		}
		toks = append(toks, tok)

		var err error
		if tok, err = scan.Next(); err != nil {
			return nil, err
		}
	}
}

func expectName(scan *scanner.Scanner, after string) (token.Located, error) {
	tok, err := scan.Next()
	if err != nil {
		return token.Located{}, err
	}
	if tok.Token.Kind != token.IDENT {
		return token.Located{}, &SyntaxError{Range: tok.Range, Msg: fmt.Sprintf("expected a name after %s", after)}
	}
	return tok, nil
}

func endStatement(scan *scanner.Scanner) error {
	tok, err := scan.Next()
	if err != nil {
		return err
	}
	if tok.Token.Kind == token.EOF || tok.Token.Is(";") {
		return nil
	}
	return &SyntaxError{Range: tok.Range, Msg: "expected \";\" at the end of the statement"}
}

func optionalSemicolon(scan *scanner.Scanner) error {
	tok, err := scan.Peek()
	if err != nil {
		return err
	}
	if tok.Token.Is(";") {
		scan.Next()
	}
	return nil
}

func isStoreKeyword(s string) bool {
	switch s {
	case keywordPersist, keywordLoad, keywordForget:
		return true
	}
	return false
}

func isPrintCall(x hclsyntax.Expression) bool {
	call, ok := x.(*hclsyntax.FunctionCallExpr)
	return ok && call.Name == "print"
}
