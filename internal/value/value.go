// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package value converts compile-time values into the tokens that spell them.
package value

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"nickandperla.net/quasi/internal/token"
)

// QuotedType is the capsule type of quoted token sequences. A quoted value
// converts back into the tokens it holds.
var QuotedType = cty.Capsule("quoted", reflect.TypeOf(token.Tokens(nil)))

// Quoted wraps a token sequence as a compile-time value. The sequence is
// copied.
func Quoted(ts token.Tokens) cty.Value {
	held := append(token.Tokens(nil), ts...)
	return cty.CapsuleVal(QuotedType, &held)
}

// AsQuoted returns the tokens held by a quoted value.
func AsQuoted(v cty.Value) (token.Tokens, bool) {
	if !v.Type().Equals(QuotedType) || v.IsNull() || !v.IsKnown() {
		return nil, false
	}
	return *v.EncapsulatedValue().(*token.Tokens), true
}

// Value is a compile-time value that can be spliced into a quote.
type Value struct {
	cty.Value
}

// Of wraps v.
func Of(v cty.Value) Value {
	return Value{Value: v}
}

// IntoTokens converts the value to tokens located at rng.
func (v Value) IntoTokens(rng hcl.Range) (token.Tokens, error) {
	return IntoTokens(v.Value, rng)
}

// ConversionError reports a value that has no token representation.
type ConversionError struct {
	Range  hcl.Range
	Type   cty.Type
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: cannot splice %s value: %s", e.Range, e.Type.FriendlyName(), e.Reason)
}

// Diagnostic converts the error for diagnostic rendering.
func (e *ConversionError) Diagnostic() *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Value cannot be unquoted",
		Detail:   fmt.Sprintf("A %s value cannot be spliced into a quote: %s.", e.Type.FriendlyName(), e.Reason),
		Subject:  e.Range.Ptr(),
	}
}

// IntoTokens converts v to the tokens that spell it as a literal. Every
// token, including the contents of a quoted value, is located at rng.
func IntoTokens(v cty.Value, rng hcl.Range) (token.Tokens, error) {
	return appendValue(token.Tokens{}, v, rng)
}

func appendValue(out token.Tokens, v cty.Value, rng hcl.Range) (token.Tokens, error) {
	ty := v.Type()
	fail := func(reason string) (token.Tokens, error) {
		return nil, &ConversionError{Range: rng, Type: ty, Reason: reason}
	}

	switch {
	case v.IsMarked():
		return fail("value is marked")
	case !v.IsKnown():
		return fail("value is not known at compile time")
	case v.IsNull():
		return fail("null has no literal form")
	}

	switch {
	case ty.Equals(QuotedType):
		ts, _ := AsQuoted(v)
		return append(out, ts.Relocate(rng)...), nil

	case ty == cty.Number:
		return appendNumber(out, v.AsBigFloat(), rng, fail)

	case ty == cty.String:
		return append(out, token.At(token.String(v.AsString()), rng)), nil

	case ty == cty.Bool:
		return append(out, token.At(token.Bool(v.True()), rng)), nil

	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out = append(out, token.At(token.Punct("["), rng))
		first := true
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if !first {
				out = append(out, token.At(token.Punct(","), rng))
			}
			first = false
			var err error
			if out, err = appendValue(out, elem, rng); err != nil {
				return nil, err
			}
		}
		return append(out, token.At(token.Punct("]"), rng)), nil

	case ty.IsMapType() || ty.IsObjectType():
		out = append(out, token.At(token.Punct("{"), rng))
		first := true
		for it := v.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			if !first {
				out = append(out, token.At(token.Punct(","), rng))
			}
			first = false
			name := key.AsString()
			if token.ValidIdent(name) {
				out = append(out, token.At(token.Ident(name), rng))
			} else {
				out = append(out, token.At(token.String(name), rng))
			}
			out = append(out, token.At(token.Punct("="), rng))
			var err error
			if out, err = appendValue(out, elem, rng); err != nil {
				return nil, err
			}
		}
		return append(out, token.At(token.Punct("}"), rng)), nil
	}

	return fail("type has no literal form")
}

func appendNumber(out token.Tokens, f *big.Float, rng hcl.Range, fail func(string) (token.Tokens, error)) (token.Tokens, error) {
	if f.IsInf() {
		return fail("infinity has no literal form")
	}
	if f.Sign() < 0 {
		out = append(out, token.At(token.Punct("-"), rng))
		f = new(big.Float).Abs(f)
	}
	if f.IsInt() {
		return append(out, token.At(token.Int(f.Text('f', 0)), rng)), nil
	}
	return append(out, token.At(token.Float(f.Text('f', -1)), rng)), nil
}
