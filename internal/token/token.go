// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the quasi token model: a tagged union of token
// variants, its source-located wrapper and the ordered sequence container.
package token

import (
	"strconv"
	"unicode"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Kind selects the variant of a Token.
type Kind int

const (
	EOF Kind = iota
	IDENT
	INT
	FLOAT
	STRING
	BOOL
	PUNCT // operators and delimiters, text in Value

	DOLLAR    // $ - interpolation sigil
	BACKSLASH // \ - escape sigil
	QUOTE     // quote { ... } - nested token template
	UNQUOTE   // placeholder for a not yet evaluated expression
)

// Runes with special meaning inside a quote block.
const (
	RuneDollar    = '$'
	RuneBackslash = '\\'
)

// KeywordQuote introduces a quote block.
const KeywordQuote = "quote"

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case STRING:
		return "STRING"
	case BOOL:
		return "BOOL"
	case PUNCT:
		return "PUNCT"
	case DOLLAR:
		return "DOLLAR"
	case BACKSLASH:
		return "BACKSLASH"
	case QUOTE:
		return "QUOTE"
	case UNQUOTE:
		return "UNQUOTE"
	}
	return "UNKNOWN"
}

// ExprID identifies an expression owned by an expression table. Tokens only
// carry it around; they never look inside.
type ExprID uint32

// Token is a single token. Kind decides which of the other fields matter:
// Value for literal and syntactic kinds, Expr for UNQUOTE and Quoted for
// QUOTE.
type Token struct {
	Kind   Kind
	Value  string
	Expr   ExprID
	Quoted Tokens
}

// Ident returns an identifier token.
func Ident(name string) Token { return Token{Kind: IDENT, Value: name} }

// Int returns an integer literal token.
func Int(text string) Token { return Token{Kind: INT, Value: text} }

// Float returns a floating point literal token.
func Float(text string) Token { return Token{Kind: FLOAT, Value: text} }

// String returns a string literal token holding the unquoted value.
func String(s string) Token { return Token{Kind: STRING, Value: s} }

// Bool returns a boolean literal token.
func Bool(b bool) Token { return Token{Kind: BOOL, Value: strconv.FormatBool(b)} }

// Punct returns an operator or delimiter token.
func Punct(text string) Token { return Token{Kind: PUNCT, Value: text} }

// Dollar returns the interpolation sigil.
func Dollar() Token { return Token{Kind: DOLLAR, Value: string(RuneDollar)} }

// Backslash returns the escape sigil.
func Backslash() Token { return Token{Kind: BACKSLASH, Value: string(RuneBackslash)} }

// Unquote returns a placeholder marker for the expression id.
func Unquote(id ExprID) Token { return Token{Kind: UNQUOTE, Expr: id} }

// Quote returns a nested token template.
func Quote(body Tokens) Token { return Token{Kind: QUOTE, Quoted: body} }

// Is reports whether t is a PUNCT or IDENT token with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == PUNCT || t.Kind == IDENT) && t.Value == text
}

// Equal reports whether two tokens are the same variant with the same
// payload. Nested quotes are compared deeply, including their ranges.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case UNQUOTE:
		return t.Expr == o.Expr
	case QUOTE:
		return t.Quoted.Equal(o.Quoted)
	}
	return t.Value == o.Value
}

// String renders the token as source text.
func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return ""
	case STRING:
		return string(hclwrite.TokensForValue(cty.StringVal(t.Value)).Bytes())
	case UNQUOTE:
		return string(RuneDollar) + "#" + strconv.FormatUint(uint64(t.Expr), 10)
	case QUOTE:
		if len(t.Quoted) == 0 {
			return KeywordQuote + " {}"
		}
		return KeywordQuote + " { " + t.Quoted.String() + " }"
	}
	return t.Value
}

// Located is a token paired with the source range it came from.
type Located struct {
	Token Token
	Range hcl.Range
}

// At pairs a token with a range.
func At(t Token, rng hcl.Range) Located {
	return Located{Token: t, Range: rng}
}

// Equal reports whether both the tokens and their ranges match.
func (l Located) Equal(o Located) bool {
	return l.Range == o.Range && l.Token.Equal(o.Token)
}

// IsIdentStart reports whether r can begin an identifier.
func IsIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

// IsIdentChar reports whether r is valid in an identifier (letter, digit, underscore).
func IsIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// ValidIdent reports whether s scans back as a single IDENT token.
func ValidIdent(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	for i, r := range s {
		if i == 0 && !IsIdentStart(r) || !IsIdentChar(r) {
			return false
		}
	}
	return true
}
