// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package token

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(line, col int) hcl.Range {
	return hcl.Range{
		Filename: "test.qs",
		Start:    hcl.Pos{Line: line, Column: col, Byte: col - 1},
		End:      hcl.Pos{Line: line, Column: col + 1, Byte: col},
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "UNQUOTE", UNQUOTE.String())
	assert.Equal(t, "QUOTE", QUOTE.String())
	assert.Equal(t, "UNKNOWN", Kind(99).String())
}

func TestTokenEqual(t *testing.T) {
	assert.True(t, Ident("a").Equal(Ident("a")))
	assert.False(t, Ident("a").Equal(Ident("b")))
	assert.False(t, Ident("true").Equal(Bool(true)))
	assert.True(t, Unquote(3).Equal(Unquote(3)))
	assert.False(t, Unquote(3).Equal(Unquote(4)))

	inner := Tokens{At(Int("1"), rng(1, 9))}
	moved := Tokens{At(Int("1"), rng(2, 9))}
	assert.True(t, Quote(inner).Equal(Quote(inner)))
	assert.False(t, Quote(inner).Equal(Quote(moved)), "nested ranges take part in equality")
}

func TestTokensString(t *testing.T) {
	ts := Tokens{
		At(Ident("fn"), rng(1, 1)),
		At(Ident("add"), rng(1, 4)),
		At(Punct("("), rng(1, 7)),
		At(Ident("x"), rng(1, 8)),
		At(Punct(","), rng(1, 9)),
		At(Ident("y"), rng(1, 11)),
		At(Punct(")"), rng(1, 12)),
		At(Punct("{"), rng(1, 14)),
		At(String("a\"b"), rng(1, 16)),
		At(Punct("}"), rng(1, 22)),
	}
	assert.Equal(t, `fn add (x, y) { "a\"b" }`, ts.String())
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, "quote {}", Quote(nil).String())

	q := Quote(Tokens{At(Dollar(), rng(1, 9)), At(Ident("x"), rng(1, 10))})
	assert.Equal(t, "quote { $x }", q.String())
	assert.Equal(t, "$#7", Unquote(7).String())
	assert.Equal(t, `\$`, Tokens{At(Backslash(), rng(1, 1)), At(Dollar(), rng(1, 2))}.String())
}

func TestTokensRange(t *testing.T) {
	assert.Equal(t, hcl.Range{}, Tokens(nil).Range())

	ts := Tokens{At(Ident("a"), rng(1, 1)), At(Ident("b"), rng(3, 5))}
	got := ts.Range()
	assert.Equal(t, 1, got.Start.Line)
	assert.Equal(t, 3, got.End.Line)
}

func TestTokensContains(t *testing.T) {
	ts := Tokens{
		At(Ident("a"), rng(1, 1)),
		At(Quote(Tokens{At(Unquote(0), rng(1, 9))}), rng(1, 3)),
	}
	assert.True(t, ts.Contains(UNQUOTE))
	assert.False(t, ts.Contains(BACKSLASH))
}

func TestTokensRelocate(t *testing.T) {
	target := rng(9, 9)
	ts := Tokens{
		At(Ident("a"), rng(1, 1)),
		At(Quote(Tokens{At(Ident("b"), rng(1, 9))}), rng(1, 3)),
	}
	got := ts.Relocate(target)
	require.Len(t, got, 2)
	for _, tok := range got {
		assert.Equal(t, target, tok.Range)
	}
	assert.Equal(t, target, got[1].Token.Quoted[0].Range)
	assert.Equal(t, rng(1, 1), ts[0].Range, "input must not be mutated")
}

func TestValidIdent(t *testing.T) {
	for _, s := range []string{"a", "_x1", "ünï", "quote"} {
		assert.True(t, ValidIdent(s), s)
	}
	for _, s := range []string{"", "1a", "a-b", "a b", "true", "false"} {
		assert.False(t, ValidIdent(s), s)
	}
}
