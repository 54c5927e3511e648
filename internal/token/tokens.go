// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package token

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Tokens is an ordered token sequence. Order is source order.
type Tokens []Located

// Equal reports whether both sequences hold equal tokens in the same order.
func (ts Tokens) Equal(o Tokens) bool {
	if len(ts) != len(o) {
		return false
	}
	for i := range ts {
		if !ts[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Range returns the range covering the whole sequence, or the zero range
// for an empty one.
func (ts Tokens) Range() hcl.Range {
	if len(ts) == 0 {
		return hcl.Range{}
	}
	return hcl.RangeBetween(ts[0].Range, ts[len(ts)-1].Range)
}

// Contains reports whether any token of the given kind appears in the
// sequence, looking inside nested quotes.
func (ts Tokens) Contains(k Kind) bool {
	for _, t := range ts {
		if t.Token.Kind == k {
			return true
		}
		if t.Token.Kind == QUOTE && t.Token.Quoted.Contains(k) {
			return true
		}
	}
	return false
}

// Relocate returns a copy of the sequence with every token, nested ones
// included, moved to rng.
func (ts Tokens) Relocate(rng hcl.Range) Tokens {
	out := make(Tokens, 0, len(ts))
	for _, t := range ts {
		tok := t.Token
		if tok.Kind == QUOTE {
			tok.Quoted = tok.Quoted.Relocate(rng)
		}
		out = append(out, At(tok, rng))
	}
	return out
}

// String renders the sequence as source text, one space between tokens
// except around tight punctuation.
func (ts Tokens) String() string {
	var sb strings.Builder
	for i, t := range ts {
		if i > 0 && !tightAfter(ts[i-1].Token) && !tightBefore(t.Token) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Token.String())
	}
	return sb.String()
}

func tightBefore(t Token) bool {
	if t.Kind != PUNCT {
		return false
	}
	switch t.Value {
	case ",", ";", ")", "]", ".":
		return true
	}
	return false
}

func tightAfter(t Token) bool {
	switch t.Kind {
	case BACKSLASH, DOLLAR:
		return true
	case PUNCT:
		switch t.Value {
		case "(", "[", ".":
			return true
		}
	}
	return false
}
