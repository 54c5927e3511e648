// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package unquote

import (
	"github.com/hashicorp/hcl/v2"

	"nickandperla.net/quasi/internal/token"
)

// escape consumes the token after an escape sigil. Only $ may be escaped;
// it is appended to out as a literal. Anything else, or the end of input,
// is an error. fallback is the escape sigil's own range, reported when
// there is no token to point at.
func escape(next *cursor, out token.Tokens, fallback hcl.Range) (token.Tokens, error) {
	tok, ok := next.Next()
	if !ok {
		return nil, &UnexpectedEscapeError{Range: fallback}
	}
	if tok.Token.Kind != token.DOLLAR {
		t := tok.Token
		return nil, &UnexpectedEscapeError{Token: &t, Range: tok.Range}
	}
	return append(out, tok), nil
}
