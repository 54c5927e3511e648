// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package unquote

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"nickandperla.net/quasi/internal/token"
)

// UnexpectedEscapeError is returned when the escape sigil is followed by
// something other than $. Token is nil when the quote ended right after the
// sigil; Range then points at the sigil itself.
type UnexpectedEscapeError struct {
	Token *token.Token
	Range hcl.Range
}

func (e *UnexpectedEscapeError) Error() string {
	if e.Token == nil {
		return fmt.Sprintf("%s: expected $ after \\ in quote, found end of input", e.Range)
	}
	return fmt.Sprintf("%s: expected $ after \\ in quote, found %s", e.Range, describe(*e.Token))
}

// Diagnostic converts the error for diagnostic rendering.
func (e *UnexpectedEscapeError) Diagnostic() *hcl.Diagnostic {
	detail := "Only $ can be escaped inside a quote; the quote ends right after the backslash."
	if e.Token != nil {
		detail = fmt.Sprintf("Only $ can be escaped inside a quote, but the backslash is followed by %s.", describe(*e.Token))
	}
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unexpected escaped token",
		Detail:   detail,
		Subject:  e.Range.Ptr(),
	}
}

// DepthError is returned when quotes nest more deeply than allowed.
type DepthError struct {
	Depth int
	Max   int
	Range hcl.Range
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("%s: quote nested %d deep, limit is %d", e.Range, e.Depth, e.Max)
}

// Diagnostic converts the error for diagnostic rendering.
func (e *DepthError) Diagnostic() *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Quote nested too deeply",
		Detail:   fmt.Sprintf("This quote is nested %d levels deep; at most %d are allowed.", e.Depth, e.Max),
		Subject:  e.Range.Ptr(),
	}
}

func describe(t token.Token) string {
	switch t.Kind {
	case token.QUOTE:
		return "a quote block"
	case token.UNQUOTE:
		return "an unquote expression"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.String())
}
