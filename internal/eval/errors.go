// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// SyntaxError reports a malformed statement.
type SyntaxError struct {
	Range hcl.Range
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Range, e.Msg)
}

// Diagnostic converts the error for diagnostic rendering.
func (e *SyntaxError) Diagnostic() *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid statement",
		Detail:   e.Msg + ".",
		Subject:  e.Range.Ptr(),
	}
}

// NameError reports a statement naming something that is not bound.
type NameError struct {
	Name  string
	Range hcl.Range
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s: %q is not bound", e.Range, e.Name)
}

// Diagnostic converts the error for diagnostic rendering.
func (e *NameError) Diagnostic() *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unknown binding",
		Detail:   fmt.Sprintf("There is no binding named %q.", e.Name),
		Subject:  e.Range.Ptr(),
	}
}
