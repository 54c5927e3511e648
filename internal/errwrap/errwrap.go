// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package errwrap contains some error helpers.
package errwrap

import (
	"errors"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	pkgerrors "github.com/pkg/errors"
)

// Wrapf adds a new error onto an existing chain of errors. If the new error to
// be added is nil, then the old error is returned unchanged.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// Append can be used to safely append an error onto an existing one. If you
// pass in a nil error to append, the existing error will be returned unchanged.
// If the existing error is already nil, then the new error will be returned
// unchanged.
func Append(reterr, err error) error {
	if reterr == nil {
		return err // which might even be nil
	}
	if err == nil {
		return reterr
	}
	return multierror.Append(reterr, err)
}

// String returns a string representation of the error. In particular, if the
// error is nil, it returns an empty string instead of panicing.
func String(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Diagnoser is implemented by errors that know the source range they are
// about.
type Diagnoser interface {
	Diagnostic() *hcl.Diagnostic
}

// Diagnostics extracts source diagnostics from an error chain. Multi-errors
// contribute one entry per member. It returns nil if nothing in the chain
// carries a source range.
func Diagnostics(err error) hcl.Diagnostics {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var diags hcl.Diagnostics
		for _, e := range merr.Errors {
			diags = append(diags, Diagnostics(e)...)
		}
		return diags
	}
	var diags hcl.Diagnostics
	if errors.As(err, &diags) {
		return diags
	}
	var d Diagnoser
	if errors.As(err, &d) {
		return hcl.Diagnostics{d.Diagnostic()}
	}
	return nil
}
