// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"nickandperla.net/quasi/internal/value"
)

// builtins returns the function table available to every expression.
func builtins(e *Evaluator) map[string]function.Function {
	return map[string]function.Function{
		"abs":        stdlib.AbsoluteFunc,
		"ceil":       stdlib.CeilFunc,
		"concat":     stdlib.ConcatFunc,
		"floor":      stdlib.FloorFunc,
		"format":     stdlib.FormatFunc,
		"join":       stdlib.JoinFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"keys":       stdlib.KeysFunc,
		"length":     stdlib.LengthFunc,
		"lower":      stdlib.LowerFunc,
		"max":        stdlib.MaxFunc,
		"merge":      stdlib.MergeFunc,
		"min":        stdlib.MinFunc,
		"range":      stdlib.RangeFunc,
		"reverse":    stdlib.ReverseListFunc,
		"split":      stdlib.SplitFunc,
		"substr":     stdlib.SubstrFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"upper":      stdlib.UpperFunc,
		"values":     stdlib.ValuesFunc,

		"print":  printFunc(e),
		"source": sourceFunc,
	}
}

// printFunc writes its arguments through the output writer, separated by
// spaces, and returns the written line.
func printFunc(e *Evaluator) function.Function {
	return function.New(&function.Spec{
		Description: "Writes its arguments at compile time.",
		VarParam: &function.Parameter{
			Name: "args",
			Type: cty.DynamicPseudoType,
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			parts := make([]string, 0, len(args))
			for _, arg := range args {
				s, err := display(arg)
				if err != nil {
					return cty.NilVal, err
				}
				parts = append(parts, s)
			}
			text := strings.Join(parts, " ")
			if e.outputWriter != nil {
				if err := e.outputWriter(text + "\n"); err != nil {
					return cty.NilVal, err
				}
			}
			return cty.StringVal(text), nil
		},
	})
}

// sourceFunc renders a quoted value as source text.
var sourceFunc = function.New(&function.Spec{
	Description: "Renders quoted tokens as source text.",
	Params: []function.Parameter{
		{
			Name: "quoted",
			Type: value.QuotedType,
		},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		ts, _ := value.AsQuoted(args[0])
		return cty.StringVal(ts.String()), nil
	},
})

// display renders a value for humans: strings as they are, everything else
// as the tokens that spell it.
func display(v cty.Value) (string, error) {
	if v.Type() == cty.String && v.IsKnown() && !v.IsNull() && !v.IsMarked() {
		return v.AsString(), nil
	}
	ts, err := value.IntoTokens(v, hcl.Range{})
	if err != nil {
		return "", err
	}
	return ts.String(), nil
}
