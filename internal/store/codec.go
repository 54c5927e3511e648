// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"nickandperla.net/quasi/internal/token"
	"nickandperla.net/quasi/internal/value"
)

// quotedTag is the type column written for quoted token sequences.
const quotedTag = "quoted"

// encode returns the type and value columns for v.
func encode(v cty.Value) (string, string, error) {
	if v == cty.NilVal {
		return "", "", fmt.Errorf("cannot store a nil value")
	}
	if ts, ok := value.AsQuoted(v); ok {
		buf, err := json.Marshal(ts)
		if err != nil {
			return "", "", err
		}
		return quotedTag, string(buf), nil
	}
	if !v.IsWhollyKnown() {
		return "", "", fmt.Errorf("cannot store a value that is not known")
	}
	if containsQuoted(v.Type()) {
		return "", "", fmt.Errorf("cannot store %s: quoted values can only be stored on their own", v.Type().FriendlyName())
	}

	ty := v.Type()
	tbuf, err := ctyjson.MarshalType(ty)
	if err != nil {
		return "", "", err
	}
	vbuf, err := ctyjson.Marshal(v, ty)
	if err != nil {
		return "", "", err
	}
	return string(tbuf), string(vbuf), nil
}

// decode is the inverse of encode.
func decode(typ, val string) (cty.Value, error) {
	if typ == quotedTag {
		var ts token.Tokens
		if err := json.Unmarshal([]byte(val), &ts); err != nil {
			return cty.NilVal, err
		}
		return value.Quoted(ts), nil
	}
	ty, err := ctyjson.UnmarshalType([]byte(typ))
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal([]byte(val), ty)
}

func containsQuoted(ty cty.Type) bool {
	switch {
	case ty.Equals(value.QuotedType):
		return true
	case ty.IsListType() || ty.IsSetType() || ty.IsMapType():
		return containsQuoted(ty.ElementType())
	case ty.IsTupleType():
		for _, et := range ty.TupleElementTypes() {
			if containsQuoted(et) {
				return true
			}
		}
	case ty.IsObjectType():
		for _, at := range ty.AttributeTypes() {
			if containsQuoted(at) {
				return true
			}
		}
	}
	return false
}
