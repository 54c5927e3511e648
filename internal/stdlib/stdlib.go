// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package stdlib embeds the quasi sources that ship with the binary.
package stdlib

import _ "embed"

// Prelude is evaluated by every runtime before user input unless disabled.
//
//go:embed prelude.qs
var Prelude string
