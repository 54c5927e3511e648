// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package quasi

import "nickandperla.net/quasi/internal/stdlib"

// DefaultPrelude contains the bindings that are automatically loaded unless
// -no-prelude is specified.
var DefaultPrelude = stdlib.Prelude

// PreludeOverride is the store key of a string binding that replaces the
// default prelude.
const PreludeOverride = "__prelude__"

// PreludeFile is the filename prelude diagnostics are reported against.
const PreludeFile = "<prelude>"
