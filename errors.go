// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import "errors"

// Error taxonomy. Fatal errors abort Parse and propagate out of it.
// Non-fatal conditions (DuplicateAddress, DanglingBlessedRef,
// FixupInconsistency) never surface as an error return; they are logged
// through the injected logger and counted, see ObjectTable.Warnings.
var (
	// ErrInvalidFormat is returned for a magic/reserved/constant mismatch,
	// an unknown SV tag with no shape table entry to skip by, or an
	// unknown CODE-trailer tag.
	ErrInvalidFormat = errors.New("pmat: invalid format")

	// ErrTruncated is returned when a read would run past the end of the
	// byte source.
	ErrTruncated = errors.New("pmat: truncated")

	// ErrNotFound is returned by ObjectTable.Get for an address that was
	// never interned.
	ErrNotFound = errors.New("pmat: address not found")
)
