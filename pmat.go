// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package pmat decodes PMAT heap-dump files: binary snapshots of a
// dynamic interpreter's runtime object graph (scalars, arrays, hashes,
// stashes, code bodies, globs, I/O handles, references, and magic) and
// reconstructs an in-memory, queryable model of that graph.
package pmat

// Magic is the 4-byte "PMAT" prefix, read little-endian regardless of
// the flags word (the flags aren't known yet when the magic is read).
const Magic uint32 = 0x54414D50

// SVType is the closed set of object tags a PMAT dump can carry, plus
// the synthetic tags Fixup introduces and the two sentinels.
type SVType uint8

// Wire-format SV tags. These match the dump's sv_type_t byte exactly.
const (
	SVEnd     SVType = 0
	SVGlob    SVType = 1
	SVScalar  SVType = 2
	SVRef     SVType = 3
	SVArray   SVType = 4
	SVHash    SVType = 5
	SVStash   SVType = 6
	SVCode    SVType = 7
	SVIO      SVType = 8
	SVLValue  SVType = 9
	SVRegexp  SVType = 10
	SVFormat  SVType = 11
	SVInvlist SVType = 12

	// Synthetic types. Never appear on the wire; Fixup assigns these to
	// ARRAY records reachable from a CODE object's padlist/padnames/pads.
	SVPadNames SVType = 13
	SVPadList  SVType = 14
	SVPad      SVType = 15

	SVMagic   SVType = 0x80
	SVUnknown SVType = 0xFF
)

// String returns the prose name used in the Reporter's table and in
// blessed-type keys such as "ARRAY(Foo::Bar)".
func (t SVType) String() string {
	switch t {
	case SVEnd:
		return "end of list"
	case SVGlob:
		return "GLOB"
	case SVScalar:
		return "SCALAR"
	case SVRef:
		return "REF"
	case SVArray:
		return "ARRAY"
	case SVHash:
		return "HASH"
	case SVStash:
		return "STASH"
	case SVCode:
		return "CODE"
	case SVIO:
		return "IO"
	case SVLValue:
		return "LVALUE"
	case SVRegexp:
		return "REGEXP"
	case SVFormat:
		return "FORMAT"
	case SVInvlist:
		return "INVLIST"
	case SVPadNames:
		return "PADNAMES"
	case SVPadList:
		return "PADLIST"
	case SVPad:
		return "PAD"
	case SVMagic:
		return "MAGIC"
	case SVUnknown:
		return "UNKNOWN"
	default:
		return "unknown sv type"
	}
}

// codeTag identifies one entry of a CODE object's heterogeneous trailer.
type codeTag uint8

// CODE trailer tags, terminated by codeTagEnd.
const (
	codeTagEnd      codeTag = 0
	codeTagConstSV  codeTag = 1
	codeTagConstIx  codeTag = 2
	codeTagGVSV     codeTag = 3
	codeTagGVIx     codeTag = 4
	codeTagPadName  codeTag = 5 // declared by the format, never emitted; see readCodeTrailer
	codeTagPadSV    codeTag = 6 // declared by the format, never emitted; see readCodeTrailer
	codeTagPadNames codeTag = 7
	codeTagPad      codeTag = 8
)
