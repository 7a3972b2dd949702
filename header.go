// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import "fmt"

// Header is the fixed prefix plus the two type-shape tables that follow
// it. It is decoded once, at the start of Parse, and never mutated
// afterwards: every later decode step reads through the Decoder's
// copies of Types/ContextShapes.
type Header struct {
	Flags Flags

	MajorVersion uint8
	MinorVersion uint8

	// rawPerlVersion is the 4-byte encoded source-interpreter version,
	// unpacked into the dotted string below.
	rawPerlVersion uint32
	PerlVersion    string

	// Types is the SV type-shape table (entry 0 is the generic shape).
	Types []TypeShape
	// ContextShapes is the context-frame shape table that follows Types.
	// No context-frame records are ever read from the heap, roots or
	// stack blocks; pneumatic's own parser never invokes such a read
	// either, so we decode and retain the table without consuming any
	// further records from it.
	ContextShapes []TypeShape
}

// PMATVersion formats the header's (major, minor) pair the way the
// pneumatic reference parser does, e.g. "1.0".
func (h Header) PMATVersion() string {
	return fmt.Sprintf("%d.%d", h.MajorVersion, h.MinorVersion)
}

// readHeader decodes the fixed prefix and both type-shape tables. The
// magic is always read little-endian since the flags word (which would
// otherwise govern byte order) hasn't been read yet.
func (d *Decoder) readHeader() (Header, error) {
	var h Header

	if err := d.readMagicConstant(); err != nil {
		return h, err
	}

	flagsByte, err := d.readUint8()
	if err != nil {
		return h, err
	}
	h.Flags = decodeFlags(flagsByte)
	d.flags = h.Flags

	if err := d.readZeroByte(); err != nil {
		return h, err
	}

	if h.MajorVersion, err = d.readUint8(); err != nil {
		return h, err
	}
	if h.MinorVersion, err = d.readUint8(); err != nil {
		return h, err
	}

	// perl_ver: 4 bytes, decoded with the same endianness as every other
	// multi-byte field once the flags are known (the wire format's
	// "network-to-host transform" is exactly this endian-aware read),
	// then unpacked into (revision, version, subversion).
	if h.rawPerlVersion, err = d.readUint32(); err != nil {
		return h, err
	}
	v := h.rawPerlVersion
	rev := v & 0xFF
	ver := (v >> 8) & 0xFFFF
	sub := (v >> 24) & 0xFFFF
	h.PerlVersion = fmt.Sprintf("%d.%d.%d", rev, ver, sub)

	if h.Types, err = d.readTypeShapeTable(); err != nil {
		return h, err
	}
	if h.ContextShapes, err = d.readTypeShapeTable(); err != nil {
		return h, err
	}

	d.types = h.Types
	d.contextShapes = h.ContextShapes

	if d.trace {
		d.log.Debugf("header decoded: pmat %s, perl %s, flags=%+v, %d types, %d context shapes",
			h.PMATVersion(), h.PerlVersion, h.Flags, len(h.Types), len(h.ContextShapes))
	}

	return h, nil
}
