// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

// TypeShape describes how many extra generic bytes, pointers and
// length-prefixed strings compose an object body at a given type tag.
// Entry 0 is the generic/base shape read before any type-specific body;
// entries 1..N index by SVType. The table is immutable once the header
// is decoded and drives every subsequent unknown-tag skip.
type TypeShape struct {
	HeaderLen uint8
	NPtrs     uint8
	NStrs     uint8
}

func (d *Decoder) readTypeShape() (TypeShape, error) {
	var ts TypeShape
	var err error
	if ts.HeaderLen, err = d.readUint8(); err != nil {
		return ts, err
	}
	if ts.NPtrs, err = d.readUint8(); err != nil {
		return ts, err
	}
	if ts.NStrs, err = d.readUint8(); err != nil {
		return ts, err
	}
	return ts, nil
}

// readTypeShapeTable reads a u8 count followed by that many 3-byte
// TypeShape descriptors, used for both the SV type table and the
// context-frame shape table.
func (d *Decoder) readTypeShapeTable() ([]TypeShape, error) {
	return readCounted(d, 1, d.readTypeShape)
}

// skipByShape consumes headerlen bytes, nptrs pointers and nstrs strings
// as a skip for an object whose tag has a shape entry but no dedicated
// body decoder.
func (d *Decoder) skipByShape(shape TypeShape) error {
	if _, err := d.readBytes(int(shape.HeaderLen)); err != nil {
		return err
	}
	for i := uint8(0); i < shape.NPtrs; i++ {
		if _, err := d.readPtr(); err != nil {
			return err
		}
	}
	for i := uint8(0); i < shape.NStrs; i++ {
		if _, err := d.readString(); err != nil {
			return err
		}
	}
	return nil
}
