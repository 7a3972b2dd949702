// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pmatkit/pmat/log"
)

// Flags are the header's per-dump build options; they decide integer,
// pointer and float width, and the byte order honored for every
// multi-byte read (the 4-byte magic is the one exception: it is always
// read little-endian, since it precedes the flags on the wire).
type Flags struct {
	BigEndian bool
	Integer64 bool
	Pointer64 bool
	Float64   bool
	Threads   bool
}

func decodeFlags(b byte) Flags {
	return Flags{
		BigEndian: b&0x01 != 0,
		Integer64: b&0x02 != 0,
		Pointer64: b&0x04 != 0,
		Float64:   b&0x08 != 0,
		Threads:   b&0x10 != 0,
	}
}

// Decoder is the schema-driven byte reader shared across a single
// decode: it owns the offset cursor, the header-derived flags and type
// shape tables, and a handle to the ObjectTable objects are interned
// into. There is exactly one Decoder per Parse call.
type Decoder struct {
	data []byte
	off  uint32

	flags         Flags
	types         []TypeShape
	contextShapes []TypeShape

	table *ObjectTable
	log   *log.Helper
	trace bool
}

func newDecoder(data []byte, logger *log.Helper, trace bool) *Decoder {
	return &Decoder{data: data, log: logger, trace: trace}
}

// Offset returns the decoder's current cursor position. Its final value,
// once decode completes, equals the byte length of the consumed prefix.
func (d *Decoder) Offset() uint32 { return d.off }

func (d *Decoder) order() binary.ByteOrder {
	if d.flags.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (d *Decoder) intWidth() int {
	if d.flags.Integer64 {
		return 8
	}
	return 4
}

func (d *Decoder) ptrWidth() int {
	if d.flags.Pointer64 {
		return 8
	}
	return 4
}

// readBytes returns the next n bytes and advances the cursor, or fails
// with ErrTruncated if that would run past the end of the source.
func (d *Decoder) readBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrInvalidFormat, n)
	}
	remaining := uint32(len(d.data)) - d.off
	if d.off > uint32(len(d.data)) || uint32(n) > remaining {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, d.off, remaining)
	}
	b := d.data[d.off : d.off+uint32(n)]
	d.off += uint32(n)
	return b, nil
}

func (d *Decoder) readUint8() (uint8, error) {
	b, err := d.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) readUint16() (uint16, error) {
	b, err := d.readBytes(2)
	if err != nil {
		return 0, err
	}
	return d.order().Uint16(b), nil
}

func (d *Decoder) readUint32() (uint32, error) {
	b, err := d.readBytes(4)
	if err != nil {
		return 0, err
	}
	return d.order().Uint32(b), nil
}

func (d *Decoder) readUint64() (uint64, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return 0, err
	}
	return d.order().Uint64(b), nil
}

// readFloat reads a scalar's nv: an unconditional 8-byte IEEE-754 double,
// unlike "uint"/pointer fields, nv is never narrowed by Flags.Float64 (the
// flag bit is declared on the wire but never consulted by the reference
// decoder).
func (d *Decoder) readFloat() (float64, error) {
	v, err := d.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// readMagicConstant checks the fixed 4-byte little-endian magic prefix.
func (d *Decoder) readMagicConstant() error {
	b, err := d.readBytes(4)
	if err != nil {
		return err
	}
	if got := binary.LittleEndian.Uint32(b); got != Magic {
		return fmt.Errorf("%w: magic mismatch, got %#x want %#x", ErrInvalidFormat, got, Magic)
	}
	return nil
}

// readZeroByte checks a single reserved byte is exactly zero.
func (d *Decoder) readZeroByte() error {
	b, err := d.readUint8()
	if err != nil {
		return err
	}
	if b != 0 {
		return fmt.Errorf("%w: reserved byte is %#x, want 0", ErrInvalidFormat, b)
	}
	return nil
}

// readUint reads an integer at the header-declared "uint" width (4 or 8
// bytes, per Flags.Integer64).
func (d *Decoder) readUint() (uint64, error) {
	if d.flags.Integer64 {
		return d.readUint64()
	}
	v, err := d.readUint32()
	return uint64(v), err
}

// readPtr reads a pointer at the header-declared pointer width (4 or 8
// bytes, per Flags.Pointer64). Pointers are opaque identity keys, never
// dereferenced.
func (d *Decoder) readPtr() (uint64, error) {
	if d.flags.Pointer64 {
		return d.readUint64()
	}
	v, err := d.readUint32()
	return uint64(v), err
}

// nullStringLength is the wire sentinel (all bits set, at "uint" width)
// denoting a null string, which decodes to empty and consumes no body.
func (d *Decoder) nullStringLength() uint64 {
	if d.flags.Integer64 {
		return math.MaxUint64
	}
	return math.MaxUint32
}

// readString reads a length-prefixed string: the length is at "uint"
// width, and the all-bits-set sentinel denotes a null string (decodes to
// empty, consumes no further bytes).
func (d *Decoder) readString() (string, error) {
	length, err := d.readUint()
	if err != nil {
		return "", err
	}
	if length == d.nullStringLength() {
		return "", nil
	}
	b, err := d.readBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readCounted reads a length-prefixed vector of T. lengthWidth selects
// the container variant's length field size (1, 2, 4 or 8 bytes).
func readCounted[T any](d *Decoder, lengthWidth int, decode func() (T, error)) ([]T, error) {
	var n uint64
	switch lengthWidth {
	case 1:
		v, err := d.readUint8()
		if err != nil {
			return nil, err
		}
		n = uint64(v)
	case 2:
		v, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		n = uint64(v)
	case 4:
		v, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		n = uint64(v)
	case 8:
		v, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		n = uint64(v)
	default:
		return nil, fmt.Errorf("%w: unsupported vector length width %d", ErrInvalidFormat, lengthWidth)
	}

	out := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := decode()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
