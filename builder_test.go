// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import (
	"bytes"
	"encoding/binary"
	"math"
)

// dumpBuilder assembles PMAT byte sequences for tests, honoring a fixed
// set of header flags chosen up front (mirroring what a real dump's
// header would commit every subsequent field to).
type dumpBuilder struct {
	buf   bytes.Buffer
	flags Flags
}

func newDumpBuilder(flags Flags) *dumpBuilder {
	return &dumpBuilder{flags: flags}
}

func (b *dumpBuilder) order() binary.ByteOrder {
	if b.flags.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (b *dumpBuilder) flagsByte() byte {
	var v byte
	if b.flags.BigEndian {
		v |= 0x01
	}
	if b.flags.Integer64 {
		v |= 0x02
	}
	if b.flags.Pointer64 {
		v |= 0x04
	}
	if b.flags.Float64 {
		v |= 0x08
	}
	if b.flags.Threads {
		v |= 0x10
	}
	return v
}

func (b *dumpBuilder) u8(v uint8)   { b.buf.WriteByte(v) }
func (b *dumpBuilder) u32(v uint32) {
	var tmp [4]byte
	b.order().PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
}
func (b *dumpBuilder) u64(v uint64) {
	var tmp [8]byte
	b.order().PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *dumpBuilder) uint(v uint64) {
	if b.flags.Integer64 {
		b.u64(v)
	} else {
		b.u32(uint32(v))
	}
}

func (b *dumpBuilder) ptr(v uint64) {
	if b.flags.Pointer64 {
		b.u64(v)
	} else {
		b.u32(uint32(v))
	}
}

// float writes a scalar's nv: always an 8-byte double, regardless of
// the builder's Flags.Float64 (nv is never narrowed on the wire).
func (b *dumpBuilder) float(v float64) {
	b.u64(math.Float64bits(v))
}

func (b *dumpBuilder) nullUint() {
	if b.flags.Integer64 {
		b.u64(math.MaxUint64)
	} else {
		b.u32(math.MaxUint32)
	}
}

func (b *dumpBuilder) str(s string) {
	b.uint(uint64(len(s)))
	b.buf.WriteString(s)
}

func (b *dumpBuilder) header(major, minor uint8, perlVer uint32) {
	b.buf.Write([]byte{0x50, 0x4D, 0x41, 0x54}) // "PMAT" little-endian magic
	b.u8(b.flagsByte())
	b.u8(0) // reserved
	b.u8(major)
	b.u8(minor)
	b.u32(perlVer)
}

// typeShapeEntry writes one (headerlen, nptrs, nstrs) triple.
func (b *dumpBuilder) typeShapeEntry(headerLen, nptrs, nstrs uint8) {
	b.u8(headerLen)
	b.u8(nptrs)
	b.u8(nstrs)
}

func (b *dumpBuilder) typeShapeTable(entries [][3]uint8) {
	b.u8(uint8(len(entries)))
	for _, e := range entries {
		b.typeShapeEntry(e[0], e[1], e[2])
	}
}

func (b *dumpBuilder) roots(undef, yes, no uint64, named [][2]interface{}) {
	b.ptr(undef)
	b.ptr(yes)
	b.ptr(no)
	b.u32(uint32(len(named)))
	for _, nr := range named {
		b.str(nr[0].(string))
		b.ptr(nr[1].(uint64))
	}
}

func (b *dumpBuilder) stack(ptrs []uint64) {
	b.uint(uint64(len(ptrs)))
	for _, p := range ptrs {
		b.ptr(p)
	}
}

func (b *dumpBuilder) end() { b.u8(0) }

func (b *dumpBuilder) genericHeader(tag uint8, addr uint64, refcnt uint32, size uint64, blessed uint64) {
	b.u8(tag)
	b.ptr(addr)
	b.u32(refcnt)
	b.uint(size)
	b.ptr(blessed)
}

func (b *dumpBuilder) bytes() []byte { return b.buf.Bytes() }

// emptyTypeTables writes two zero-length type shape tables.
func (b *dumpBuilder) emptyTypeTables() {
	b.typeShapeTable(nil)
	b.typeShapeTable(nil)
}

// emptyRootsAndStack writes a Roots block with all-null fixed pointers
// and no named roots, followed by an empty Stack block.
func (b *dumpBuilder) emptyRootsAndStack() {
	b.roots(0, 0, 0, nil)
	b.stack(nil)
}
