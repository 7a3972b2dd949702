// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import "testing"

func buildMinimalScalarDump() []byte {
	b := newDumpBuilder(Flags{Pointer64: true})
	b.header(2, 0, 0)
	b.typeShapeTable([][3]uint8{{0, 0, 0}, {0, 0, 1}})
	b.typeShapeTable(nil)
	b.emptyRootsAndStack()

	b.genericHeader(uint8(SVScalar), 0x1000, 1, 24, 0)
	b.u8(8) // scalar flags
	b.uint(0)
	b.float(0.0)
	b.uint(5)
	b.ptr(0)
	b.str("hello")

	b.end()
	return b.bytes()
}

func TestParseSingleScalar(t *testing.T) {
	f, err := NewBytes(buildMinimalScalarDump(), &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if f.Table.Len() != 1 {
		t.Fatalf("got %d objects, want 1", f.Table.Len())
	}
	sv, err := f.Table.Get(0x1000)
	if err != nil {
		t.Fatalf("Get(0x1000) failed: %v", err)
	}
	if sv.Type != SVScalar {
		t.Errorf("got type %s, want SCALAR", sv.Type)
	}
	if sv.Scalar == nil || sv.Scalar.PV != "hello" {
		t.Errorf("got scalar body %+v, want pv=hello", sv.Scalar)
	}

	stats := f.Table.Stats()
	if stats.CountByType[SVScalar] != 1 {
		t.Errorf("count_by_type[SCALAR] = %d, want 1", stats.CountByType[SVScalar])
	}
	if stats.SizeByType[SVScalar] != 24 {
		t.Errorf("size_by_type[SCALAR] = %d, want 24", stats.SizeByType[SVScalar])
	}
}

func TestParseEmptyHeap(t *testing.T) {
	b := newDumpBuilder(Flags{Pointer64: true, Integer64: true})
	b.header(1, 0, 0)
	b.emptyTypeTables()
	b.emptyRootsAndStack()
	b.end()

	f, err := NewBytes(b.bytes(), &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()
	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Table.Len() != 0 {
		t.Errorf("got %d objects, want 0", f.Table.Len())
	}
	if f.Table.Warnings() != 0 {
		t.Errorf("got %d warnings, want 0", f.Table.Warnings())
	}
}

func TestReadSVUnknownTagWithoutShapeIsFatal(t *testing.T) {
	b := newDumpBuilder(Flags{Pointer64: true, Integer64: true})
	b.header(1, 0, 0)
	b.emptyTypeTables()
	b.emptyRootsAndStack()
	b.genericHeader(200, 0x8000, 1, 8, 0) // unknown tag, no shape entry for index 200

	d := newDecoder(b.bytes(), testLogger(), false)
	if _, err := d.readHeader(); err != nil {
		t.Fatalf("readHeader failed: %v", err)
	}
	if _, err := d.readRoots(); err != nil {
		t.Fatalf("readRoots failed: %v", err)
	}
	if _, err := d.readStack(); err != nil {
		t.Fatalf("readStack failed: %v", err)
	}
	if _, _, err := d.readSV(); err == nil {
		t.Fatal("expected an error for an unknown, unshaped SV tag")
	}
}

func TestReadSVUnknownTagWithShapeIsSkipped(t *testing.T) {
	b := newDumpBuilder(Flags{Pointer64: true, Integer64: true})
	b.header(1, 0, 0)
	shapes := make([][3]uint8, 201)
	shapes[200] = [3]uint8{0, 1, 0}
	b.typeShapeTable(shapes)
	b.typeShapeTable(nil)
	b.emptyRootsAndStack()
	b.genericHeader(200, 0x8000, 1, 8, 0)
	b.ptr(0xdead)
	b.end()

	f, err := NewBytes(b.bytes(), &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()
	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Table.Len() != 0 {
		t.Errorf("skipped tag should not be interned, got %d objects", f.Table.Len())
	}
}
