// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import (
	"errors"
	"os"
	"testing"
)

func TestParseInvalidMagicIsFatal(t *testing.T) {
	f, err := NewBytes([]byte{0, 1, 2, 3, 4, 5, 6, 7}, &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()
	err = f.Parse()
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v, want ErrInvalidFormat", err)
	}
}

func TestParseTruncatedIsFatal(t *testing.T) {
	f, err := NewBytes([]byte{0x50, 0x4D, 0x41, 0x54}, &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()
	err = f.Parse()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestNewMissingFile(t *testing.T) {
	_, err := New("does-not-exist.pmat", &Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want a not-exist error", err)
	}
}

func TestParseTraceDoesNotAlterOutcome(t *testing.T) {
	data := buildMinimalScalarDump()

	plain, err := NewBytes(data, &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer plain.Close()
	if err := plain.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	traced, err := NewBytes(data, &Options{Trace: true})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer traced.Close()
	if err := traced.Parse(); err != nil {
		t.Fatalf("Parse with trace failed: %v", err)
	}

	if plain.Table.Len() != traced.Table.Len() {
		t.Errorf("trace mode changed object count: %d vs %d", plain.Table.Len(), traced.Table.Len())
	}
}
