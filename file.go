// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pmatkit/pmat/log"
)

// A File represents an open heap-dump snapshot.
type File struct {
	Header Header
	Roots  Roots
	Stack  Stack
	Table  *ObjectTable

	data   mmap.MMap
	raw    []byte
	size   uint32
	f      *os.File
	opts   *Options
	logger *log.Helper
}

// Options configure a Parse run.
type Options struct {
	// Trace enables per-object debug logging of the decode.
	Trace bool

	// A custom logger.
	Logger log.Logger
}

// New instantiates a File given a filename, memory-mapping its content.
func New(name string, opts *Options) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	file := File{}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}
	file.logger = newFileLogger(file.opts)

	file.data = data
	file.size = uint32(len(file.data))
	file.f = f
	return &file, nil
}

// NewBytes instantiates a File given an in-memory buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {
	file := File{}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}
	file.logger = newFileLogger(file.opts)

	file.raw = data
	file.size = uint32(len(file.raw))
	return &file, nil
}

func newFileLogger(opts *Options) *log.Helper {
	if opts.Logger == nil {
		logger := log.NewStdLogger(os.Stdout)
		level := log.LevelError
		if opts.Trace {
			level = log.LevelDebug
		}
		return log.NewHelper(log.NewFilter(logger, log.FilterLevel(level)))
	}
	return log.NewHelper(opts.Logger)
}

// bytes returns the backing byte source, whether mmap'd or in-memory.
func (pf *File) bytes() []byte {
	if pf.data != nil {
		return pf.data
	}
	return pf.raw
}

// Close unmaps and closes the underlying file, if any.
func (pf *File) Close() error {
	if pf.data != nil {
		_ = pf.data.Unmap()
	}
	if pf.f != nil {
		return pf.f.Close()
	}
	return nil
}

// Parse decodes the whole dump: Header, TypeShapes (folded into Header),
// Roots, Stack, Heap, then runs Fixup. It executes single-threaded, in
// that fixed sequence, reading up to the heap's END record before
// returning; bytes after END are not read.
func (pf *File) Parse() error {
	d := newDecoder(pf.bytes(), pf.logger, pf.opts.Trace)

	header, err := d.readHeader()
	if err != nil {
		return err
	}
	pf.Header = header

	roots, err := d.readRoots()
	if err != nil {
		return err
	}
	pf.Roots = roots

	stack, err := d.readStack()
	if err != nil {
		return err
	}
	pf.Stack = stack

	table := newObjectTable(pf.logger)
	d.table = table
	if err := d.readHeap(table); err != nil {
		return err
	}

	table.Finish()
	pf.Table = table

	if pf.opts.Trace {
		pf.logger.Debugf("parse complete: %d objects interned, %d warnings", table.Len(), table.Warnings())
	}
	return nil
}
