// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

// NamedRoot is one (name, pointer) pair of the "other roots" sequence.
type NamedRoot struct {
	Name string
	Ptr  uint64
}

// Roots is the three distinguished well-known pointers plus the
// length-prefixed sequence of named interpreter globals (main_cv,
// defstash, and the like). Resolving OtherRoots entries to prose names
// is a reporting concern, kept out of the core per the out-of-scope
// description table.
type Roots struct {
	Undef uint64
	Yes   uint64
	No    uint64

	OtherRoots []NamedRoot
}

func (d *Decoder) readNamedRoot() (NamedRoot, error) {
	var r NamedRoot
	var err error
	if r.Name, err = d.readString(); err != nil {
		return r, err
	}
	if r.Ptr, err = d.readPtr(); err != nil {
		return r, err
	}
	return r, nil
}

// readRoots decodes the Roots block: three fixed pointers followed by a
// u32-counted sequence of named pointers.
func (d *Decoder) readRoots() (Roots, error) {
	var r Roots
	var err error
	if r.Undef, err = d.readPtr(); err != nil {
		return r, err
	}
	if r.Yes, err = d.readPtr(); err != nil {
		return r, err
	}
	if r.No, err = d.readPtr(); err != nil {
		return r, err
	}
	if r.OtherRoots, err = readCounted(d, 4, d.readNamedRoot); err != nil {
		return r, err
	}
	if d.trace {
		d.log.Debugf("roots decoded: undef=%#x yes=%#x no=%#x, %d named roots", r.Undef, r.Yes, r.No, len(r.OtherRoots))
	}
	return r, nil
}
