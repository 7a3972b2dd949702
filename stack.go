// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

// Stack is the interpreter's save/mark stack at dump time: a flat list
// of pointers, counted at "uint" width rather than the u32 the Roots
// block's named-root sequence uses.
type Stack struct {
	Pointers []uint64
}

// readStack decodes the Stack block: a uint-width count followed by
// that many pointers.
func (d *Decoder) readStack() (Stack, error) {
	var s Stack
	count, err := d.readUint()
	if err != nil {
		return s, err
	}
	s.Pointers = make([]uint64, 0, count)
	for i := uint64(0); i < count; i++ {
		ptr, err := d.readPtr()
		if err != nil {
			return s, err
		}
		s.Pointers = append(s.Pointers, ptr)
	}
	if d.trace {
		d.log.Debugf("stack decoded: %d pointers", len(s.Pointers))
	}
	return s, nil
}
