// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import "sort"

// runFixup reclassifies the ARRAY objects referenced by every interned
// CODE object's padlist, padnames and pad slots into the synthetic
// PADLIST/PADNAMES/PAD types. It runs once, from Finish, after the whole
// heap has been decoded. Inconsistencies (a missing or mistyped
// referenced object) are logged and the affected slot is left
// unpromoted; they never abort the pass.
func (t *ObjectTable) runFixup() {
	addrs := make([]uint64, 0, len(t.byAddr))
	for addr, sv := range t.byAddr {
		if sv.Type == SVCode {
			addrs = append(addrs, addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	for _, addr := range addrs {
		cv := t.byAddr[addr]
		t.fixupCode(cv)
	}
}

func (t *ObjectTable) inconsistent(format string, args ...interface{}) {
	t.warnings++
	if t.log != nil {
		t.log.Warnf(format, args...)
	}
}

// promoteArray replaces the ARRAY at addr with the same contents tagged
// as newType, returning the promoted SV, or false if the address is
// missing or not an ARRAY.
func (t *ObjectTable) promoteArray(addr uint64, newType SVType) (*SV, bool) {
	old, ok := t.byAddr[addr]
	if !ok {
		t.inconsistent("fixup: referenced address %#x not found for %s promotion", addr, newType)
		return nil, false
	}
	if old.Type != SVArray {
		t.inconsistent("fixup: referenced address %#x is %s, not ARRAY, for %s promotion", addr, old.Type, newType)
		return nil, false
	}
	promoted := &SV{
		Type:    newType,
		Address: old.Address,
		RefCnt:  old.RefCnt,
		Size:    old.Size,
		Blessed: old.Blessed,
		Array:   old.Array,
	}
	t.Replace(old, promoted)
	return promoted, true
}

// fixupCode promotes cv's padlist, padnames and pads arrays, mirroring
// the original's nested finish() control flow: padnames/pads are only
// considered once the padlist itself is present and promotes cleanly.
// A zero or unresolvable padlist skips the whole CV, even if its
// trailer carries a non-zero padnames_/pads_ entry.
func (t *ObjectTable) fixupCode(cv *SV) {
	b := cv.Code
	if b == nil {
		return
	}

	if b.PadList == 0 {
		return
	}
	if _, ok := t.promoteArray(b.PadList, SVPadList); !ok {
		return
	}

	if b.PadNames != 0 {
		if padNames, ok := t.promoteArray(b.PadNames, SVPadNames); ok {
			if uint64(len(padNames.Array.Elements)) != padNames.Array.Count {
				t.inconsistent("fixup: PADNAMES at %#x element count %d does not match count field %d",
					padNames.Address, len(padNames.Array.Elements), padNames.Array.Count)
			}
		}
	}

	for depth, ptr := range b.Pads {
		if depth == 0 || ptr == 0 {
			continue
		}
		if pad, ok := t.promoteArray(ptr, SVPad); ok {
			b.PadSVs = append(b.PadSVs, pad.Address)
		}
	}
}
